package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound       = errors.New("user not found")
	ErrDuplicateEmail = errors.New("email already exists")
)

// Repository handles user data persistence
type Repository struct {
	collection *mongo.Collection
}

func NewRepository(db *mongo.Database) *Repository {
	return &Repository{collection: db.Collection("users")}
}

// Create inserts a new user. Email uniqueness is enforced by the collection
// index; a violation surfaces as ErrDuplicateEmail.
func (r *Repository) Create(ctx context.Context, u *User) (*User, error) {
	now := time.Now()
	u.ID = primitive.NewObjectID()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.collection.InsertOne(ctx, u)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	u := new(User)
	err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}

// GetByResetToken retrieves a user by the stored reset-token value
func (r *Repository) GetByResetToken(ctx context.Context, token string) (*User, error) {
	u := new(User)
	err := r.collection.FindOne(ctx, bson.M{"resetPasswordToken": token}).Decode(u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return u, nil
}

// SetResetToken stores the reset token and its expiry on the user document.
// Concurrent calls race last-write-wins; the newest pair replaces any
// still-unexpired earlier one.
func (r *Repository) SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{
			"resetPasswordToken":   token,
			"resetPasswordExpires": expires,
			"updatedAt":            time.Now(),
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to set reset token: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// UpdatePassword persists a new password hash and clears both reset-token
// fields in the same update.
func (r *Repository) UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{
			"$set": bson.M{
				"password":  passwordHash,
				"updatedAt": time.Now(),
			},
			"$unset": bson.M{
				"resetPasswordToken":   "",
				"resetPasswordExpires": "",
			},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}

	return nil
}

// AddSearchEntry appends a search-history entry unless the city was already
// looked up. The filter keeps one entry per distinct query.
func (r *Repository) AddSearchEntry(ctx context.Context, id primitive.ObjectID, city string) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":                 id,
			"searchHistory.query": bson.M{"$ne": city},
		},
		bson.M{
			"$push": bson.M{"searchHistory": SearchEntry{
				Query:      city,
				SearchedAt: time.Now(),
			}},
			"$set": bson.M{"updatedAt": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to add search entry: %w", err)
	}

	return nil
}

// GetSearchHistory returns the user's distinct city lookups
func (r *Repository) GetSearchHistory(ctx context.Context, id primitive.ObjectID) ([]SearchEntry, error) {
	u := new(User)
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get search history: %w", err)
	}

	return u.SearchHistory, nil
}
