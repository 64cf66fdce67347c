package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adex-dev/weatherdash-api/internal/user"
)

// TokenService defines the interface for token creation and validation.
// Session tokens and reset tokens share the implementation; only the TTL and
// the lifecycle around them differ.
type TokenService interface {
	CreateToken(email string, ttl time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}

// UserStore is the credential-store capability the service depends on
type UserStore interface {
	Create(ctx context.Context, u *user.User) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByResetToken(ctx context.Context, token string) (*user.User, error)
	SetResetToken(ctx context.Context, id primitive.ObjectID, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, id primitive.ObjectID, passwordHash string) error
}

// MailSender defines the interface for outbound email
type MailSender interface {
	SendWelcomeEmail(ctx context.Context, toEmail, firstName string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, resetLink, firstName string) error
}
