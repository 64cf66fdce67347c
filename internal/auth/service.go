package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/adex-dev/weatherdash-api/internal/logging"
	"github.com/adex-dev/weatherdash-api/internal/user"
	"github.com/adex-dev/weatherdash-api/internal/weather"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrFirstNameRequired  = errors.New("first name is required")
	ErrLastNameRequired   = errors.New("last name is required")
	ErrCityRequired       = errors.New("city is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrInvalidEmailFormat = errors.New("invalid email format")
	ErrSamePassword       = errors.New("new password cannot be the same as the existing password")
)

// Service orchestrates registration, login and the password-reset lifecycle
type Service struct {
	store           UserStore
	tokens          TokenService
	hasher          *Hasher
	mail            MailSender
	weather         weather.Provider
	logger          *logging.Logger
	frontendURL     string
	sessionTokenTTL time.Duration
	resetTokenTTL   time.Duration
}

func NewService(
	store UserStore,
	tokens TokenService,
	hasher *Hasher,
	mailSender MailSender,
	weatherProvider weather.Provider,
	logger *logging.Logger,
	frontendURL string,
	sessionTokenTTL time.Duration,
	resetTokenTTL time.Duration,
) *Service {
	return &Service{
		store:           store,
		tokens:          tokens,
		hasher:          hasher,
		mail:            mailSender,
		weather:         weatherProvider,
		logger:          logger,
		frontendURL:     frontendURL,
		sessionTokenTTL: sessionTokenTTL,
		resetTokenTTL:   resetTokenTTL,
	}
}

// RegisterInput carries the registration fields
type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	City      string
	Password  string
}

// Register creates a new user with a weather snapshot for their city and
// fires a best-effort welcome email. A duplicate email is a conflict and
// must not mutate the existing record.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*user.User, error) {
	if err := validateRegisterInput(input); err != nil {
		return nil, err
	}

	// Early conflict check; the unique index on email remains the
	// storage-level guarantee against races.
	if _, err := s.store.GetByEmail(ctx, input.Email); err == nil {
		return nil, user.ErrDuplicateEmail
	} else if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	// Fetch current weather and forecast concurrently
	var (
		current  *weather.Current
		forecast []weather.ForecastEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.weather.CurrentWeather(gctx, input.City)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = s.weather.Forecast(gctx, input.City)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}

	passwordHash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.store.Create(ctx, &user.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		City:         input.City,
		PasswordHash: passwordHash,
		WeatherData: &user.WeatherData{
			CurrentWeather: current,
			Forecast:       forecast,
			WeatherMapURL:  s.weather.WeatherMapURL(),
		},
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			return nil, user.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	// Welcome email is a side channel, not transactional; failure must not
	// roll back registration.
	go func() {
		emailCtx := context.Background()
		if err := s.mail.SendWelcomeEmail(emailCtx, newUser.Email, newUser.FirstName); err != nil {
			s.logger.Warn("failed to send welcome email", "email", newUser.Email, "error", err)
		}
	}()

	return newUser, nil
}

// Login authenticates a user and mints a session token. Unknown email and
// password mismatch are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, *user.User, error) {
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !s.hasher.Compare(password, existing.PasswordHash) {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.CreateToken(existing.Email, s.sessionTokenTTL)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create session token: %w", err)
	}

	return token, existing, nil
}

// ForgotPassword issues a short-lived reset token, persists it together with
// its expiry on the user record, and emails the reset link. The expiry lives
// both inside the signed token and on the document; a reset token is valid
// only when both checks pass.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return ErrEmailRequired
	}

	existing, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.ErrNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	resetToken, err := s.tokens.CreateToken(existing.Email, s.resetTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create reset token: %w", err)
	}

	expires := time.Now().Add(s.resetTokenTTL)
	if err := s.store.SetResetToken(ctx, existing.ID, resetToken, expires); err != nil {
		return fmt.Errorf("failed to persist reset token: %w", err)
	}

	resetLink := fmt.Sprintf("%s/resetPassword?token=%s", s.frontendURL, resetToken)
	if err := s.mail.SendPasswordResetEmail(ctx, existing.Email, resetLink, existing.FirstName); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	return nil
}

// VerifyResetToken validates a reset token: signature and claim expiry via
// the token service, then presence and stored expiry on the user record
// found by the stored token value.
func (s *Service) VerifyResetToken(ctx context.Context, token string) (*user.User, error) {
	if _, err := s.tokens.VerifyToken(token); err != nil {
		return nil, err
	}

	existing, err := s.store.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	if !existing.HasActiveResetToken(time.Now()) {
		return nil, ErrExpiredToken
	}

	return existing, nil
}

// ResetPassword completes the reset flow: the token must pass both expiry
// checks and still match the stored value, and the new password must differ
// from the current one. On success the new hash is persisted and both
// reset-token fields are cleared in the same update.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	if newPassword == "" {
		return ErrPasswordRequired
	}

	existing, err := s.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}

	if s.hasher.Compare(newPassword, existing.PasswordHash) {
		return ErrSamePassword
	}

	passwordHash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.store.UpdatePassword(ctx, existing.ID, passwordHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	return nil
}

func validateRegisterInput(input RegisterInput) error {
	if input.FirstName == "" {
		return ErrFirstNameRequired
	}
	if input.LastName == "" {
		return ErrLastNameRequired
	}
	if input.Email == "" {
		return ErrEmailRequired
	}
	if len(input.Email) > 254 {
		return ErrInvalidEmailFormat
	}
	if _, err := mail.ParseAddress(input.Email); err != nil {
		return ErrInvalidEmailFormat
	}
	if input.City == "" {
		return ErrCityRequired
	}
	if input.Password == "" {
		return ErrPasswordRequired
	}
	return nil
}
