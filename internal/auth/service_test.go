package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"github.com/adex-dev/weatherdash-api/internal/logging"
	"github.com/adex-dev/weatherdash-api/internal/user"
	"github.com/adex-dev/weatherdash-api/internal/weather"
)

// fakeStore is an in-memory UserStore
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*user.User // keyed by email
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[string]*user.User)}
}

func (s *fakeStore) Create(_ context.Context, u *user.User) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[u.Email]; exists {
		return nil, user.ErrDuplicateEmail
	}
	u.ID = primitive.NewObjectID()
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	clone := *u
	s.users[u.Email] = &clone
	return u, nil
}

func (s *fakeStore) GetByEmail(_ context.Context, email string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, user.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (s *fakeStore) GetByResetToken(_ context.Context, token string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ResetPasswordToken != nil && *u.ResetPasswordToken == token {
			clone := *u
			return &clone, nil
		}
	}
	return nil, user.ErrNotFound
}

func (s *fakeStore) SetResetToken(_ context.Context, id primitive.ObjectID, token string, expires time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.ResetPasswordToken = &token
			u.ResetPasswordExpires = &expires
			return nil
		}
	}
	return user.ErrNotFound
}

func (s *fakeStore) UpdatePassword(_ context.Context, id primitive.ObjectID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ID == id {
			u.PasswordHash = passwordHash
			u.ResetPasswordToken = nil
			u.ResetPasswordExpires = nil
			return nil
		}
	}
	return user.ErrNotFound
}

// fakeMail records outbound mail
type fakeMail struct {
	mu           sync.Mutex
	welcomeTo    []string
	resetTo      []string
	resetLinks   []string
	welcomeErr   error
	resetSendErr error
}

func (m *fakeMail) SendWelcomeEmail(_ context.Context, toEmail, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.welcomeErr != nil {
		return m.welcomeErr
	}
	m.welcomeTo = append(m.welcomeTo, toEmail)
	return nil
}

func (m *fakeMail) SendPasswordResetEmail(_ context.Context, toEmail, resetLink, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resetSendErr != nil {
		return m.resetSendErr
	}
	m.resetTo = append(m.resetTo, toEmail)
	m.resetLinks = append(m.resetLinks, resetLink)
	return nil
}

func (m *fakeMail) welcomeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.welcomeTo)
}

// fakeWeather returns canned responses
type fakeWeather struct {
	err error
}

func (w *fakeWeather) CurrentWeather(_ context.Context, city string) (*weather.Current, error) {
	if w.err != nil {
		return nil, w.err
	}
	return &weather.Current{
		Name:  city,
		Coord: weather.Coord{Lat: 6.52, Lon: 3.37},
		Weather: []weather.Condition{
			{ID: 800, Main: "Clear", Icon: "01d", IconURL: "https://openweathermap.org/img/wn/01d@2x.png"},
		},
	}, nil
}

func (w *fakeWeather) Forecast(_ context.Context, _ string) ([]weather.ForecastEntry, error) {
	if w.err != nil {
		return nil, w.err
	}
	return []weather.ForecastEntry{{Dt: 1700000000, DtTxt: "2023-11-14 21:00:00"}}, nil
}

func (w *fakeWeather) AirPollution(_ context.Context, _, _ float64) (*weather.AirPollution, error) {
	if w.err != nil {
		return nil, w.err
	}
	return &weather.AirPollution{}, nil
}

func (w *fakeWeather) WeatherMapURL() string {
	return "https://tile.openweathermap.org/map/clouds/10/10/10.png?appid=test"
}

type serviceFixture struct {
	service *Service
	store   *fakeStore
	mail    *fakeMail
	weather *fakeWeather
	tokens  *JWTService
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	tokens, err := NewJWTService([]byte("test-secret"))
	require.NoError(t, err)

	store := newFakeStore()
	mail := &fakeMail{}
	provider := &fakeWeather{}

	svc := NewService(
		store,
		tokens,
		NewHasher(bcrypt.MinCost),
		mail,
		provider,
		logging.NewLogger(true),
		"http://localhost:5173",
		24*time.Hour,
		10*time.Minute,
	)

	return &serviceFixture{service: svc, store: store, mail: mail, weather: provider, tokens: tokens}
}

func registerAlice(t *testing.T, f *serviceFixture) *user.User {
	t.Helper()
	u, err := f.service.Register(context.Background(), RegisterInput{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.com",
		City:      "Lagos",
		Password:  "pw1",
	})
	require.NoError(t, err)
	return u
}

func TestRegister_PersistsHashedPasswordAndSnapshot(t *testing.T) {
	f := newServiceFixture(t)

	registered := registerAlice(t, f)

	stored, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, stored.ID)
	assert.NotEqual(t, "pw1", stored.PasswordHash)
	assert.NotEmpty(t, stored.PasswordHash)
	require.NotNil(t, stored.WeatherData)
	assert.Equal(t, "Lagos", stored.WeatherData.CurrentWeather.Name)
	assert.NotEmpty(t, stored.WeatherData.Forecast)
	assert.NotEmpty(t, stored.WeatherData.WeatherMapURL)

	// Welcome mail fires asynchronously and must not gate registration
	assert.Eventually(t, func() bool { return f.mail.welcomeCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestRegister_DuplicateEmailDoesNotMutateExisting(t *testing.T) {
	f := newServiceFixture(t)

	first := registerAlice(t, f)
	before, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	_, err = f.service.Register(context.Background(), RegisterInput{
		FirstName: "Mallory",
		LastName:  "Evil",
		Email:     "alice@example.com",
		City:      "Berlin",
		Password:  "other",
	})
	assert.ErrorIs(t, err, user.ErrDuplicateEmail)

	after, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, after.ID)
	assert.Equal(t, before.FirstName, after.FirstName)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
}

func TestRegister_ValidationErrors(t *testing.T) {
	f := newServiceFixture(t)

	tests := []struct {
		name  string
		input RegisterInput
		want  error
	}{
		{"missing first name", RegisterInput{LastName: "S", Email: "a@b.co", City: "Lagos", Password: "pw"}, ErrFirstNameRequired},
		{"missing last name", RegisterInput{FirstName: "A", Email: "a@b.co", City: "Lagos", Password: "pw"}, ErrLastNameRequired},
		{"missing email", RegisterInput{FirstName: "A", LastName: "S", City: "Lagos", Password: "pw"}, ErrEmailRequired},
		{"bad email", RegisterInput{FirstName: "A", LastName: "S", Email: "not-an-email", City: "Lagos", Password: "pw"}, ErrInvalidEmailFormat},
		{"missing city", RegisterInput{FirstName: "A", LastName: "S", Email: "a@b.co", Password: "pw"}, ErrCityRequired},
		{"missing password", RegisterInput{FirstName: "A", LastName: "S", Email: "a@b.co", City: "Lagos"}, ErrPasswordRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Register(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRegister_WeatherFailureAbortsWithoutPersisting(t *testing.T) {
	f := newServiceFixture(t)
	f.weather.err = weather.ErrUpstream

	_, err := f.service.Register(context.Background(), RegisterInput{
		FirstName: "Alice",
		LastName:  "Smith",
		Email:     "alice@example.com",
		City:      "Lagos",
		Password:  "pw1",
	})
	assert.ErrorIs(t, err, weather.ErrUpstream)

	_, err = f.store.GetByEmail(context.Background(), "alice@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestLogin_Success(t *testing.T) {
	f := newServiceFixture(t)
	registerAlice(t, f)

	token, loggedIn, err := f.service.Login(context.Background(), "alice@example.com", "pw1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", loggedIn.Email)

	claims, err := f.tokens.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestLogin_UnknownEmailAndWrongPasswordIndistinguishable(t *testing.T) {
	f := newServiceFixture(t)
	registerAlice(t, f)

	_, _, unknownErr := f.service.Login(context.Background(), "nobody@example.com", "pw1")
	_, _, wrongErr := f.service.Login(context.Background(), "alice@example.com", "wrong")

	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr, wrongErr)
}

func TestForgotPassword_PersistsTokenAndSendsMail(t *testing.T) {
	f := newServiceFixture(t)
	registerAlice(t, f)

	require.NoError(t, f.service.ForgotPassword(context.Background(), "alice@example.com"))

	stored, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	require.NotNil(t, stored.ResetPasswordToken)
	require.NotNil(t, stored.ResetPasswordExpires)
	assert.WithinDuration(t, time.Now().Add(10*time.Minute), *stored.ResetPasswordExpires, 5*time.Second)

	// The mailed link carries the persisted token
	require.Len(t, f.mail.resetLinks, 1)
	assert.Contains(t, f.mail.resetLinks[0], *stored.ResetPasswordToken)
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.ForgotPassword(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestForgotPassword_SecondRequestReplacesToken(t *testing.T) {
	f := newServiceFixture(t)
	registerAlice(t, f)

	require.NoError(t, f.service.ForgotPassword(context.Background(), "alice@example.com"))
	stored, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	firstToken := *stored.ResetPasswordToken

	time.Sleep(1100 * time.Millisecond) // JWT iat/exp have second granularity
	require.NoError(t, f.service.ForgotPassword(context.Background(), "alice@example.com"))

	stored, err = f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, firstToken, *stored.ResetPasswordToken)

	// The replaced token no longer matches the stored value
	_, err = f.service.VerifyResetToken(context.Background(), firstToken)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestVerifyResetToken_Valid(t *testing.T) {
	f := newServiceFixture(t)
	registerAlice(t, f)
	require.NoError(t, f.service.ForgotPassword(context.Background(), "alice@example.com"))

	stored, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	verified, err := f.service.VerifyResetToken(context.Background(), *stored.ResetPasswordToken)
	require.NoError(t, err)
	assert.Equal(t, "Alice", verified.FirstName)
}

func TestVerifyResetToken_GarbageToken(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.service.VerifyResetToken(context.Background(), "garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyResetToken_StoredExpiryMustAlsoPass(t *testing.T) {
	f := newServiceFixture(t)
	registered := registerAlice(t, f)

	// Token signed with a healthy TTL but the persisted expiry is already in
	// the past; both checks must pass for the token to count.
	token, err := f.tokens.CreateToken("alice@example.com", 10*time.Minute)
	require.NoError(t, err)
	require.NoError(t, f.store.SetResetToken(context.Background(), registered.ID, token, time.Now().Add(-time.Minute)))

	_, err = f.service.VerifyResetToken(context.Background(), token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestResetPassword_RejectsSamePassword(t *testing.T) {
	f := newServiceFixture(t)
	registerAlice(t, f)
	require.NoError(t, f.service.ForgotPassword(context.Background(), "alice@example.com"))

	stored, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)

	err = f.service.ResetPassword(context.Background(), *stored.ResetPasswordToken, "pw1")
	assert.ErrorIs(t, err, ErrSamePassword)
}

func TestResetPassword_FullLifecycle(t *testing.T) {
	f := newServiceFixture(t)
	registerAlice(t, f)
	require.NoError(t, f.service.ForgotPassword(context.Background(), "alice@example.com"))

	stored, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	resetToken := *stored.ResetPasswordToken

	require.NoError(t, f.service.ResetPassword(context.Background(), resetToken, "pw2"))

	// Reset-token fields cleared, new password effective
	after, err := f.store.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Nil(t, after.ResetPasswordToken)
	assert.Nil(t, after.ResetPasswordExpires)

	_, _, err = f.service.Login(context.Background(), "alice@example.com", "pw1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.service.Login(context.Background(), "alice@example.com", "pw2")
	assert.NoError(t, err)

	// The consumed token no longer matches any stored value
	err = f.service.ResetPassword(context.Background(), resetToken, "pw3")
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestResetPassword_EmptyPassword(t *testing.T) {
	f := newServiceFixture(t)

	err := f.service.ResetPassword(context.Background(), "whatever", "")
	assert.ErrorIs(t, err, ErrPasswordRequired)
}
