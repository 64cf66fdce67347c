package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adex-dev/weatherdash-api/internal/logging"
)

func newHandlerFixture(t *testing.T) (*Handler, *serviceFixture) {
	t.Helper()
	f := newServiceFixture(t)
	return NewHandler(f.service, logging.NewLogger(true)), f
}

func doRequest(h http.HandlerFunc, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

const aliceRegisterBody = `{"firstName":"Alice","lastName":"Smith","email":"alice@example.com","city":"Lagos","password":"pw1"}`

func TestHandler_Register(t *testing.T) {
	h, _ := newHandlerFixture(t)

	rec := doRequest(h.Register, http.MethodPost, "/register", aliceRegisterBody)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Registration successful", resp["message"])
}

func TestHandler_Register_DuplicateEmail(t *testing.T) {
	h, _ := newHandlerFixture(t)

	rec := doRequest(h.Register, http.MethodPost, "/register", aliceRegisterBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(h.Register, http.MethodPost, "/register", aliceRegisterBody)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMAIL_ALREADY_EXISTS")
}

func TestHandler_Register_InvalidBody(t *testing.T) {
	h, _ := newHandlerFixture(t)

	rec := doRequest(h.Register, http.MethodPost, "/register", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Register_MissingFields(t *testing.T) {
	h, _ := newHandlerFixture(t)

	rec := doRequest(h.Register, http.MethodPost, "/register", `{"email":"a@b.co"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "FIRST_NAME_REQUIRED")
}

func TestHandler_Login_Success(t *testing.T) {
	h, f := newHandlerFixture(t)
	registerAlice(t, f)

	rec := doRequest(h.Login, http.MethodPost, "/login", `{"email":"alice@example.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "Alice", resp.User.FirstName)
	assert.Equal(t, "Lagos", resp.User.City)

	claims, err := f.tokens.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", claims.Email)
}

func TestHandler_Login_FailuresAreByteIdentical(t *testing.T) {
	h, f := newHandlerFixture(t)
	registerAlice(t, f)

	unknown := doRequest(h.Login, http.MethodPost, "/login", `{"email":"nobody@example.com","password":"pw1"}`)
	wrongPassword := doRequest(h.Login, http.MethodPost, "/login", `{"email":"alice@example.com","password":"wrong"}`)

	assert.Equal(t, http.StatusUnauthorized, unknown.Code)
	assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
	assert.Equal(t, unknown.Body.Bytes(), wrongPassword.Body.Bytes())
}

func TestHandler_ForgotPassword_UnknownEmail(t *testing.T) {
	h, _ := newHandlerFixture(t)

	rec := doRequest(h.ForgotPassword, http.MethodPost, "/forgot-password", `{"email":"nobody@example.com"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "EMAIL_NOT_FOUND")
}

func TestHandler_VerifyResetToken_MissingToken(t *testing.T) {
	h, _ := newHandlerFixture(t)

	rec := doRequest(h.VerifyResetToken, http.MethodGet, "/verify-reset-password-token", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "TOKEN_REQUIRED")
}

func TestHandler_VerifyResetToken_Garbage(t *testing.T) {
	h, _ := newHandlerFixture(t)

	rec := doRequest(h.VerifyResetToken, http.MethodGet, "/verify-reset-password-token?token=garbage", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_TOKEN")
}

// Full registration-to-reset walk-through over the HTTP surface.
func TestHandler_PasswordResetScenario(t *testing.T) {
	h, f := newHandlerFixture(t)

	// Register and login
	rec := doRequest(h.Register, http.MethodPost, "/register", aliceRegisterBody)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = doRequest(h.Login, http.MethodPost, "/login", `{"email":"alice@example.com","password":"pw1"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// Request a reset and pull the persisted token
	rec = doRequest(h.ForgotPassword, http.MethodPost, "/forgot-password", `{"email":"alice@example.com"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	stored := f.store.users["alice@example.com"]
	require.NotNil(t, stored.ResetPasswordToken)
	token := url.QueryEscape(*stored.ResetPasswordToken)

	// Pre-flight verification shows the user's first name
	rec = doRequest(h.VerifyResetToken, http.MethodGet, "/verify-reset-password-token?token="+token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Alice")

	// Same password is rejected
	rec = doRequest(h.ResetPassword, http.MethodPost, "/reset-password?token="+token, `{"password":"pw1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "SAME_PASSWORD")

	// A differing password succeeds and clears the token fields
	rec = doRequest(h.ResetPassword, http.MethodPost, "/reset-password?token="+token, `{"password":"pw2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, f.store.users["alice@example.com"].ResetPasswordToken)

	// Reusing the consumed token fails
	rec = doRequest(h.ResetPassword, http.MethodPost, "/reset-password?token="+token, `{"password":"pw3"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// Old password no longer works, new one does
	rec = doRequest(h.Login, http.MethodPost, "/login", `{"email":"alice@example.com","password":"pw1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = doRequest(h.Login, http.MethodPost, "/login", `{"email":"alice@example.com","password":"pw2"}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}
