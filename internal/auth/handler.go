package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/adex-dev/weatherdash-api/internal/httputil"
	"github.com/adex-dev/weatherdash-api/internal/logging"
	"github.com/adex-dev/weatherdash-api/internal/user"
	"github.com/adex-dev/weatherdash-api/internal/weather"
)

// Handler contains HTTP handlers for the authentication endpoints
type Handler struct {
	service *Service
	logger  *logging.Logger
}

func NewHandler(service *Service, logger *logging.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	City      string `json:"city"`
	Password  string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation body;
// the token itself travels in the query string.
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// UserResponse represents a user in API responses
type UserResponse struct {
	ID          string            `json:"id"`
	FirstName   string            `json:"first_name"`
	LastName    string            `json:"last_name"`
	City        string            `json:"city"`
	WeatherData *user.WeatherData `json:"weather_data,omitempty"`
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

func toUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:          u.ID.Hex(),
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		City:        u.City,
		WeatherData: u.WeatherData,
	}
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new user account with a weather snapshot for their city. A welcome email is sent best-effort.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration details"
// @Success      201 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	_, err := h.service.Register(r.Context(), RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		City:      req.City,
		Password:  req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, user.ErrDuplicateEmail):
			logger.Warn("registration failed: email already exists")
			respondError(w, "email already exists with us", httputil.CodeEmailAlreadyExists, http.StatusConflict)
		case errors.Is(err, ErrFirstNameRequired):
			respondError(w, err.Error(), httputil.CodeFirstNameRequired, http.StatusBadRequest)
		case errors.Is(err, ErrLastNameRequired):
			respondError(w, err.Error(), httputil.CodeLastNameRequired, http.StatusBadRequest)
		case errors.Is(err, ErrCityRequired):
			respondError(w, err.Error(), httputil.CodeCityRequired, http.StatusBadRequest)
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidEmailFormat):
			respondError(w, err.Error(), httputil.CodeInvalidEmailFormat, http.StatusBadRequest)
		case errors.Is(err, weather.ErrCityNotFound):
			logger.Warn("registration failed: unknown city")
			respondError(w, "city not found", httputil.CodeCityNotFound, http.StatusBadRequest)
		default:
			logger.Error("registration failed: internal error", "error", err.Error())
			respondError(w, "failed to create user", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user registered successfully")

	respondJSON(w, map[string]string{"message": "Registration successful"}, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate a user and receive a session token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResponse
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	token, loggedIn, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			// Unknown email and wrong password share this single path so the
			// payloads stay byte-identical.
			logger.Warn("login failed: invalid credentials")
			respondError(w, "invalid email or password", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		respondError(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged in successfully")

	respondJSON(w, LoginResponse{
		Token: token,
		User:  toUserResponse(loggedIn),
	}, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Issue a short-lived reset token and email a reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Email address"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      404 {object} httputil.ErrorResponse "Unknown email"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		switch {
		case errors.Is(err, ErrEmailRequired):
			respondError(w, err.Error(), httputil.CodeEmailRequired, http.StatusBadRequest)
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("forgot password failed: unknown email")
			respondError(w, "we couldn't find an account associated with this email address", httputil.CodeEmailNotFound, http.StatusNotFound)
		default:
			logger.Error("forgot password failed: internal error", "error", err.Error())
			respondError(w, "failed to send reset password email", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("reset password email sent")

	respondJSON(w, map[string]string{"message": "Reset password email sent"}, http.StatusOK)
}

// VerifyResetToken handles the pre-flight reset-token check
// @Summary      Verify reset password token
// @Description  Check a reset token before showing the reset form
// @Tags         auth
// @Produce      json
// @Param        token query string true "Reset token"
// @Success      200 {object} map[string]any
// @Failure      400 {object} httputil.ErrorResponse "Token missing"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      404 {object} httputil.ErrorResponse "Token does not match any user"
// @Router       /verify-reset-password-token [get]
func (h *Handler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token is required", httputil.CodeTokenRequired, http.StatusBadRequest)
		return
	}

	verified, err := h.service.VerifyResetToken(r.Context(), token)
	if err != nil {
		h.respondResetTokenError(w, logger, err)
		return
	}

	respondJSON(w, map[string]any{
		"user": map[string]string{
			"id":         verified.ID.Hex(),
			"first_name": verified.FirstName,
		},
	}, http.StatusOK)
}

// ResetPassword handles password reset with token
// @Summary      Reset password
// @Description  Set a new password using a valid reset token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token query string true "Reset token"
// @Param        request body ResetPasswordRequest true "New password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} httputil.ErrorResponse "Missing input or same password"
// @Failure      401 {object} httputil.ErrorResponse "Invalid or expired token"
// @Failure      404 {object} httputil.ErrorResponse "Token does not match any user"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := r.URL.Query().Get("token")
	if token == "" {
		respondError(w, "token is missing", httputil.CodeTokenRequired, http.StatusBadRequest)
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	if err := h.service.ResetPassword(r.Context(), token, req.Password); err != nil {
		switch {
		case errors.Is(err, ErrPasswordRequired):
			respondError(w, err.Error(), httputil.CodePasswordRequired, http.StatusBadRequest)
		case errors.Is(err, ErrSamePassword):
			logger.Warn("password reset failed: new password matches current")
			respondError(w, err.Error(), httputil.CodeSamePassword, http.StatusBadRequest)
		default:
			h.respondResetTokenError(w, logger, err)
		}
		return
	}

	logger.Info("password reset successfully")

	respondJSON(w, map[string]string{"message": "Password reset successfully"}, http.StatusOK)
}

// respondResetTokenError maps the shared reset-token verification failures
func (h *Handler) respondResetTokenError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, ErrExpiredToken):
		logger.Warn("reset token expired")
		respondError(w, "token has expired", httputil.CodeTokenExpired, http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidToken):
		logger.Warn("reset token invalid")
		respondError(w, "invalid token", httputil.CodeInvalidToken, http.StatusUnauthorized)
	case errors.Is(err, user.ErrNotFound):
		logger.Warn("reset token does not match any user")
		respondError(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
	default:
		logger.Error("reset token verification failed: internal error", "error", err.Error())
		respondError(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
