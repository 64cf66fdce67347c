package dashboard

import (
	"errors"
	"net/http"

	"github.com/adex-dev/weatherdash-api/internal/auth"
	"github.com/adex-dev/weatherdash-api/internal/httputil"
	"github.com/adex-dev/weatherdash-api/internal/logging"
	"github.com/adex-dev/weatherdash-api/internal/user"
	"github.com/adex-dev/weatherdash-api/internal/weather"
)

// Handler contains HTTP handlers for the authenticated dashboard endpoints
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

// DashboardResponse is the authenticated dashboard payload
type DashboardResponse struct {
	User          *user.User         `json:"user"`
	Weather       *CityWeather       `json:"weather,omitempty"`
	SearchHistory []user.SearchEntry `json:"search_history"`
}

// Dashboard serves the user's dashboard
// @Summary      User dashboard
// @Description  Fetch the user's stored data, optionally enriched with live weather for a city
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Param        city query string false "City to look up"
// @Success      200 {object} DashboardResponse
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /dashboard [get]
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	email, ok := auth.GetUserEmailFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	city := r.URL.Query().Get("city")

	u, live, err := h.service.Dashboard(r.Context(), email, city)
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNotFound):
			logger.Warn("dashboard failed: user not found", "email", email)
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, weather.ErrCityNotFound):
			logger.Warn("dashboard failed: unknown city", "city", city)
			httputil.RespondErrorWithCode(w, "city not found", httputil.CodeCityNotFound, http.StatusBadRequest)
		default:
			// Provider detail stays out of the response
			logger.Error("dashboard failed: internal error", "error", err.Error())
			httputil.RespondErrorWithCode(w, "failed to load dashboard", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	httputil.RespondJSON(w, DashboardResponse{
		User:          u,
		Weather:       live,
		SearchHistory: u.SearchHistory,
	}, http.StatusOK)
}

// SearchHistory lists the user's distinct city lookups
// @Summary      Search history
// @Description  List the cities the user has looked up
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} map[string][]user.SearchEntry
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /search-history [get]
func (h *Handler) SearchHistory(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	email, ok := auth.GetUserEmailFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	history, err := h.service.SearchHistory(r.Context(), email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			httputil.RespondErrorWithCode(w, "user not found", httputil.CodeUserNotFound, http.StatusNotFound)
			return
		}
		logger.Error("search history failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to load search history", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if history == nil {
		history = []user.SearchEntry{}
	}

	httputil.RespondJSON(w, map[string][]user.SearchEntry{"search_history": history}, http.StatusOK)
}
