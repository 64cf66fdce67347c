package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"github.com/adex-dev/weatherdash-api/internal/logging"
	"github.com/adex-dev/weatherdash-api/internal/user"
	"github.com/adex-dev/weatherdash-api/internal/weather"
)

// Store is the slice of the user repository the dashboard needs
type Store interface {
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	AddSearchEntry(ctx context.Context, id primitive.ObjectID, city string) error
	GetSearchHistory(ctx context.Context, id primitive.ObjectID) ([]user.SearchEntry, error)
}

// CityWeather bundles the live data fetched for one city lookup
type CityWeather struct {
	City          string                  `json:"city"`
	Current       *weather.Current        `json:"current"`
	Forecast      []weather.ForecastEntry `json:"forecast"`
	AirPollution  *weather.AirPollution   `json:"air_pollution,omitempty"`
	WeatherMapURL string                  `json:"weather_map_url"`
}

// Service serves the authenticated dashboard
type Service struct {
	store   Store
	weather weather.Provider
	logger  *logging.Logger
}

func NewService(store Store, weatherProvider weather.Provider, logger *logging.Logger) *Service {
	return &Service{
		store:   store,
		weather: weatherProvider,
		logger:  logger,
	}
}

// Dashboard resolves the user behind a verified identity claim and, when a
// city is given, enriches the response with live weather data and records
// the lookup. Upstream failure leaves the search history untouched.
func (s *Service) Dashboard(ctx context.Context, email, city string) (*user.User, *CityWeather, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, nil, user.ErrNotFound
		}
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}

	if city == "" {
		return u, nil, nil
	}

	live, err := s.lookupCity(ctx, city)
	if err != nil {
		return nil, nil, err
	}

	// Best-effort; the weather data is already in hand and a duplicate city
	// is a no-op anyway.
	if err := s.store.AddSearchEntry(ctx, u.ID, city); err != nil {
		s.logger.Warn("failed to record search entry", "email", email, "city", city, "error", err)
	} else {
		// The user snapshot predates the write; reflect the entry that was
		// just recorded.
		u.SearchHistory = appendDistinct(u.SearchHistory, city)
	}

	return u, live, nil
}

// SearchHistory lists the user's prior distinct city lookups
func (s *Service) SearchHistory(ctx context.Context, email string) ([]user.SearchEntry, error) {
	u, err := s.store.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	history, err := s.store.GetSearchHistory(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get search history: %w", err)
	}

	return history, nil
}

func appendDistinct(history []user.SearchEntry, city string) []user.SearchEntry {
	for _, entry := range history {
		if entry.Query == city {
			return history
		}
	}
	return append(history, user.SearchEntry{Query: city, SearchedAt: time.Now()})
}

// lookupCity fans out the independent upstream calls and joins before
// proceeding. Air pollution needs the coordinates from the current-weather
// response, so it runs after the join.
func (s *Service) lookupCity(ctx context.Context, city string) (*CityWeather, error) {
	var (
		current  *weather.Current
		forecast []weather.ForecastEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		current, err = s.weather.CurrentWeather(gctx, city)
		return err
	})
	g.Go(func() error {
		var err error
		forecast, err = s.weather.Forecast(gctx, city)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to fetch weather data: %w", err)
	}

	pollution, err := s.weather.AirPollution(ctx, current.Coord.Lat, current.Coord.Lon)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch air pollution data: %w", err)
	}

	return &CityWeather{
		City:          city,
		Current:       current,
		Forecast:      forecast,
		AirPollution:  pollution,
		WeatherMapURL: s.weather.WeatherMapURL(),
	}, nil
}
