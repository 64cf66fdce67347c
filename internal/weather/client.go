package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

var (
	ErrCityNotFound = errors.New("city not found")
	ErrUpstream     = errors.New("weather provider error")
)

const iconURLFormat = "https://openweathermap.org/img/wn/%s@2x.png"

// Provider is the capability the rest of the application depends on.
// The real implementation is Client; tests inject fakes.
type Provider interface {
	CurrentWeather(ctx context.Context, city string) (*Current, error)
	Forecast(ctx context.Context, city string) ([]ForecastEntry, error)
	AirPollution(ctx context.Context, lat, lon float64) (*AirPollution, error)
	WeatherMapURL() string
}

// Client calls the OpenWeather HTTP API
type Client struct {
	baseURL        string
	currentAPIKey  string
	forecastAPIKey string
	httpClient     *http.Client
}

func NewClient(baseURL, currentAPIKey, forecastAPIKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:        baseURL,
		currentAPIKey:  currentAPIKey,
		forecastAPIKey: forecastAPIKey,
		httpClient:     &http.Client{Timeout: timeout},
	}
}

// CurrentWeather fetches current conditions for a city and attaches icon URLs
func (c *Client) CurrentWeather(ctx context.Context, city string) (*Current, error) {
	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.currentAPIKey)
	query.Set("units", "metric")

	var current Current
	if err := c.get(ctx, "/data/2.5/weather", query, &current); err != nil {
		return nil, err
	}

	for i := range current.Weather {
		current.Weather[i].IconURL = fmt.Sprintf(iconURLFormat, current.Weather[i].Icon)
	}

	return &current, nil
}

// Forecast fetches the 5-day/3-hour forecast for a city and attaches icon URLs
func (c *Client) Forecast(ctx context.Context, city string) ([]ForecastEntry, error) {
	query := url.Values{}
	query.Set("q", city)
	query.Set("appid", c.forecastAPIKey)
	query.Set("units", "metric")

	var response struct {
		List []ForecastEntry `json:"list"`
	}
	if err := c.get(ctx, "/data/2.5/forecast", query, &response); err != nil {
		return nil, err
	}

	for i := range response.List {
		for j := range response.List[i].Weather {
			response.List[i].Weather[j].IconURL = fmt.Sprintf(iconURLFormat, response.List[i].Weather[j].Icon)
		}
	}

	return response.List, nil
}

// AirPollution fetches air-quality data for a coordinate
func (c *Client) AirPollution(ctx context.Context, lat, lon float64) (*AirPollution, error) {
	query := url.Values{}
	query.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	query.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	query.Set("appid", c.currentAPIKey)

	var pollution AirPollution
	if err := c.get(ctx, "/data/2.5/air_pollution", query, &pollution); err != nil {
		return nil, err
	}

	return &pollution, nil
}

// WeatherMapURL returns the cloud-layer tile URL
func (c *Client) WeatherMapURL() string {
	return fmt.Sprintf("https://tile.openweathermap.org/map/clouds/10/10/10.png?appid=%s", c.currentAPIKey)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrCityNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: unexpected status %d", ErrUpstream, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUpstream, err)
	}

	return nil
}
