package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Mongo   MongoConfig
	Auth    AuthConfig
	Email   EmailConfig
	Weather WeatherConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type MongoConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
}

type AuthConfig struct {
	// HS256 signing secret shared by session and reset tokens
	JWTSecret       []byte
	SessionTokenTTL time.Duration
	ResetTokenTTL   time.Duration
	BcryptCost      int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FrontendURL  string // base URL for reset links
	SendTimeout  time.Duration
}

type WeatherConfig struct {
	BaseURL        string
	CurrentAPIKey  string
	ForecastAPIKey string
	RequestTimeout time.Duration
}

// Load reads configuration from environment variables
// Call godotenv.Load() before this if using .env file
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:5173"}),
		},
		Mongo: MongoConfig{
			URI:            getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:       getEnv("MONGO_DATABASE", "weatherdash"),
			ConnectTimeout: getDurationEnv("MONGO_CONNECT_TIMEOUT", 10*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:       []byte(getEnv("JWT_SECRET", "")),
			SessionTokenTTL: getDurationEnv("SESSION_TOKEN_TTL", 24*time.Hour),
			ResetTokenTTL:   getDurationEnv("RESET_TOKEN_TTL", 10*time.Minute),
			BcryptCost:      getIntEnv("BCRYPT_COST", 10),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:5173"),
			SendTimeout:  getDurationEnv("SMTP_SEND_TIMEOUT", 10*time.Second),
		},
		Weather: WeatherConfig{
			BaseURL:        getEnv("WEATHER_BASE_URL", "https://api.openweathermap.org"),
			CurrentAPIKey:  getEnv("CURRENT_WEATHER_API_KEY", ""),
			ForecastAPIKey: getEnv("FORECAST_API_KEY", ""),
			RequestTimeout: getDurationEnv("WEATHER_REQUEST_TIMEOUT", 10*time.Second),
		},
	}

	if len(cfg.Auth.JWTSecret) == 0 {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if cfg.Weather.CurrentAPIKey == "" {
		return nil, fmt.Errorf("CURRENT_WEATHER_API_KEY is required")
	}
	// The forecast endpoint falls back to the current-weather key
	if cfg.Weather.ForecastAPIKey == "" {
		cfg.Weather.ForecastAPIKey = cfg.Weather.CurrentAPIKey
	}

	return cfg, nil
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Split by comma and trim whitespace
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
