package user

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/adex-dev/weatherdash-api/internal/weather"
)

// User is the document persisted in the users collection. Email carries a
// unique index; PasswordHash never holds plaintext. The reset-token pair is
// either absent or set together.
type User struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	FirstName            string             `json:"first_name" bson:"firstName"`
	LastName             string             `json:"last_name" bson:"lastName"`
	Email                string             `json:"email" bson:"email"`
	City                 string             `json:"city" bson:"city"`
	PasswordHash         string             `json:"-" bson:"password"`
	ResetPasswordToken   *string            `json:"-" bson:"resetPasswordToken,omitempty"`
	ResetPasswordExpires *time.Time         `json:"-" bson:"resetPasswordExpires,omitempty"`
	WeatherData          *WeatherData       `json:"weather_data,omitempty" bson:"weatherData,omitempty"`
	SearchHistory        []SearchEntry      `json:"search_history" bson:"searchHistory,omitempty"`
	CreatedAt            time.Time          `json:"created_at" bson:"createdAt"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updatedAt"`
}

// WeatherData is the weather snapshot captured for the user's home city at
// registration time.
type WeatherData struct {
	CurrentWeather *weather.Current        `json:"current_weather,omitempty" bson:"currentWeather,omitempty"`
	Forecast       []weather.ForecastEntry `json:"forecast,omitempty" bson:"forecast,omitempty"`
	AirPollution   *weather.AirPollution   `json:"air_pollution,omitempty" bson:"airPollution,omitempty"`
	WeatherMapURL  string                  `json:"weather_map_url,omitempty" bson:"weatherMapUrl,omitempty"`
}

// SearchEntry records one distinct city lookup
type SearchEntry struct {
	Query      string    `json:"query" bson:"query"`
	SearchedAt time.Time `json:"searched_at" bson:"searchedAt"`
}

// HasActiveResetToken reports whether a reset token is stored and its
// persisted expiry is still in the future.
func (u *User) HasActiveResetToken(now time.Time) bool {
	return u.ResetPasswordToken != nil &&
		u.ResetPasswordExpires != nil &&
		u.ResetPasswordExpires.After(now)
}
