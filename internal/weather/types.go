package weather

// Types mirror the OpenWeather response shapes we keep. They carry bson tags
// as well because a snapshot is embedded in the user document at registration.

// Coord is a geographic coordinate pair
type Coord struct {
	Lon float64 `json:"lon" bson:"lon"`
	Lat float64 `json:"lat" bson:"lat"`
}

// Condition is a single weather condition entry with its icon URL attached
type Condition struct {
	ID          int    `json:"id" bson:"id"`
	Main        string `json:"main" bson:"main"`
	Description string `json:"description" bson:"description"`
	Icon        string `json:"icon" bson:"icon"`
	IconURL     string `json:"iconUrl,omitempty" bson:"iconUrl,omitempty"`
}

// Metrics holds the main temperature and pressure readings
type Metrics struct {
	Temp      float64 `json:"temp" bson:"temp"`
	FeelsLike float64 `json:"feels_like" bson:"feelsLike"`
	TempMin   float64 `json:"temp_min" bson:"tempMin"`
	TempMax   float64 `json:"temp_max" bson:"tempMax"`
	Pressure  int     `json:"pressure" bson:"pressure"`
	Humidity  int     `json:"humidity" bson:"humidity"`
}

// Wind holds wind readings
type Wind struct {
	Speed float64 `json:"speed" bson:"speed"`
	Deg   int     `json:"deg" bson:"deg"`
	Gust  float64 `json:"gust,omitempty" bson:"gust,omitempty"`
}

// Clouds holds cloud coverage
type Clouds struct {
	All int `json:"all" bson:"all"`
}

// Current is the current-conditions response for a city
type Current struct {
	Coord      Coord       `json:"coord" bson:"coord"`
	Weather    []Condition `json:"weather" bson:"weather"`
	Main       Metrics     `json:"main" bson:"main"`
	Visibility int         `json:"visibility" bson:"visibility"`
	Wind       Wind        `json:"wind" bson:"wind"`
	Clouds     Clouds      `json:"clouds" bson:"clouds"`
	Dt         int64       `json:"dt" bson:"dt"`
	Name       string      `json:"name" bson:"name"`
}

// ForecastEntry is one 3-hour slot of the 5-day forecast
type ForecastEntry struct {
	Dt         int64       `json:"dt" bson:"dt"`
	Main       Metrics     `json:"main" bson:"main"`
	Weather    []Condition `json:"weather" bson:"weather"`
	Clouds     Clouds      `json:"clouds" bson:"clouds"`
	Wind       Wind        `json:"wind" bson:"wind"`
	Visibility int         `json:"visibility" bson:"visibility"`
	Pop        float64     `json:"pop" bson:"pop"`
	DtTxt      string      `json:"dt_txt" bson:"dtTxt"`
}

// PollutionComponents holds pollutant concentrations in μg/m3
type PollutionComponents struct {
	CO   float64 `json:"co" bson:"co"`
	NO   float64 `json:"no" bson:"no"`
	NO2  float64 `json:"no2" bson:"no2"`
	O3   float64 `json:"o3" bson:"o3"`
	SO2  float64 `json:"so2" bson:"so2"`
	PM25 float64 `json:"pm2_5" bson:"pm2_5"`
	PM10 float64 `json:"pm10" bson:"pm10"`
	NH3  float64 `json:"nh3" bson:"nh3"`
}

// PollutionEntry is a single air-quality reading
type PollutionEntry struct {
	Dt   int64 `json:"dt" bson:"dt"`
	Main struct {
		AQI int `json:"aqi" bson:"aqi"`
	} `json:"main" bson:"main"`
	Components PollutionComponents `json:"components" bson:"components"`
}

// AirPollution is the air-quality response for a coordinate
type AirPollution struct {
	Coord Coord            `json:"coord" bson:"coord"`
	List  []PollutionEntry `json:"list" bson:"list"`
}
