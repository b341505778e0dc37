package aggregator

import "github.com/couchcryptid/enviro-risk-service/internal/domain"

// Response shapes for the aggregation operations. Sections degrade
// independently: a failed sub-fetch fills its section with placeholder
// values and appends an in-band error string instead of failing the call.

// AirQualitySection reports the current AQI for the reporting area, or the
// "Data Unavailable" placeholder when the fetch failed.
type AirQualitySection struct {
	AQI       int    `json:"aqi"`
	Category  string `json:"category"`
	Location  string `json:"location"`
	Timestamp string `json:"timestamp"`
}

// WeatherSection echoes the live observation, or all zeros when the fetch
// failed.
type WeatherSection struct {
	Temperature   float64 `json:"temperature"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	WindDirection float64 `json:"wind_direction"`
}

// LocationSection echoes the coordinate the operation ran against.
type LocationSection struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SnapshotResponse is the environmental-data dashboard payload. It always
// carries a location and a sensors list; Error names the source(s) that
// failed, if any.
type SnapshotResponse struct {
	AirQuality AirQualitySection `json:"air_quality"`
	Weather    WeatherSection    `json:"weather"`
	Location   LocationSection   `json:"location"`
	Sensors    []domain.Sensor   `json:"sensors"`
	Error      string            `json:"error,omitempty"`
}

// SensorListResponse carries a sensor listing with its count and timestamp.
// On store failure the list is empty and Error is set; the call still
// succeeds.
type SensorListResponse struct {
	Sensors   []domain.Sensor `json:"sensors"`
	Count     int             `json:"count"`
	Timestamp string          `json:"timestamp"`
	Error     string          `json:"error,omitempty"`
}

// RiskSection is the classifier verdict for a coordinate.
type RiskSection struct {
	Probability float64 `json:"probability"`
	Level       string  `json:"level"`
	Description string  `json:"description"`
}

// RiskResponse is the risk-prediction payload. Unlike the snapshot, a stage
// failure short-circuits the pipeline: only the echoed location, timestamp,
// and Error are populated — no placeholder risk value is synthesized.
type RiskResponse struct {
	Location          LocationSection      `json:"location"`
	Risk              *RiskSection         `json:"risk,omitempty"`
	WeatherConditions *WeatherSection      `json:"weather_conditions,omitempty"`
	ModelInputs       *domain.RiskFeatures `json:"model_inputs,omitempty"`
	Timestamp         string               `json:"timestamp"`
	Error             string               `json:"error,omitempty"`
}

// StatusResponse is the legacy combined air-quality/weather payload. Fields
// are pointers so that sections absent due to upstream failure are omitted
// entirely, matching the historical shape consumers parse.
type StatusResponse struct {
	AQI           *int     `json:"aqi,omitempty"`
	AQICategory   string   `json:"aqi_category,omitempty"`
	Temperature   *float64 `json:"temperature,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty"`
	WindSpeed     *float64 `json:"wind_speed,omitempty"`
	WindDirection *float64 `json:"wind_direction,omitempty"`
	Error         string   `json:"error,omitempty"`
}
