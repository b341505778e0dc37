package domain

// WeatherObservation is a live reading from the weather upstream. Fetched per
// request, never cached. Values follow the imperial convention documented in
// the package comment.
type WeatherObservation struct {
	Temperature   float64 // °F
	Humidity      float64 // relative humidity, 0-100
	WindSpeed     float64 // mph
	WindDirection float64 // degrees, 0-360
}

// AirQualitySample is a current AQI reading for a reporting area.
type AirQualitySample struct {
	AQI      int
	Category string // e.g. "Good", "Moderate", "Unhealthy"
}
