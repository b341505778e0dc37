package domain

// RiskFeatures is the fixed five-element input vector for the risk
// classifier. Field order matches the model's training contract; changing it
// requires retraining. See the package comment for units.
type RiskFeatures struct {
	Temperature   float32 `json:"temperature"`
	Humidity      float32 `json:"humidity"`
	WindSpeed     float32 `json:"wind_speed"`
	Precipitation float32 `json:"precipitation"`
	DroughtIndex  float32 `json:"drought_index"`
}

// Vector returns the features as a flat slice in model input order.
func (f RiskFeatures) Vector() []float32 {
	return []float32{f.Temperature, f.Humidity, f.WindSpeed, f.Precipitation, f.DroughtIndex}
}

// DeriveFeatures maps a live weather observation onto the model's feature
// vector. Pure and deterministic: no I/O, same observation always yields the
// same features.
//
// Precipitation is pinned to 0.0 — a known simplification, not a bug.
// TODO: wire a last-7-days precipitation feed (NOAA CDO or similar) once one
// is available and retrain with real precipitation values.
func DeriveFeatures(obs WeatherObservation) RiskFeatures {
	return RiskFeatures{
		Temperature:   float32(obs.Temperature),
		Humidity:      float32(obs.Humidity),
		WindSpeed:     float32(obs.WindSpeed),
		Precipitation: 0.0,
		DroughtIndex:  float32(droughtIndex(obs.Temperature, obs.Humidity)),
	}
}

// droughtIndex approximates dryness on a 0-100 scale from current temperature
// (°F) and relative humidity. Hotter and drier both push the index up.
func droughtIndex(tempF, humidity float64) float64 {
	tempFactor := (tempF - 32.0) / 100.0
	humidityFactor := 1.0 - humidity/100.0
	return clamp((tempFactor+humidityFactor)*50.0, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
