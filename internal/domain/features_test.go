package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveFeatures_CopiesObservedValues(t *testing.T) {
	obs := WeatherObservation{
		Temperature:   90.0,
		Humidity:      30.0,
		WindSpeed:     12.5,
		WindDirection: 270,
	}

	f := DeriveFeatures(obs)

	assert.Equal(t, float32(90.0), f.Temperature)
	assert.Equal(t, float32(30.0), f.Humidity)
	assert.Equal(t, float32(12.5), f.WindSpeed)
}

func TestDeriveFeatures_PrecipitationAlwaysZero(t *testing.T) {
	for _, obs := range []WeatherObservation{
		{},
		{Temperature: 105, Humidity: 5, WindSpeed: 40},
		{Temperature: -20, Humidity: 100},
	} {
		assert.Equal(t, float32(0.0), DeriveFeatures(obs).Precipitation)
	}
}

func TestDeriveFeatures_DroughtIndex(t *testing.T) {
	tests := []struct {
		name     string
		tempF    float64
		humidity float64
		want     float32
	}{
		// ((90-32)/100 + (1 - 30/100)) * 50 = (0.58 + 0.7) * 50 = 64
		{"hot and dry", 90, 30, 64.0},
		// ((32-32)/100 + (1 - 100/100)) * 50 = 0
		{"freezing and saturated", 32, 100, 0.0},
		// extreme heat clamps to 100 instead of overflowing
		{"extreme heat clamps high", 500, 0, 100.0},
		{"deep cold clamps low", -200, 100, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := DeriveFeatures(WeatherObservation{Temperature: tt.tempF, Humidity: tt.humidity})
			assert.InDelta(t, tt.want, f.DroughtIndex, 1e-4)
			assert.GreaterOrEqual(t, f.DroughtIndex, float32(0.0))
			assert.LessOrEqual(t, f.DroughtIndex, float32(100.0))
		})
	}
}

func TestDeriveFeatures_Deterministic(t *testing.T) {
	obs := WeatherObservation{Temperature: 77.3, Humidity: 41.2, WindSpeed: 9.9, WindDirection: 12}
	first := DeriveFeatures(obs)
	for range 10 {
		assert.Equal(t, first, DeriveFeatures(obs))
	}
}

func TestVector_Order(t *testing.T) {
	f := RiskFeatures{
		Temperature:   1,
		Humidity:      2,
		WindSpeed:     3,
		Precipitation: 4,
		DroughtIndex:  5,
	}
	assert.Equal(t, []float32{1, 2, 3, 4, 5}, f.Vector())
}
