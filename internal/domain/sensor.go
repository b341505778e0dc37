package domain

import "fmt"

// Sensor is a monitoring site with a fixed geographic location. Sensors are
// seeded or created by admin action and are read-only from the aggregation
// paths.
type Sensor struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	DataSource string  `json:"data_source"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
}

// NewSensor holds the fields required to create a sensor.
type NewSensor struct {
	Name       string
	DataSource string
	Latitude   float64
	Longitude  float64
}

// Validate checks that the coordinates are within WGS-84 bounds.
func (s NewSensor) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("sensor name is required")
	}
	if s.Latitude < -90 || s.Latitude > 90 {
		return fmt.Errorf("latitude %v out of range [-90, 90]", s.Latitude)
	}
	if s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("longitude %v out of range [-180, 180]", s.Longitude)
	}
	return nil
}
