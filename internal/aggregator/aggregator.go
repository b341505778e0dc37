// Package aggregator composes the sensor store, the external data clients,
// and the risk model into the service's response-producing operations.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/enviro-risk-service/internal/config"
	"github.com/couchcryptid/enviro-risk-service/internal/domain"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

// Query radii and the legacy endpoint's fixed weather coordinate
// (Altamont, Oregon — kept for compatibility with historical consumers).
const (
	snapshotRadiusKm = 25.0
	listRadiusKm     = 50.0

	legacyLatitude  = 42.19
	legacyLongitude = -121.78

	areaDisplayName = "Altamont, Oregon"

	unavailableCategory = "Data Unavailable"
)

// SensorStore resolves sensors with spatial predicates.
type SensorStore interface {
	SensorsInBounds(ctx context.Context, box domain.BoundingBox) ([]domain.Sensor, error)
	SensorsNear(ctx context.Context, lat, lon, radiusKm float64) ([]domain.Sensor, error)
	AllSensors(ctx context.Context) ([]domain.Sensor, error)
	Ping(ctx context.Context) error
}

// AirQualityFetcher fetches a current AQI sample for a zip code.
type AirQualityFetcher interface {
	FetchAirQuality(ctx context.Context, zipCode string) (domain.AirQualitySample, error)
}

// WeatherFetcher fetches a current observation for a coordinate.
type WeatherFetcher interface {
	FetchWeather(ctx context.Context, lat, lon float64) (domain.WeatherObservation, error)
}

// RiskPredictor scores a feature vector with the loaded classifier.
type RiskPredictor interface {
	Predict(features domain.RiskFeatures) (float64, error)
}

// Service orchestrates the aggregation operations. All entities it handles
// are request-scoped values; the only shared mutable state lives behind the
// RiskPredictor.
type Service struct {
	store      SensorStore
	airQuality AirQualityFetcher
	weather    WeatherFetcher
	predictor  RiskPredictor
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock

	upstreamTimeout time.Duration
	defaultLat      float64
	defaultLon      float64
	defaultZip      string
}

// New creates the aggregation service.
func New(
	store SensorStore,
	airQuality AirQualityFetcher,
	weather WeatherFetcher,
	predictor RiskPredictor,
	cfg *config.Config,
	logger *slog.Logger,
	metrics *observability.Metrics,
	clock clockwork.Clock,
) *Service {
	return &Service{
		store:           store,
		airQuality:      airQuality,
		weather:         weather,
		predictor:       predictor,
		logger:          logger,
		metrics:         metrics,
		clock:           clock,
		upstreamTimeout: cfg.UpstreamTimeout,
		defaultLat:      cfg.DefaultLatitude,
		defaultLon:      cfg.DefaultLongitude,
		defaultZip:      cfg.AirNowDefaultZip,
	}
}

// CheckReadiness reports whether the sensor store is reachable.
func (s *Service) CheckReadiness(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Snapshot produces the environmental dashboard payload for a coordinate,
// falling back to the configured default when lat/lon are nil.
//
// The three sub-fetches run concurrently with a join-all barrier: each gets
// its own bounded timeout derived from the request context, none is
// cancelled by another's failure, and the response is assembled only after
// all three complete. Failed sections degrade to documented placeholders
// in-band; the call itself always succeeds.
func (s *Service) Snapshot(ctx context.Context, lat, lon *float64) SnapshotResponse {
	la, lo := s.defaultLat, s.defaultLon
	if lat != nil && lon != nil {
		la, lo = *lat, *lon
	}

	var (
		wg      sync.WaitGroup
		air     domain.AirQualitySample
		airErr  error
		obs     domain.WeatherObservation
		obsErr  error
		sensors []domain.Sensor
		sensErr error
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
		// Zip proxy for the region, not derived from the coordinate.
		air, airErr = s.airQuality.FetchAirQuality(fctx, s.defaultZip)
	}()
	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
		obs, obsErr = s.weather.FetchWeather(fctx, la, lo)
	}()
	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
		sensors, sensErr = s.store.SensorsNear(fctx, la, lo, snapshotRadiusKm)
	}()
	wg.Wait()

	resp := SnapshotResponse{
		Location: LocationSection{Latitude: la, Longitude: lo},
		Sensors:  []domain.Sensor{},
	}

	if sensErr != nil {
		// A store failure degrades to an empty list without an error entry;
		// the dashboard renders the map with no markers.
		s.logger.Warn("nearby sensor query failed", "error", sensErr, "lat", la, "lon", lo)
	} else {
		resp.Sensors = sensors
	}

	if airErr != nil {
		s.logger.Warn("air quality fetch failed", "error", airErr, "kind", domain.KindOf(airErr))
		resp.AirQuality = AirQualitySection{
			AQI:       0,
			Category:  unavailableCategory,
			Location:  areaDisplayName,
			Timestamp: s.timestamp(),
		}
	} else {
		resp.AirQuality = AirQualitySection{
			AQI:       air.AQI,
			Category:  air.Category,
			Location:  areaDisplayName,
			Timestamp: s.timestamp(),
		}
	}

	if obsErr != nil {
		s.logger.Warn("weather fetch failed", "error", obsErr, "kind", domain.KindOf(obsErr))
		resp.Weather = WeatherSection{}
	} else {
		resp.Weather = weatherSection(obs)
	}

	switch {
	case airErr != nil && obsErr != nil:
		resp.Error = fmt.Sprintf("failed to fetch data - air quality: %v, weather: %v", airErr, obsErr)
	case airErr != nil:
		resp.Error = fmt.Sprintf("failed to fetch air quality data: %v", airErr)
	case obsErr != nil:
		resp.Error = fmt.Sprintf("failed to fetch weather data: %v", obsErr)
	}

	return resp
}

// SensorQuery selects one of the three listing modes. Precedence when
// multiple are populated: bounding box, then point, then unconditional.
type SensorQuery struct {
	Bounds *domain.BoundingBox
	Lat    *float64
	Lon    *float64
}

// ListSensors runs the listing mode selected by the query. A store failure
// yields an empty list plus an in-band error, not a failed call.
func (s *Service) ListSensors(ctx context.Context, query SensorQuery) SensorListResponse {
	qctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	var (
		sensors []domain.Sensor
		err     error
	)
	switch {
	case query.Bounds != nil:
		sensors, err = s.store.SensorsInBounds(qctx, *query.Bounds)
	case query.Lat != nil && query.Lon != nil:
		sensors, err = s.store.SensorsNear(qctx, *query.Lat, *query.Lon, listRadiusKm)
	default:
		sensors, err = s.store.AllSensors(qctx)
	}

	if err != nil {
		s.logger.Warn("sensor listing failed", "error", err)
		return SensorListResponse{
			Sensors:   []domain.Sensor{},
			Count:     0,
			Timestamp: s.timestamp(),
			Error:     fmt.Sprintf("failed to fetch sensors: %v", err),
		}
	}

	return SensorListResponse{
		Sensors:   sensors,
		Count:     len(sensors),
		Timestamp: s.timestamp(),
	}
}

// PredictRisk runs the sequential prediction pipeline for a coordinate:
// fetch weather, derive features, invoke the model, map to a tier. Any
// stage failure short-circuits the rest and returns the error in-band with
// the echoed location.
func (s *Service) PredictRisk(ctx context.Context, lat, lon float64) RiskResponse {
	resp := RiskResponse{
		Location:  LocationSection{Latitude: lat, Longitude: lon},
		Timestamp: s.timestamp(),
	}

	fctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
	defer cancel()

	obs, err := s.weather.FetchWeather(fctx, lat, lon)
	if err != nil {
		s.logger.Warn("risk prediction aborted: weather fetch failed", "error", err, "lat", lat, "lon", lon)
		resp.Error = fmt.Sprintf("failed to fetch weather data: %v", err)
		return resp
	}

	features := domain.DeriveFeatures(obs)

	probability, err := s.predictor.Predict(features)
	if err != nil {
		s.logger.Error("risk prediction failed", "error", err, "lat", lat, "lon", lon)
		resp.Error = fmt.Sprintf("failed to make risk prediction: %v", err)
		return resp
	}

	tier := domain.TierForProbability(probability)
	s.metrics.Predictions.With(prometheus.Labels{"tier": string(tier)}).Inc()

	weather := weatherSection(obs)
	resp.Risk = &RiskSection{
		Probability: probability,
		Level:       string(tier),
		Description: tier.Description(),
	}
	resp.WeatherConditions = &weather
	resp.ModelInputs = &features
	return resp
}

// LegacyStatus is the historical combined lookup. Weather uses a fixed
// coordinate regardless of the supplied zip code — a documented quirk kept
// for compatibility; prefer Snapshot for new consumers.
func (s *Service) LegacyStatus(ctx context.Context, zipCode string) StatusResponse {
	var (
		wg     sync.WaitGroup
		air    domain.AirQualitySample
		airErr error
		obs    domain.WeatherObservation
		obsErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
		air, airErr = s.airQuality.FetchAirQuality(fctx, zipCode)
	}()
	go func() {
		defer wg.Done()
		fctx, cancel := context.WithTimeout(ctx, s.upstreamTimeout)
		defer cancel()
		obs, obsErr = s.weather.FetchWeather(fctx, legacyLatitude, legacyLongitude)
	}()
	wg.Wait()

	var resp StatusResponse
	if airErr == nil {
		aqi := air.AQI
		resp.AQI = &aqi
		resp.AQICategory = air.Category
	}
	if obsErr == nil {
		temp, hum, speed, dir := obs.Temperature, obs.Humidity, obs.WindSpeed, obs.WindDirection
		resp.Temperature = &temp
		resp.Humidity = &hum
		resp.WindSpeed = &speed
		resp.WindDirection = &dir
	}

	switch {
	case airErr != nil && obsErr != nil:
		resp.Error = fmt.Sprintf("failed to fetch data - air quality: %v, weather: %v", airErr, obsErr)
	case airErr != nil:
		resp.Error = fmt.Sprintf("failed to fetch air quality data: %v", airErr)
	case obsErr != nil:
		resp.Error = fmt.Sprintf("failed to fetch weather data: %v", obsErr)
	}

	return resp
}

func (s *Service) timestamp() string {
	return s.clock.Now().UTC().Format(time.RFC3339)
}

func weatherSection(obs domain.WeatherObservation) WeatherSection {
	return WeatherSection{
		Temperature:   obs.Temperature,
		Humidity:      obs.Humidity,
		WindSpeed:     obs.WindSpeed,
		WindDirection: obs.WindDirection,
	}
}
