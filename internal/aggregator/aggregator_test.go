package aggregator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/enviro-risk-service/internal/config"
	"github.com/couchcryptid/enviro-risk-service/internal/domain"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

var frozenTime = time.Date(2026, 8, 14, 17, 30, 0, 0, time.UTC)

const frozenRFC3339 = "2026-08-14T17:30:00Z"

type fakeStore struct {
	sensors    []domain.Sensor
	err        error
	pingErr    error
	calledWith string // "in_bounds", "near", or "all"
	nearRadius float64
}

func (f *fakeStore) SensorsInBounds(_ context.Context, _ domain.BoundingBox) ([]domain.Sensor, error) {
	f.calledWith = "in_bounds"
	return f.sensors, f.err
}

func (f *fakeStore) SensorsNear(_ context.Context, _, _, radiusKm float64) ([]domain.Sensor, error) {
	f.calledWith = "near"
	f.nearRadius = radiusKm
	return f.sensors, f.err
}

func (f *fakeStore) AllSensors(_ context.Context) ([]domain.Sensor, error) {
	f.calledWith = "all"
	return f.sensors, f.err
}

func (f *fakeStore) Ping(_ context.Context) error { return f.pingErr }

type fakeAirQuality struct {
	sample  domain.AirQualitySample
	err     error
	lastZip string
	called  bool
}

func (f *fakeAirQuality) FetchAirQuality(_ context.Context, zipCode string) (domain.AirQualitySample, error) {
	f.called = true
	f.lastZip = zipCode
	return f.sample, f.err
}

type fakeWeather struct {
	obs     domain.WeatherObservation
	err     error
	lastLat float64
	lastLon float64
	called  bool
}

func (f *fakeWeather) FetchWeather(_ context.Context, lat, lon float64) (domain.WeatherObservation, error) {
	f.called = true
	f.lastLat = lat
	f.lastLon = lon
	return f.obs, f.err
}

type fakePredictor struct {
	probability float64
	err         error
	lastInput   domain.RiskFeatures
	called      bool
}

func (f *fakePredictor) Predict(features domain.RiskFeatures) (float64, error) {
	f.called = true
	f.lastInput = features
	return f.probability, f.err
}

func testConfig() *config.Config {
	return &config.Config{
		UpstreamTimeout:  5 * time.Second,
		DefaultLatitude:  44.1292,
		DefaultLongitude: -121.7689,
		AirNowDefaultZip: "97601",
	}
}

func newTestService(store *fakeStore, air *fakeAirQuality, weather *fakeWeather, predictor *fakePredictor) *Service {
	return New(
		store, air, weather, predictor,
		testConfig(),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
		clockwork.NewFakeClockAt(frozenTime),
	)
}

func ptr[T any](v T) *T { return &v }

func goodWeather() domain.WeatherObservation {
	return domain.WeatherObservation{Temperature: 88.3, Humidity: 22, WindSpeed: 14.7, WindDirection: 245}
}

func TestSnapshot_AllSourcesSucceed(t *testing.T) {
	store := &fakeStore{sensors: []domain.Sensor{{ID: 1, Name: "Bend-NE 27th Street"}}}
	air := &fakeAirQuality{sample: domain.AirQualitySample{AQI: 42, Category: "Good"}}
	weather := &fakeWeather{obs: goodWeather()}
	svc := newTestService(store, air, weather, &fakePredictor{})

	resp := svc.Snapshot(context.Background(), ptr(44.1), ptr(-121.7))

	assert.Equal(t, 42, resp.AirQuality.AQI)
	assert.Equal(t, "Good", resp.AirQuality.Category)
	assert.Equal(t, frozenRFC3339, resp.AirQuality.Timestamp)
	assert.Equal(t, 88.3, resp.Weather.Temperature)
	assert.Equal(t, 44.1, resp.Location.Latitude)
	assert.Equal(t, -121.7, resp.Location.Longitude)
	assert.Len(t, resp.Sensors, 1)
	assert.Empty(t, resp.Error)

	assert.Equal(t, "97601", air.lastZip, "air quality keys off the zip proxy, not the coordinate")
	assert.Equal(t, 44.1, weather.lastLat)
	assert.Equal(t, "near", store.calledWith)
	assert.Equal(t, snapshotRadiusKm, store.nearRadius)
}

func TestSnapshot_AirQualityFailureDegradesInBand(t *testing.T) {
	store := &fakeStore{sensors: []domain.Sensor{}}
	air := &fakeAirQuality{err: domain.NewStatusError("airnow", 503)}
	weather := &fakeWeather{obs: goodWeather()}
	svc := newTestService(store, air, weather, &fakePredictor{})

	resp := svc.Snapshot(context.Background(), ptr(44.1), ptr(-121.7))

	assert.Equal(t, 0, resp.AirQuality.AQI)
	assert.Equal(t, "Data Unavailable", resp.AirQuality.Category)
	assert.Equal(t, 88.3, resp.Weather.Temperature)
	assert.Equal(t, 22.0, resp.Weather.Humidity)
	assert.NotEmpty(t, resp.Error)
	assert.Contains(t, resp.Error, "air quality")
	assert.NotContains(t, resp.Error, "weather:")
}

func TestSnapshot_WeatherFailureDegradesInBand(t *testing.T) {
	store := &fakeStore{}
	air := &fakeAirQuality{sample: domain.AirQualitySample{AQI: 55, Category: "Moderate"}}
	weather := &fakeWeather{err: domain.NewSourceError(domain.KindNetwork, "openweather", errors.New("timeout"))}
	svc := newTestService(store, air, weather, &fakePredictor{})

	resp := svc.Snapshot(context.Background(), ptr(44.1), ptr(-121.7))

	assert.Equal(t, 55, resp.AirQuality.AQI)
	assert.Equal(t, WeatherSection{}, resp.Weather)
	assert.Contains(t, resp.Error, "weather")
}

func TestSnapshot_BothUpstreamsFail(t *testing.T) {
	store := &fakeStore{}
	air := &fakeAirQuality{err: domain.NewStatusError("airnow", 500)}
	weather := &fakeWeather{err: domain.NewSourceError(domain.KindNetwork, "openweather", errors.New("refused"))}
	svc := newTestService(store, air, weather, &fakePredictor{})

	resp := svc.Snapshot(context.Background(), ptr(44.1), ptr(-121.7))

	assert.Equal(t, "Data Unavailable", resp.AirQuality.Category)
	assert.Equal(t, WeatherSection{}, resp.Weather)
	assert.Contains(t, resp.Error, "air quality")
	assert.Contains(t, resp.Error, "weather")
}

func TestSnapshot_StoreFailureYieldsEmptySensorsWithoutError(t *testing.T) {
	store := &fakeStore{err: domain.NewSourceError(domain.KindStore, "store", errors.New("connection reset"))}
	air := &fakeAirQuality{sample: domain.AirQualitySample{AQI: 10, Category: "Good"}}
	weather := &fakeWeather{obs: goodWeather()}
	svc := newTestService(store, air, weather, &fakePredictor{})

	resp := svc.Snapshot(context.Background(), ptr(44.1), ptr(-121.7))

	require.NotNil(t, resp.Sensors)
	assert.Empty(t, resp.Sensors)
	assert.Empty(t, resp.Error, "a sensor store failure is not surfaced as an error entry")
}

func TestSnapshot_DefaultsCoordinateWhenOmitted(t *testing.T) {
	store := &fakeStore{}
	weather := &fakeWeather{obs: goodWeather()}
	svc := newTestService(store, &fakeAirQuality{}, weather, &fakePredictor{})

	resp := svc.Snapshot(context.Background(), nil, nil)

	assert.Equal(t, 44.1292, resp.Location.Latitude)
	assert.Equal(t, -121.7689, resp.Location.Longitude)
	assert.Equal(t, 44.1292, weather.lastLat)
	assert.Equal(t, -121.7689, weather.lastLon)
}

func TestSnapshot_SensorsMarshalAsEmptyArray(t *testing.T) {
	store := &fakeStore{err: errors.New("down")}
	svc := newTestService(store, &fakeAirQuality{}, &fakeWeather{obs: goodWeather()}, &fakePredictor{})

	resp := svc.Snapshot(context.Background(), nil, nil)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sensors":[]`)
}

func TestListSensors_BoundingBoxTakesPrecedence(t *testing.T) {
	store := &fakeStore{sensors: []domain.Sensor{{ID: 1}, {ID: 2}}}
	svc := newTestService(store, &fakeAirQuality{}, &fakeWeather{}, &fakePredictor{})

	resp := svc.ListSensors(context.Background(), SensorQuery{
		Bounds: &domain.BoundingBox{MinLat: 44, MinLon: -122, MaxLat: 45, MaxLon: -121},
		Lat:    ptr(44.5),
		Lon:    ptr(-121.5),
	})

	assert.Equal(t, "in_bounds", store.calledWith)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, frozenRFC3339, resp.Timestamp)
	assert.Empty(t, resp.Error)
}

func TestListSensors_PointUses50KmRadius(t *testing.T) {
	store := &fakeStore{sensors: []domain.Sensor{{ID: 3}}}
	svc := newTestService(store, &fakeAirQuality{}, &fakeWeather{}, &fakePredictor{})

	resp := svc.ListSensors(context.Background(), SensorQuery{Lat: ptr(44.5), Lon: ptr(-121.5)})

	assert.Equal(t, "near", store.calledWith)
	assert.Equal(t, listRadiusKm, store.nearRadius)
	assert.Equal(t, 1, resp.Count)
}

func TestListSensors_NoParamsListsAll(t *testing.T) {
	store := &fakeStore{sensors: []domain.Sensor{{ID: 1}, {ID: 2}, {ID: 3}}}
	svc := newTestService(store, &fakeAirQuality{}, &fakeWeather{}, &fakePredictor{})

	resp := svc.ListSensors(context.Background(), SensorQuery{})

	assert.Equal(t, "all", store.calledWith)
	assert.Equal(t, 3, resp.Count)
}

func TestListSensors_StoreFailureReturnsEmptyListWithError(t *testing.T) {
	store := &fakeStore{err: domain.NewSourceError(domain.KindStore, "store", errors.New("no connection"))}
	svc := newTestService(store, &fakeAirQuality{}, &fakeWeather{}, &fakePredictor{})

	resp := svc.ListSensors(context.Background(), SensorQuery{})

	require.NotNil(t, resp.Sensors)
	assert.Empty(t, resp.Sensors)
	assert.Equal(t, 0, resp.Count)
	assert.Contains(t, resp.Error, "failed to fetch sensors")
	assert.Equal(t, frozenRFC3339, resp.Timestamp)
}

func TestPredictRisk_Success(t *testing.T) {
	weather := &fakeWeather{obs: domain.WeatherObservation{Temperature: 100, Humidity: 10, WindSpeed: 30, WindDirection: 180}}
	predictor := &fakePredictor{probability: 0.85}
	svc := newTestService(&fakeStore{}, &fakeAirQuality{}, weather, predictor)

	resp := svc.PredictRisk(context.Background(), 44.1, -121.7)

	require.Empty(t, resp.Error)
	require.NotNil(t, resp.Risk)
	assert.Equal(t, 0.85, resp.Risk.Probability)
	assert.Equal(t, "EXTREME", resp.Risk.Level)
	assert.Equal(t, domain.TierExtreme.Description(), resp.Risk.Description)

	require.NotNil(t, resp.WeatherConditions)
	assert.Equal(t, 100.0, resp.WeatherConditions.Temperature)

	require.NotNil(t, resp.ModelInputs)
	assert.Equal(t, float32(0.0), resp.ModelInputs.Precipitation)
	// ((100-32)/100 + (1-0.10)) * 50 = 79
	assert.InDelta(t, 79.0, resp.ModelInputs.DroughtIndex, 1e-3)

	assert.Equal(t, 44.1, resp.Location.Latitude)
	assert.Equal(t, frozenRFC3339, resp.Timestamp)
}

func TestPredictRisk_WeatherFailureShortCircuits(t *testing.T) {
	weather := &fakeWeather{err: domain.NewStatusError("openweather", 502)}
	predictor := &fakePredictor{probability: 0.9}
	svc := newTestService(&fakeStore{}, &fakeAirQuality{}, weather, predictor)

	resp := svc.PredictRisk(context.Background(), 44.1, -121.7)

	assert.False(t, predictor.called, "model must not run when the weather stage fails")
	assert.Nil(t, resp.Risk)
	assert.Nil(t, resp.WeatherConditions)
	assert.Nil(t, resp.ModelInputs)
	assert.Contains(t, resp.Error, "weather")
	assert.Equal(t, 44.1, resp.Location.Latitude)
	assert.Equal(t, -121.7, resp.Location.Longitude)
}

func TestPredictRisk_InferenceFailure(t *testing.T) {
	weather := &fakeWeather{obs: goodWeather()}
	predictor := &fakePredictor{err: domain.NewSourceError(domain.KindInference, "risk_model", errors.New("engine not loaded"))}
	svc := newTestService(&fakeStore{}, &fakeAirQuality{}, weather, predictor)

	resp := svc.PredictRisk(context.Background(), 44.1, -121.7)

	assert.Nil(t, resp.Risk)
	assert.Contains(t, resp.Error, "risk prediction")
}

func TestPredictRisk_FeaturesDerivedFromObservation(t *testing.T) {
	weather := &fakeWeather{obs: domain.WeatherObservation{Temperature: 90, Humidity: 30, WindSpeed: 12, WindDirection: 90}}
	predictor := &fakePredictor{probability: 0.3}
	svc := newTestService(&fakeStore{}, &fakeAirQuality{}, weather, predictor)

	_ = svc.PredictRisk(context.Background(), 44.1, -121.7)

	require.True(t, predictor.called)
	assert.Equal(t, float32(90), predictor.lastInput.Temperature)
	assert.Equal(t, float32(30), predictor.lastInput.Humidity)
	assert.Equal(t, float32(12), predictor.lastInput.WindSpeed)
	assert.Equal(t, float32(0), predictor.lastInput.Precipitation)
	assert.InDelta(t, 64.0, predictor.lastInput.DroughtIndex, 1e-3)
}

func TestLegacyStatus_BothSucceed(t *testing.T) {
	air := &fakeAirQuality{sample: domain.AirQualitySample{AQI: 31, Category: "Good"}}
	weather := &fakeWeather{obs: goodWeather()}
	svc := newTestService(&fakeStore{}, air, weather, &fakePredictor{})

	resp := svc.LegacyStatus(context.Background(), "97601")

	require.NotNil(t, resp.AQI)
	assert.Equal(t, 31, *resp.AQI)
	assert.Equal(t, "Good", resp.AQICategory)
	require.NotNil(t, resp.Temperature)
	assert.Equal(t, 88.3, *resp.Temperature)
	assert.Empty(t, resp.Error)

	assert.Equal(t, "97601", air.lastZip)
	assert.Equal(t, legacyLatitude, weather.lastLat, "legacy weather coordinate is fixed regardless of zip")
	assert.Equal(t, legacyLongitude, weather.lastLon)

	data, err := json.Marshal(resp)
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"error"`)
}

func TestLegacyStatus_AirQualityFailure(t *testing.T) {
	air := &fakeAirQuality{err: domain.NewStatusError("airnow", 500)}
	weather := &fakeWeather{obs: goodWeather()}
	svc := newTestService(&fakeStore{}, air, weather, &fakePredictor{})

	resp := svc.LegacyStatus(context.Background(), "97601")

	assert.Nil(t, resp.AQI)
	require.NotNil(t, resp.Temperature)
	assert.Contains(t, resp.Error, "air quality")
}

func TestLegacyStatus_WeatherFailure(t *testing.T) {
	air := &fakeAirQuality{sample: domain.AirQualitySample{AQI: 31, Category: "Good"}}
	weather := &fakeWeather{err: domain.NewSourceError(domain.KindNetwork, "openweather", errors.New("unreachable"))}
	svc := newTestService(&fakeStore{}, air, weather, &fakePredictor{})

	resp := svc.LegacyStatus(context.Background(), "97601")

	require.NotNil(t, resp.AQI)
	assert.Nil(t, resp.Temperature)
	assert.Contains(t, resp.Error, "weather")
}

func TestCheckReadiness(t *testing.T) {
	healthy := &fakeStore{}
	svc := newTestService(healthy, &fakeAirQuality{}, &fakeWeather{}, &fakePredictor{})
	assert.NoError(t, svc.CheckReadiness(context.Background()))

	down := &fakeStore{pingErr: errors.New("connection refused")}
	svc = newTestService(down, &fakeAirQuality{}, &fakeWeather{}, &fakePredictor{})
	assert.Error(t, svc.CheckReadiness(context.Background()))
}
