// Package openweather fetches current weather observations by coordinate
// from the OpenWeather API.
package openweather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/enviro-risk-service/internal/domain"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

const sourceName = "openweather"

// Client implements weather lookups keyed by coordinate. Observations are
// requested in imperial units (°F, mph) to match the risk model's training
// convention; see the domain package comment. Pure request/response: no
// retry, no caching.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an OpenWeather client. An empty apiKey is allowed at
// construction; calls then fail with a missing-config error.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://api.openweathermap.org/data/2.5/weather",
		logger:  logger,
		metrics: metrics,
	}
}

// FetchWeather returns the current observation at the coordinate.
func (c *Client) FetchWeather(ctx context.Context, lat, lon float64) (domain.WeatherObservation, error) {
	if c.apiKey == "" {
		return domain.WeatherObservation{}, domain.NewSourceError(
			domain.KindMissingConfig, sourceName, errors.New("OPENWEATHER_API_KEY is not set"))
	}

	params := url.Values{
		"lat":   {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":   {strconv.FormatFloat(lon, 'f', -1, 64)},
		"appid": {c.apiKey},
		"units": {"imperial"},
	}

	start := time.Now()
	obs, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.observe(start, err)
	if err != nil {
		return domain.WeatherObservation{}, err
	}
	return obs, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.WeatherObservation, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.WeatherObservation{}, domain.NewSourceError(
			domain.KindNetwork, sourceName, fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.WeatherObservation{}, domain.NewSourceError(
			domain.KindNetwork, sourceName, fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.WeatherObservation{}, domain.NewStatusError(sourceName, resp.StatusCode)
	}

	var weather response
	if err := json.NewDecoder(resp.Body).Decode(&weather); err != nil {
		return domain.WeatherObservation{}, domain.NewSourceError(
			domain.KindMalformedResponse, sourceName, fmt.Errorf("decode response: %w", err))
	}

	return domain.WeatherObservation{
		Temperature:   weather.Main.Temp,
		Humidity:      float64(weather.Main.Humidity),
		WindSpeed:     weather.Wind.Speed,
		WindDirection: weather.Wind.Deg,
	}, nil
}

func (c *Client) observe(start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	c.metrics.UpstreamRequests.With(prometheus.Labels{"source": sourceName, "outcome": outcome}).Inc()
	c.metrics.UpstreamDuration.With(prometheus.Labels{"source": sourceName}).Observe(time.Since(start).Seconds())
}

// OpenWeather API response types (current weather endpoint, subset).

type response struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Name string `json:"name"`
}
