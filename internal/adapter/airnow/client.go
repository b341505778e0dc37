// Package airnow fetches current AQI observations from the AirNow API.
package airnow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/couchcryptid/enviro-risk-service/internal/domain"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

const sourceName = "airnow"

// Client implements air-quality lookups keyed by zip code. Pure
// request/response: no retry, no caching.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an AirNow client. An empty apiKey is allowed at
// construction; calls then fail with a missing-config error.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		apiKey: apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: "https://www.airnowapi.org/aq/observation/zipCode/current/",
		logger:  logger,
		metrics: metrics,
	}
}

// FetchAirQuality returns the first current observation for the zip code's
// reporting area. Each failure mode carries a distinct error kind: network,
// non-2xx status, parse failure, or an empty result set.
func (c *Client) FetchAirQuality(ctx context.Context, zipCode string) (domain.AirQualitySample, error) {
	if c.apiKey == "" {
		return domain.AirQualitySample{}, domain.NewSourceError(
			domain.KindMissingConfig, sourceName, errors.New("AIRNOW_API_KEY is not set"))
	}

	params := url.Values{
		"format":   {"application/json"},
		"zipCode":  {zipCode},
		"distance": {"25"},
		"API_KEY":  {c.apiKey},
	}

	start := time.Now()
	sample, err := c.doRequest(ctx, c.baseURL+"?"+params.Encode())
	c.observe(start, err)
	if err != nil {
		return domain.AirQualitySample{}, err
	}
	return sample, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.AirQualitySample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.AirQualitySample{}, domain.NewSourceError(
			domain.KindNetwork, sourceName, fmt.Errorf("create request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.AirQualitySample{}, domain.NewSourceError(
			domain.KindNetwork, sourceName, fmt.Errorf("request: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.AirQualitySample{}, domain.NewStatusError(sourceName, resp.StatusCode)
	}

	var observations []observation
	if err := json.NewDecoder(resp.Body).Decode(&observations); err != nil {
		return domain.AirQualitySample{}, domain.NewSourceError(
			domain.KindMalformedResponse, sourceName, fmt.Errorf("decode response: %w", err))
	}

	if len(observations) == 0 {
		return domain.AirQualitySample{}, domain.NewSourceError(
			domain.KindNoData, sourceName, errors.New("no air quality data for this zip code"))
	}

	// The first observation is the area's primary reading (PM2.5 or ozone).
	obs := observations[0]
	return domain.AirQualitySample{
		AQI:      obs.AQI,
		Category: obs.Category.Name,
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

// AirNow API response types.

type observation struct {
	AQI           int      `json:"AQI"`
	Category      category `json:"Category"`
	DateObserved  string   `json:"DateObserved"`
	ReportingArea string   `json:"ReportingArea"`
	StateCode     string   `json:"StateCode"`
	Latitude      float64  `json:"Latitude"`
	Longitude     float64  `json:"Longitude"`
}

type category struct {
	Number int    `json:"Number"`
	Name   string `json:"Name"`
}
