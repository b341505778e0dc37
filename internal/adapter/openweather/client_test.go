package openweather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/enviro-risk-service/internal/domain"
	"github.com/couchcryptid/enviro-risk-service/internal/observability"
)

const testAPIKey = "test-api-key"

func testClient(baseURL string) *Client {
	return &Client{
		apiKey:     testAPIKey,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:    observability.NewMetricsForTesting(),
	}
}

func TestFetchWeather_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "44.1292", r.URL.Query().Get("lat"))
		assert.Equal(t, "-121.7689", r.URL.Query().Get("lon"))
		assert.Equal(t, testAPIKey, r.URL.Query().Get("appid"))
		assert.Equal(t, "imperial", r.URL.Query().Get("units"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"main": {"temp": 88.3, "humidity": 22},
			"wind": {"speed": 14.7, "deg": 245},
			"name": "Bend"
		}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	obs, err := c.FetchWeather(context.Background(), 44.1292, -121.7689)
	require.NoError(t, err)

	assert.Equal(t, 88.3, obs.Temperature)
	assert.Equal(t, 22.0, obs.Humidity)
	assert.Equal(t, 14.7, obs.WindSpeed)
	assert.Equal(t, 245.0, obs.WindDirection)
}

func TestFetchWeather_MissingAPIKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("client must not call upstream without an API key")
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.apiKey = ""

	_, err := c.FetchWeather(context.Background(), 44.1, -121.7)
	require.Error(t, err)
	assert.Equal(t, domain.KindMissingConfig, domain.KindOf(err))
	assert.Contains(t, err.Error(), "OPENWEATHER_API_KEY")
}

func TestFetchWeather_UpstreamStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"cod":401,"message":"Invalid API key"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchWeather(context.Background(), 44.1, -121.7)
	require.Error(t, err)
	assert.Equal(t, domain.KindUpstreamStatus, domain.KindOf(err))
	assert.Contains(t, err.Error(), "401")
}

func TestFetchWeather_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`<html>not json</html>`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchWeather(context.Background(), 44.1, -121.7)
	require.Error(t, err)
	assert.Equal(t, domain.KindMalformedResponse, domain.KindOf(err))
}

func TestFetchWeather_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	srv.Close()

	c := testClient(srv.URL)
	_, err := c.FetchWeather(context.Background(), 44.1, -121.7)
	require.Error(t, err)
	assert.Equal(t, domain.KindNetwork, domain.KindOf(err))
}
