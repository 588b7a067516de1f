package nws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserAgent = "site-risk-test (test@example.com)"

const activeAlertsBody = `{
  "type": "FeatureCollection",
  "features": [
    {
      "id": "https://api.weather.gov/alerts/urn:oid:1",
      "properties": {
        "id": "urn:oid:1",
        "areaDesc": "Travis, TX; Hays, TX",
        "severity": "Severe",
        "urgency": "Immediate",
        "event": "Severe Thunderstorm Warning",
        "headline": "Severe Thunderstorm Warning issued April 26",
        "description": "Hail up to golf ball size.",
        "instruction": null,
        "expires": "2024-04-26T23:15:00-05:00",
        "status": "Actual"
      }
    },
    {
      "id": "https://api.weather.gov/alerts/urn:oid:2",
      "properties": {
        "areaDesc": "Travis, TX",
        "severity": "Minor",
        "event": "Wind Advisory"
      }
    }
  ]
}`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(baseURL, testUserAgent, 5*time.Second, observability.NewMetricsForTesting(), discardLogger())
}

func TestClient_FetchAlerts_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/alerts/active", r.URL.Path)
		assert.Equal(t, "30.2672,-97.7431", r.URL.Query().Get("point"))
		assert.Equal(t, testUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/geo+json", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "application/geo+json")
		_, _ = io.WriteString(w, activeAlertsBody)
	}))
	defer srv.Close()

	alerts, err := testClient(srv.URL).FetchAlerts(context.Background(), 30.26718, -97.74306)
	require.NoError(t, err)
	require.Len(t, alerts, 2)

	first := alerts[0]
	assert.Equal(t, "urn:oid:1", first.ID)
	assert.Equal(t, "Travis, TX; Hays, TX", first.AreaDesc)
	assert.Equal(t, "Severe", first.Severity)
	assert.Equal(t, "Immediate", first.Urgency)
	assert.Equal(t, "Severe Thunderstorm Warning", first.Event)
	assert.Empty(t, first.Instruction)
	assert.Equal(t, "2024-04-26T23:15:00-05:00", first.Expires)

	// Properties without an id fall back to the feature id.
	assert.Equal(t, "https://api.weather.gov/alerts/urn:oid:2", alerts[1].ID)
}

func TestClient_FetchAlerts_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"type":"FeatureCollection","features":[]}`)
	}))
	defer srv.Close()

	alerts, err := testClient(srv.URL).FetchAlerts(context.Background(), 30, -97)
	require.NoError(t, err)
	assert.NotNil(t, alerts)
	assert.Empty(t, alerts)
}

func TestClient_FetchAlerts_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"title":"Missing User-Agent"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchAlerts(context.Background(), 30, -97)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 403")
	assert.Contains(t, err.Error(), "Missing User-Agent")
}

func TestClient_FetchAlerts_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{not json`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).FetchAlerts(context.Background(), 30, -97)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_FetchAlerts_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"features":[]}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testClient(srv.URL).FetchAlerts(ctx, 30, -97)
	require.Error(t, err)
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient("", testUserAgent, time.Second, observability.NewMetricsForTesting(), discardLogger())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}
