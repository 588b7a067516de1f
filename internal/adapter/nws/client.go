package nws

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/couchcryptid/storm-site-risk/internal/observability"
)

// DefaultBaseURL is the public National Weather Service API.
const DefaultBaseURL = "https://api.weather.gov"

// Client implements domain.AlertSource using the NWS active alerts API.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an NWS alerts client. The API rejects requests without a
// User-Agent, so userAgent should identify the operator.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchAlerts returns the active alerts whose area contains (lat, lon).
func (c *Client) FetchAlerts(ctx context.Context, lat, lon float64) ([]domain.RawAlert, error) {
	params := url.Values{
		"point": {fmt.Sprintf("%.4f,%.4f", lat, lon)},
	}
	fullURL := c.baseURL + "/alerts/active?" + params.Encode()

	start := time.Now()
	alerts, err := c.doRequest(ctx, fullURL)
	c.metrics.AlertFetchDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.AlertFetches.WithLabelValues("error").Inc()
		return nil, err
	case len(alerts) == 0:
		c.metrics.AlertFetches.WithLabelValues("empty").Inc()
	default:
		c.metrics.AlertFetches.WithLabelValues("success").Inc()
		c.metrics.AlertsFetched.Add(float64(len(alerts)))
	}

	c.logger.Debug("fetched alerts", "lat", lat, "lon", lon, "count", len(alerts))
	return alerts, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.RawAlert, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/geo+json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nws alerts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("nws API error: status %d: %s", resp.StatusCode, body)
	}

	var collection featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&collection); err != nil {
		return nil, fmt.Errorf("nws decode response: %w", err)
	}

	alerts := make([]domain.RawAlert, 0, len(collection.Features))
	for _, f := range collection.Features {
		alert := f.Properties
		if alert.ID == "" {
			alert.ID = f.ID
		}
		alerts = append(alerts, alert)
	}
	return alerts, nil
}

// NWS API response types.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	ID         string          `json:"id"`
	Properties domain.RawAlert `json:"properties"`
}
