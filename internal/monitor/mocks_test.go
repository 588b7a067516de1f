package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/couchcryptid/storm-site-risk/internal/observability"
)

// --- mocks ---

type memSites struct {
	mu      sync.Mutex
	order   []string
	sites   map[string]domain.Site
	listErr error
	nextID  int
}

func newMemSites(sites ...domain.Site) *memSites {
	m := &memSites{sites: make(map[string]domain.Site)}
	for _, s := range sites {
		m.order = append(m.order, s.ID)
		m.sites[s.ID] = s
	}
	return m
}

func (m *memSites) ListSites(context.Context) ([]domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]domain.Site, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.sites[id])
	}
	return out, nil
}

func (m *memSites) GetSite(_ context.Context, id string) (domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sites[id]
	if !ok {
		return domain.Site{}, domain.ErrSiteNotFound
	}
	return s, nil
}

func (m *memSites) CreateSite(_ context.Context, site domain.Site) (domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	site.ID = fmt.Sprintf("new-%d", m.nextID)
	site.CreatedAt = domain.Now()
	site.UpdatedAt = site.CreatedAt
	m.order = append(m.order, site.ID)
	m.sites[site.ID] = site
	return site, nil
}

func (m *memSites) UpdateSite(_ context.Context, site domain.Site) (domain.Site, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[site.ID]; !ok {
		return domain.Site{}, domain.ErrSiteNotFound
	}
	site.UpdatedAt = domain.Now()
	m.sites[site.ID] = site
	return site, nil
}

func (m *memSites) DeleteSite(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sites[id]; !ok {
		return domain.ErrSiteNotFound
	}
	delete(m.sites, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

type memSnapshots struct {
	mu    sync.Mutex
	saved []domain.WeatherSnapshot
	err   error
}

func (m *memSnapshots) SaveSnapshot(_ context.Context, snap domain.WeatherSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, snap)
	return nil
}

func (m *memSnapshots) ListSnapshots(_ context.Context, siteID string, limit int) ([]domain.WeatherSnapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.WeatherSnapshot{}
	for i := len(m.saved) - 1; i >= 0 && len(out) < limit; i-- {
		if m.saved[i].SiteID == siteID {
			out = append(out, m.saved[i])
		}
	}
	return out, nil
}

func (m *memSnapshots) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

// recordingPublisher fails the first failures calls, then records batches.
type recordingPublisher struct {
	mu       sync.Mutex
	failures int
	calls    int
	batches  [][]domain.SiteReport
}

func (p *recordingPublisher) LoadBatch(_ context.Context, reports []domain.SiteReport) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.calls <= p.failures {
		return errors.New("broker unavailable")
	}
	p.batches = append(p.batches, reports)
	return nil
}

func (p *recordingPublisher) batchCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

// stubSource serves alerts keyed by the two-decimal centroid.
type stubSource struct {
	alerts   map[string][]domain.RawAlert
	failures map[string]error
	delay    time.Duration
	calls    atomic.Int64
	inFlight atomic.Int64
	maxSeen  atomic.Int64
}

func (s *stubSource) FetchAlerts(ctx context.Context, lat, lon float64) ([]domain.RawAlert, error) {
	s.calls.Add(1)
	n := s.inFlight.Add(1)
	defer s.inFlight.Add(-1)
	for {
		seen := s.maxSeen.Load()
		if n <= seen || s.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	key := fmt.Sprintf("%.2f,%.2f", lat, lon)
	if err, ok := s.failures[key]; ok {
		return nil, err
	}
	return s.alerts[key], nil
}

// --- fixtures ---

const (
	austinKey = "30.27,-97.74"
	dallasKey = "32.75,-96.75"
)

func austinSite() domain.Site {
	return domain.Site{
		ID:          "austin",
		Name:        "Austin Solar Farm",
		Description: "Panels along the Travis County line",
		Type:        domain.SiteTypeSolarArray,
		Coordinates: []domain.Coordinate{
			{Lon: -97.75, Lat: 30.26},
			{Lon: -97.73, Lat: 30.26},
			{Lon: -97.73, Lat: 30.28},
			{Lon: -97.75, Lat: 30.28},
		},
	}
}

func dallasSite() domain.Site {
	return domain.Site{
		ID:          "dallas",
		Name:        "Dallas Wind",
		Description: "Turbines on the North Dallas County ridge",
		Type:        domain.SiteTypeWindFarm,
		Coordinates: []domain.Coordinate{
			{Lon: -96.8, Lat: 32.7},
			{Lon: -96.7, Lat: 32.7},
			{Lon: -96.7, Lat: 32.8},
			{Lon: -96.8, Lat: 32.8},
		},
	}
}

func floodWarning() domain.RawAlert {
	return domain.RawAlert{
		ID:       "urn:oid:flood",
		Event:    "Flood Warning",
		Headline: "Flood Warning issued for Travis County",
		AreaDesc: "Travis County; Hays",
		Severity: "Moderate",
		Urgency:  "Expected",
	}
}

func thunderstormWarning() domain.RawAlert {
	return domain.RawAlert{
		ID:       "urn:oid:storm",
		Event:    "Severe Thunderstorm Warning",
		Headline: "Severe Thunderstorm Warning issued for Dallas County",
		AreaDesc: "Dallas County",
		Severity: "Severe",
		Urgency:  "Immediate",
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}
