package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/couchcryptid/storm-site-risk/internal/observability"
	"github.com/robfig/cron/v3"
)

// SiteStore reads and writes monitored sites.
type SiteStore interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
	GetSite(ctx context.Context, id string) (domain.Site, error)
	CreateSite(ctx context.Context, site domain.Site) (domain.Site, error)
	UpdateSite(ctx context.Context, site domain.Site) (domain.Site, error)
	DeleteSite(ctx context.Context, id string) error
}

// SnapshotStore persists report summaries.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap domain.WeatherSnapshot) error
	ListSnapshots(ctx context.Context, siteID string, limit int) ([]domain.WeatherSnapshot, error)
}

// ReportPublisher writes site reports to the downstream topic.
type ReportPublisher interface {
	LoadBatch(ctx context.Context, reports []domain.SiteReport) error
}

const (
	initialBackoff = 200 * time.Millisecond
	maxBackoff     = 5 * time.Second
)

// Options tunes the refresh loop.
type Options struct {
	Schedule       string // cron spec, e.g. "@every 15m"
	PublishRetries int
}

// Monitor periodically assesses every site and publishes the reports.
type Monitor struct {
	sites     SiteStore
	snapshots SnapshotStore
	publisher ReportPublisher
	assessor  *Assessor
	reports   *ReportStore
	logger    *slog.Logger
	metrics   *observability.Metrics
	opts      Options
	backoff   time.Duration
	ready     atomic.Bool
}

// New creates a Monitor with the given collaborators and observability.
func New(sites SiteStore, snapshots SnapshotStore, publisher ReportPublisher, assessor *Assessor, reports *ReportStore, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Monitor {
	if opts.PublishRetries < 1 {
		opts.PublishRetries = 1
	}
	return &Monitor{
		sites:     sites,
		snapshots: snapshots,
		publisher: publisher,
		assessor:  assessor,
		reports:   reports,
		logger:    logger,
		metrics:   metrics,
		opts:      opts,
		backoff:   initialBackoff,
	}
}

// CheckReadiness returns nil once a refresh has completed, or an error
// describing why the service is not yet ready.
func (m *Monitor) CheckReadiness(_ context.Context) error {
	if !m.ready.Load() {
		return errors.New("monitor has not completed a refresh yet")
	}
	return nil
}

// Run refreshes immediately, then on the configured schedule until the
// context is cancelled. Overlapping runs are skipped.
func (m *Monitor) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(m.opts.Schedule, func() { m.refreshAndLog(ctx) }); err != nil {
		return fmt.Errorf("schedule refresh %q: %w", m.opts.Schedule, err)
	}

	m.logger.Info("monitor started", "schedule", m.opts.Schedule)
	m.metrics.MonitorRunning.Set(1)
	defer m.metrics.MonitorRunning.Set(0)

	m.refreshAndLog(ctx)

	c.Start()
	<-ctx.Done()
	m.logger.Info("monitor stopping", "reason", ctx.Err())
	<-c.Stop().Done()
	return nil
}

func (m *Monitor) refreshAndLog(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := m.Refresh(ctx); err != nil && ctx.Err() == nil {
		m.logger.Error("refresh failed", "error", err)
	}
}

// Refresh runs one fetch-assess-publish cycle over all sites.
func (m *Monitor) Refresh(ctx context.Context) error {
	start := time.Now()
	m.metrics.Refreshes.Inc()

	sites, err := m.sites.ListSites(ctx)
	if err != nil {
		m.metrics.RefreshErrors.Inc()
		return fmt.Errorf("list sites: %w", err)
	}

	reports := m.assessor.Assess(ctx, sites)
	m.reports.Put(reports...)
	for _, r := range reports {
		m.metrics.SitesAssessed.Inc()
		m.metrics.RiskLevel.Observe(float64(r.Risk.RiskLevel))
	}

	m.saveSnapshots(ctx, reports)

	if err := m.publish(ctx, reports); err != nil {
		m.metrics.RefreshErrors.Inc()
		return err
	}

	m.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	m.ready.Store(true)
	m.logger.Info("refresh complete", "sites", len(sites), "duration", time.Since(start))
	return nil
}

// saveSnapshots records every report. Failures are logged and skipped.
func (m *Monitor) saveSnapshots(ctx context.Context, reports []domain.SiteReport) {
	for _, r := range reports {
		if err := m.snapshots.SaveSnapshot(ctx, r.Snapshot()); err != nil {
			m.logger.Warn("save snapshot failed", "site_id", r.SiteID, "error", err)
		}
	}
}

// publish writes the batch, retrying with exponential backoff.
func (m *Monitor) publish(ctx context.Context, reports []domain.SiteReport) error {
	if len(reports) == 0 {
		return nil
	}

	backoff := m.backoff
	var err error
	for attempt := 1; attempt <= m.opts.PublishRetries; attempt++ {
		if err = m.publisher.LoadBatch(ctx, reports); err == nil {
			m.metrics.ReportsPublished.Add(float64(len(reports)))
			return nil
		}
		m.logger.Error("publish reports failed", "error", err, "attempt", attempt, "batch_size", len(reports))

		if attempt == m.opts.PublishRetries {
			break
		}
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return fmt.Errorf("publish %d reports after %d attempts: %w", len(reports), m.opts.PublishRetries, err)
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
