package monitor

import (
	"context"
	"log/slog"
	"sync"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
)

// Assessor turns a set of sites into site reports: one alert fetch per site
// centroid, a shared deduplicated alert pool, then match and score per site.
type Assessor struct {
	source      domain.AlertSource
	concurrency int
	logger      *slog.Logger
}

// NewAssessor creates an Assessor that runs at most concurrency fetches at once.
func NewAssessor(source domain.AlertSource, concurrency int, logger *slog.Logger) *Assessor {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Assessor{source: source, concurrency: concurrency, logger: logger}
}

// Assess builds a report for every site. A failed fetch contributes no
// alerts; it never fails the whole batch.
func (a *Assessor) Assess(ctx context.Context, sites []domain.Site) []domain.SiteReport {
	var pool []domain.NormalizedAlert
	for _, raws := range a.fetchAll(ctx, sites) {
		pool = append(pool, domain.NormalizeAlerts(raws)...)
	}
	pool = domain.DeduplicateAlerts(pool)
	return domain.BuildSiteReports(sites, pool)
}

// fetchAll returns the raw alerts at each site's centroid, indexed like sites.
func (a *Assessor) fetchAll(ctx context.Context, sites []domain.Site) [][]domain.RawAlert {
	results := make([][]domain.RawAlert, len(sites))
	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup

	for i, site := range sites {
		// No polygon, no centroid to query.
		if len(site.Coordinates) == 0 {
			continue
		}

		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
			wg.Wait()
			return results
		}

		wg.Add(1)
		go func(i int, site domain.Site) {
			defer wg.Done()
			defer func() { <-sem }()

			c := domain.SiteCentroid(site)
			alerts, err := a.source.FetchAlerts(ctx, c.Lat, c.Lon)
			if err != nil {
				a.logger.Warn("alert fetch failed, treating as no alerts",
					"site_id", site.ID,
					"lat", c.Lat,
					"lon", c.Lon,
					"error", err,
				)
				return
			}
			results[i] = alerts
		}(i, site)
	}

	wg.Wait()
	return results
}
