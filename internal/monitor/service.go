package monitor

import (
	"context"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
)

// DefaultSnapshotLimit bounds snapshot history queries.
const DefaultSnapshotLimit = 96

// Service answers dashboard queries. Reports come from the shared store
// while fresh and are recomputed on demand once stale.
type Service struct {
	sites     SiteStore
	snapshots SnapshotStore
	assessor  *Assessor
	reports   *ReportStore
	staleness time.Duration
}

// NewService creates a Service. A zero staleness uses domain.DefaultStaleness.
func NewService(sites SiteStore, snapshots SnapshotStore, assessor *Assessor, reports *ReportStore, staleness time.Duration) *Service {
	if staleness <= 0 {
		staleness = domain.DefaultStaleness
	}
	return &Service{
		sites:     sites,
		snapshots: snapshots,
		assessor:  assessor,
		reports:   reports,
		staleness: staleness,
	}
}

func (s *Service) ListSites(ctx context.Context) ([]domain.Site, error) {
	return s.sites.ListSites(ctx)
}

func (s *Service) GetSite(ctx context.Context, id string) (domain.Site, error) {
	return s.sites.GetSite(ctx, id)
}

// CreateSite validates and stores a new site.
func (s *Service) CreateSite(ctx context.Context, site domain.Site) (domain.Site, error) {
	if err := domain.ValidateSite(site); err != nil {
		return domain.Site{}, err
	}
	return s.sites.CreateSite(ctx, site)
}

// UpdateSite applies a partial update and validates the result.
func (s *Service) UpdateSite(ctx context.Context, id string, update domain.SiteUpdate) (domain.Site, error) {
	if update.Empty() {
		return domain.Site{}, fmt.Errorf("%w: no fields to update", domain.ErrInvalidSite)
	}
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return domain.Site{}, err
	}
	site = update.Apply(site)
	if err := domain.ValidateSite(site); err != nil {
		return domain.Site{}, err
	}
	updated, err := s.sites.UpdateSite(ctx, site)
	if err != nil {
		return domain.Site{}, err
	}
	s.reports.Delete(id)
	return updated, nil
}

func (s *Service) DeleteSite(ctx context.Context, id string) error {
	if err := s.sites.DeleteSite(ctx, id); err != nil {
		return err
	}
	s.reports.Delete(id)
	return nil
}

// SiteAlerts returns the alerts currently matched to a site.
func (s *Service) SiteAlerts(ctx context.Context, id string) (domain.SiteAlertAssociation, error) {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return domain.SiteAlertAssociation{}, err
	}
	report := s.report(ctx, site)
	return domain.SiteAlertAssociation{Site: site, Matches: report.Matches}, nil
}

// SiteRisk returns the current report for a site.
func (s *Service) SiteRisk(ctx context.Context, id string) (domain.SiteReport, error) {
	site, err := s.sites.GetSite(ctx, id)
	if err != nil {
		return domain.SiteReport{}, err
	}
	return s.report(ctx, site), nil
}

// AllRisks returns a current report for every site. Stale sites are assessed
// together so they share one alert pool.
func (s *Service) AllRisks(ctx context.Context) ([]domain.SiteReport, error) {
	sites, err := s.sites.ListSites(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.SiteReport, len(sites))
	var (
		stale      []domain.Site
		staleIndex []int
	)
	for i, site := range sites {
		if r, ok := s.fresh(site); ok {
			out[i] = r
			continue
		}
		stale = append(stale, site)
		staleIndex = append(staleIndex, i)
	}

	if len(stale) > 0 {
		reports := s.assessor.Assess(ctx, stale)
		s.reports.Put(reports...)
		for j, r := range reports {
			out[staleIndex[j]] = r
		}
	}
	return out, nil
}

// SiteSnapshots returns the most recent snapshots for a site.
func (s *Service) SiteSnapshots(ctx context.Context, id string, limit int) ([]domain.WeatherSnapshot, error) {
	if _, err := s.sites.GetSite(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultSnapshotLimit
	}
	return s.snapshots.ListSnapshots(ctx, id, limit)
}

func (s *Service) report(ctx context.Context, site domain.Site) domain.SiteReport {
	if r, ok := s.fresh(site); ok {
		return r
	}
	r := s.assessor.Assess(ctx, []domain.Site{site})[0]
	s.reports.Put(r)
	return r
}

// fresh returns the stored report if it is within the staleness threshold
// and newer than the site's last edit.
func (s *Service) fresh(site domain.Site) (domain.SiteReport, bool) {
	r, ok := s.reports.Get(site.ID)
	if !ok {
		return domain.SiteReport{}, false
	}
	if domain.IsStale(r.AssessedAt, domain.Now(), s.staleness) || site.UpdatedAt.After(r.AssessedAt) {
		return domain.SiteReport{}, false
	}
	return r, true
}
