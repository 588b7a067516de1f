package monitor

import (
	"sync"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
)

// ReportStore holds the latest report per site, shared by the refresh loop
// and the API service.
type ReportStore struct {
	mu      sync.RWMutex
	reports map[string]domain.SiteReport
}

func NewReportStore() *ReportStore {
	return &ReportStore{reports: make(map[string]domain.SiteReport)}
}

func (s *ReportStore) Get(siteID string) (domain.SiteReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.reports[siteID]
	return r, ok
}

func (s *ReportStore) Put(reports ...domain.SiteReport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range reports {
		s.reports[r.SiteID] = r
	}
}

func (s *ReportStore) Delete(siteID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, siteID)
}
