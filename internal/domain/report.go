package domain

import "time"

// DefaultStaleness is how old cached alert data may get before a refresh.
const DefaultStaleness = 15 * time.Minute

// SiteReport is the per-site output of one refresh: the alerts matched for
// display, the risk assessment derived from them, and summary fields that
// are persisted as a weather snapshot.
type SiteReport struct {
	SiteID               string         `json:"site_id"`
	SiteName             string         `json:"site_name"`
	SiteType             SiteType       `json:"site_type"`
	Centroid             Coordinate     `json:"centroid"`
	Matches              []MatchedAlert `json:"matches"`
	Risk                 RiskAssessment `json:"risk"`
	HighestAlertSeverity Severity       `json:"highest_alert_severity"`
	AssessedAt           time.Time      `json:"assessed_at"`
}

// AlertCount returns the number of alerts matched to the site.
func (r SiteReport) AlertCount() int {
	return len(r.Matches)
}

// BuildSiteReport matches alerts to the site and scores the matches. The
// matcher's output is the calculator's input, so an alert must pass both
// filters to count towards the risk level.
func BuildSiteReport(site Site, alerts []NormalizedAlert) SiteReport {
	assoc := MatchAlertsToSite(site, alerts)
	matched := assoc.Alerts()

	return SiteReport{
		SiteID:               site.ID,
		SiteName:             site.Name,
		SiteType:             site.Type,
		Centroid:             SiteCentroid(site),
		Matches:              assoc.Matches,
		Risk:                 CalculateSiteRisk(site, matched),
		HighestAlertSeverity: HighestSeverity(matched),
		AssessedAt:           clock.Now().UTC(),
	}
}

// BuildSiteReports builds a report for every site against a shared alert pool.
func BuildSiteReports(sites []Site, alerts []NormalizedAlert) []SiteReport {
	reports := make([]SiteReport, 0, len(sites))
	for _, site := range sites {
		reports = append(reports, BuildSiteReport(site, alerts))
	}
	return reports
}

// HighestSeverity returns the most severe label among alerts, or Unknown when
// there are none. Unrecognized labels rank with Unknown.
func HighestSeverity(alerts []NormalizedAlert) Severity {
	highest := SeverityUnknown
	for _, alert := range alerts {
		if alert.Severity.rank() > highest.rank() {
			highest = alert.Severity
		}
	}
	return highest
}

// IsStale reports whether data fetched at fetchedAt needs refreshing at now.
// Data that was never fetched is always stale.
func IsStale(fetchedAt, now time.Time, threshold time.Duration) bool {
	if fetchedAt.IsZero() {
		return true
	}
	return now.Sub(fetchedAt) > threshold
}

// WeatherSnapshot is the persisted summary of one site report.
type WeatherSnapshot struct {
	SiteID               string       `json:"site_id"`
	HighestAlertSeverity Severity     `json:"highest_alert_severity"`
	RiskLevel            int          `json:"risk_level"`
	RiskCategory         RiskCategory `json:"risk_category"`
	RiskFactors          []string     `json:"risk_factors"`
	AlertCount           int          `json:"alert_count"`
	FetchedAt            time.Time    `json:"fetched_at"`
}

// Snapshot summarizes the report for storage.
func (r SiteReport) Snapshot() WeatherSnapshot {
	return WeatherSnapshot{
		SiteID:               r.SiteID,
		HighestAlertSeverity: r.HighestAlertSeverity,
		RiskLevel:            r.Risk.RiskLevel,
		RiskCategory:         r.Risk.RiskCategory,
		RiskFactors:          r.Risk.PrimaryRiskFactors,
		AlertCount:           r.AlertCount(),
		FetchedAt:            r.AssessedAt,
	}
}
