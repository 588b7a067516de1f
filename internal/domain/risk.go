package domain

import (
	"fmt"
	"math"
	"strings"
)

// RiskCategory is a monotonic bucketing of a 0–100 risk level.
type RiskCategory string

const (
	RiskLow      RiskCategory = "low"
	RiskModerate RiskCategory = "moderate"
	RiskHigh     RiskCategory = "high"
	RiskSevere   RiskCategory = "severe"
	RiskExtreme  RiskCategory = "extreme"
)

// MaxRiskLevel caps every computed risk level.
const MaxRiskLevel = 100

// RiskAssessment is the explainable risk score for one site.
type RiskAssessment struct {
	RiskLevel          int          `json:"risk_level"`
	RiskCategory       RiskCategory `json:"risk_category"`
	PrimaryRiskFactors []string     `json:"primary_risk_factors"`
}

var (
	severityBaseScores = map[Severity]int{
		SeverityExtreme:  100,
		SeveritySevere:   80,
		SeverityModerate: 60,
		SeverityMinor:    40,
	}

	siteTypeMultipliers = map[SiteType]float64{
		SiteTypeSolarArray:    1.2,
		SiteTypeWindFarm:      1.3,
		SiteTypeHydroelectric: 1.1,
		SiteTypeCoal:          0.9,
		SiteTypeNaturalGas:    0.9,
		SiteTypeNuclear:       0.8,
		SiteTypeGeothermal:    0.9,
		SiteTypeBiomass:       0.9,
	}

	// regionKeywords mark area names broad enough to be treated as covering
	// any site in the query.
	regionKeywords = []string{"county", "region", "area", "zone"}
)

const (
	unknownSeverityScore = 20
	neutralMultiplier    = 1.0
)

// SeverityBaseScore returns the score contribution of a single alert severity.
// Unknown and unrecognized severities score 20.
func SeverityBaseScore(s Severity) int {
	if score, ok := severityBaseScores[s]; ok {
		return score
	}
	return unknownSeverityScore
}

// SiteTypeMultiplier returns the weather vulnerability weight of a site type.
// Other, empty and unrecognized types weigh 1.0.
func SiteTypeMultiplier(t SiteType) float64 {
	if m, ok := siteTypeMultipliers[t]; ok {
		return m
	}
	return neutralMultiplier
}

// CategorizeRisk buckets a risk level: ≥90 extreme, ≥70 severe, ≥50 high,
// ≥30 moderate, otherwise low.
func CategorizeRisk(level int) RiskCategory {
	switch {
	case level >= 90:
		return RiskExtreme
	case level >= 70:
		return RiskSevere
	case level >= 50:
		return RiskHigh
	case level >= 30:
		return RiskModerate
	default:
		return RiskLow
	}
}

// CalculateSiteRisk scores a site against the alerts passed in.
//
// The alerts are filtered again here, independently of MatchAlertsToSite: an
// alert counts when any of its areas mentions a county, region, area or zone,
// or contains the site centroid latitude or longitude to two decimals. The
// highest severity base score among the survivors is weighted by site type
// and capped at 100. Every surviving alert contributes one factor, in input
// order. No surviving alerts means a low, zero-level assessment.
func CalculateSiteRisk(site Site, alerts []NormalizedAlert) RiskAssessment {
	affecting := affectingAlerts(site, alerts)
	if len(affecting) == 0 {
		return RiskAssessment{RiskLevel: 0, RiskCategory: RiskLow, PrimaryRiskFactors: []string{}}
	}

	maxBase := 0
	factors := make([]string, 0, len(affecting))
	for _, alert := range affecting {
		if score := SeverityBaseScore(alert.Severity); score > maxBase {
			maxBase = score
		}
		factors = append(factors, fmt.Sprintf("%s (%s)", alert.Event, alert.Severity))
	}

	level := int(math.Round(float64(maxBase) * SiteTypeMultiplier(site.Type)))
	if level > MaxRiskLevel {
		level = MaxRiskLevel
	}

	return RiskAssessment{
		RiskLevel:          level,
		RiskCategory:       CategorizeRisk(level),
		PrimaryRiskFactors: factors,
	}
}

// affectingAlerts applies the calculator's own area heuristic. Sites without
// coordinates have no centroid, so only the keyword rule applies to them.
func affectingAlerts(site Site, alerts []NormalizedAlert) []NormalizedAlert {
	hasCentroid := len(site.Coordinates) > 0
	var lat, lng string
	if hasCentroid {
		lat, lng = centroidStrings(site)
	}

	var out []NormalizedAlert
	for _, alert := range alerts {
		for _, area := range alert.Areas {
			if mentionsRegion(area) || (hasCentroid && (strings.Contains(area, lat) || strings.Contains(area, lng))) {
				out = append(out, alert)
				break
			}
		}
	}
	return out
}

func mentionsRegion(area string) bool {
	area = strings.ToLower(area)
	for _, kw := range regionKeywords {
		if strings.Contains(area, kw) {
			return true
		}
	}
	return false
}
