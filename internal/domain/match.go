package domain

import (
	"fmt"
	"strings"
)

// MatchReason records which heuristic tied an alert to a site.
type MatchReason string

const (
	MatchByName        MatchReason = "name"
	MatchByDescription MatchReason = "description"
	MatchByCoordinates MatchReason = "coordinates"
)

// MatchedAlert is an alert associated with a site, with the area string that
// matched and why.
type MatchedAlert struct {
	Alert  NormalizedAlert `json:"alert"`
	Area   string          `json:"area"`
	Reason MatchReason     `json:"reason"`
}

// SiteAlertAssociation pairs a site with the alerts judged to affect it.
// It is derived per request and never persisted.
type SiteAlertAssociation struct {
	Site    Site           `json:"site"`
	Matches []MatchedAlert `json:"matches"`
}

// Alerts returns the matched alerts in match order.
func (a SiteAlertAssociation) Alerts() []NormalizedAlert {
	alerts := make([]NormalizedAlert, len(a.Matches))
	for i, m := range a.Matches {
		alerts[i] = m.Alert
	}
	return alerts
}

// MatchAlertsToSite selects the alerts whose area names relate to the site.
//
// An area matches when the lower-cased site name contains it or is contained
// in it, when the lower-cased description contains it, or when it contains
// the centroid latitude or longitude formatted to two decimals. The rules are
// textual and knowingly approximate; there is no geographic key linking NWS
// areas to sites. A site without coordinates matches nothing. An empty name
// is contained in every area, so a nameless site matches every alert that has
// at least one area.
func MatchAlertsToSite(site Site, alerts []NormalizedAlert) SiteAlertAssociation {
	assoc := SiteAlertAssociation{Site: site, Matches: []MatchedAlert{}}
	if len(site.Coordinates) == 0 {
		return assoc
	}

	name := strings.ToLower(site.Name)
	description := strings.ToLower(site.Description)
	lat, lng := centroidStrings(site)

	for _, alert := range alerts {
		for _, area := range alert.Areas {
			if reason, ok := matchArea(area, name, description, lat, lng); ok {
				assoc.Matches = append(assoc.Matches, MatchedAlert{Alert: alert, Area: area, Reason: reason})
				break
			}
		}
	}
	return assoc
}

// MatchAlertsToSites runs MatchAlertsToSite for every site. An alert may be
// associated with several sites.
func MatchAlertsToSites(sites []Site, alerts []NormalizedAlert) []SiteAlertAssociation {
	out := make([]SiteAlertAssociation, 0, len(sites))
	for _, site := range sites {
		out = append(out, MatchAlertsToSite(site, alerts))
	}
	return out
}

func matchArea(area, name, description, lat, lng string) (MatchReason, bool) {
	switch {
	case strings.Contains(name, area), strings.Contains(area, name):
		return MatchByName, true
	case strings.Contains(description, area):
		return MatchByDescription, true
	case strings.Contains(area, lat), strings.Contains(area, lng):
		return MatchByCoordinates, true
	default:
		return "", false
	}
}

// centroidStrings formats the site centroid the way both filtering layers
// compare it against area text.
func centroidStrings(site Site) (lat, lng string) {
	c := SiteCentroid(site)
	return fmt.Sprintf("%.2f", c.Lat), fmt.Sprintf("%.2f", c.Lon)
}
