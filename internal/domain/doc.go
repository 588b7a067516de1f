// Package domain correlates National Weather Service (NWS) alerts with
// user-drawn project sites and scores the weather risk of each site.
//
// Everything in this package is pure: no I/O, no shared mutable state apart
// from the swappable clock used to stamp reports. Inputs are already-fetched,
// already-decoded records; malformed fields degrade to empty values instead of
// returning errors, because alert data is inherently partial.
//
// # Data Source
//
// Alerts come from the NWS active alerts API (https://api.weather.gov/alerts/active),
// queried once per site at the site centroid. Each GeoJSON feature carries a
// CAP-style properties object that is decoded into [RawAlert].
//
// # NWS Alert Conventions
//
// Area descriptions:
//
//	"Travis; Williamson; Hays"  or  "Coastal Waters From Port O'Connor, TX"
//	Human-readable place names joined by ";" and sometimes ",".
//	There is no shared key between an area name and a site, so matching is
//	substring based. See [MatchAlertsToSite].
//
// Severity (CAP):
//
//	Extreme > Severe > Moderate > Minor > Unknown
//	Values outside this set are carried through untouched and score as Unknown.
//
// Urgency (CAP):
//
//	Immediate → "Take action immediately"
//	Expected  → "Take action soon"
//	Future    → "Take action in the near future"
//	Past      → "No longer active"
//	Unknown   → "Unknown urgency"
//
// # Centroid
//
// A site's location is the arithmetic mean of its polygon vertices, not the
// area-weighted centroid. Both the alert query point and the coordinate
// matching rules are calibrated against this definition. See [Centroid].
//
// # Risk Scoring
//
// A site's risk level is the highest severity base score among the alerts
// that affect it, weighted by site-type vulnerability and capped at 100:
//
//	Severity:  Extreme 100 | Severe 80 | Moderate 60 | Minor 40 | other 20
//	Site type: wind_farm 1.3 | solar_array 1.2 | hydroelectric 1.1 |
//	           coal, natural_gas, geothermal, biomass 0.9 | nuclear 0.8 | other 1.0
//	Category:  ≥90 extreme | ≥70 severe | ≥50 high | ≥30 moderate | else low
//
// The calculator re-filters its input with its own keyword heuristic, so two
// independent filtering layers sit between raw alerts and a score. Both are
// intentional and must not be merged. See [CalculateSiteRisk].
package domain
