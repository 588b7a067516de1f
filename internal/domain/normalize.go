package domain

import (
	"strings"
	"time"
)

// ExpiresLayout renders alert expiry times for display.
const ExpiresLayout = "Jan 2, 2006 3:04 PM MST"

var (
	// severityLabels is an identity table; it exists so that every known
	// severity has an explicit entry and unknown ones take the fallback path.
	severityLabels = map[string]Severity{
		"Extreme":  SeverityExtreme,
		"Severe":   SeveritySevere,
		"Moderate": SeverityModerate,
		"Minor":    SeverityMinor,
		"Unknown":  SeverityUnknown,
	}

	urgencyGuidance = map[string]string{
		string(UrgencyImmediate): "Take action immediately",
		string(UrgencyExpected):  "Take action soon",
		string(UrgencyFuture):    "Take action in the near future",
		string(UrgencyPast):      "No longer active",
		string(UrgencyUnknown):   "Unknown urgency",
	}
)

// NormalizeAlert converts an upstream alert into its canonical form.
// It never fails: missing fields become empty strings or an empty area list.
func NormalizeAlert(raw RawAlert) NormalizedAlert {
	return NormalizedAlert{
		ID:          raw.ID,
		Event:       raw.Event,
		Headline:    raw.Headline,
		Description: raw.Description,
		Instruction: raw.Instruction,
		AreaDesc:    raw.AreaDesc,
		Areas:       splitAreas(raw.AreaDesc),
		Severity:    normalizeSeverity(raw.Severity),
		Urgency:     normalizeUrgency(raw.Urgency),
		Expires:     formatExpires(raw.Expires),
		Status:      raw.Status,
	}
}

// NormalizeAlerts normalizes each alert, preserving order.
func NormalizeAlerts(raws []RawAlert) []NormalizedAlert {
	out := make([]NormalizedAlert, 0, len(raws))
	for _, raw := range raws {
		out = append(out, NormalizeAlert(raw))
	}
	return out
}

// splitAreas splits an NWS area description on "," and ";", trimming and
// lower-casing each segment and dropping empty ones.
func splitAreas(areaDesc string) []string {
	segments := strings.FieldsFunc(areaDesc, func(r rune) bool {
		return r == ',' || r == ';'
	})
	areas := make([]string, 0, len(segments))
	for _, seg := range segments {
		seg = strings.ToLower(strings.TrimSpace(seg))
		if seg != "" {
			areas = append(areas, seg)
		}
	}
	return areas
}

func normalizeSeverity(value string) Severity {
	value = strings.TrimSpace(value)
	if value == "" {
		return SeverityUnknown
	}
	if s, ok := severityLabels[value]; ok {
		return s
	}
	return Severity(value)
}

func normalizeUrgency(value string) string {
	value = strings.TrimSpace(value)
	if guidance, ok := urgencyGuidance[value]; ok {
		return guidance
	}
	return value
}

// formatExpires renders an RFC 3339 timestamp in UTC for display. Values that
// do not parse are returned unchanged.
func formatExpires(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return value
	}
	return t.UTC().Format(ExpiresLayout)
}
