package domain

// Severity is the CAP alert severity. Values outside the known set are kept
// as-is so newer upstream values survive a round trip.
type Severity string

const (
	SeverityExtreme  Severity = "Extreme"
	SeveritySevere   Severity = "Severe"
	SeverityModerate Severity = "Moderate"
	SeverityMinor    Severity = "Minor"
	SeverityUnknown  Severity = "Unknown"
)

// rank orders severities for comparison. Unrecognized values rank with Unknown.
func (s Severity) rank() int {
	switch s {
	case SeverityExtreme:
		return 4
	case SeveritySevere:
		return 3
	case SeverityModerate:
		return 2
	case SeverityMinor:
		return 1
	default:
		return 0
	}
}

// Urgency is the CAP alert urgency as supplied upstream.
type Urgency string

const (
	UrgencyImmediate Urgency = "Immediate"
	UrgencyExpected  Urgency = "Expected"
	UrgencyFuture    Urgency = "Future"
	UrgencyPast      Urgency = "Past"
	UrgencyUnknown   Urgency = "Unknown"
)

// RawAlert is one alert as decoded from the upstream alert source.
type RawAlert struct {
	ID          string `json:"id"`
	AreaDesc    string `json:"areaDesc"`
	Severity    string `json:"severity"`
	Urgency     string `json:"urgency"`
	Event       string `json:"event"`
	Headline    string `json:"headline"`
	Description string `json:"description"`
	Instruction string `json:"instruction,omitempty"`
	Expires     string `json:"expires"`
	Status      string `json:"status"`
}

// NormalizedAlert is the canonical alert form used by matching and scoring.
//
// Areas holds the lower-cased place names split out of AreaDesc; AreaDesc is
// retained verbatim for display. Urgency holds the action-guidance phrase
// rather than the CAP keyword.
type NormalizedAlert struct {
	ID          string   `json:"id"`
	Event       string   `json:"event"`
	Headline    string   `json:"headline"`
	Description string   `json:"description"`
	Instruction string   `json:"instruction,omitempty"`
	AreaDesc    string   `json:"area_desc"`
	Areas       []string `json:"areas"`
	Severity    Severity `json:"severity"`
	Urgency     string   `json:"urgency"`
	Expires     string   `json:"expires"`
	Status      string   `json:"status"`
}

// dedupeKey identifies the same alert across per-site queries.
type dedupeKey struct {
	event    string
	headline string
}

func (a NormalizedAlert) key() dedupeKey {
	return dedupeKey{event: a.Event, headline: a.Headline}
}
