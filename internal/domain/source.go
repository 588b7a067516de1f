package domain

import "context"

// AlertSource fetches the active alerts covering a point.
type AlertSource interface {
	// FetchAlerts returns the raw alerts whose area includes (lat, lon).
	// An empty result is not an error.
	FetchAlerts(ctx context.Context, lat, lon float64) ([]RawAlert, error)
}
