package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mockFixture = filepath.Join("..", "..", "data", "mock", "texas_sites_alerts.json")

// writeReports assesses the mock fixture and stores the reports, optionally
// tampering with them first.
func writeReports(t *testing.T, tamper func([]domain.SiteReport)) string {
	t.Helper()
	var fx fixture
	require.NoError(t, loadJSON(mockFixture, &fx))

	domain.SetClock(clockwork.NewFakeClockAt(assessedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	reports := domain.BuildSiteReports(fx.Sites, domain.DeduplicateAlerts(domain.NormalizeAlerts(fx.Alerts)))
	if tamper != nil {
		tamper(reports)
	}

	data, err := json.Marshal(reports)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "reports.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestRunPassesOnMockFixture(t *testing.T) {
	var buf bytes.Buffer
	code := run(&buf, mockFixture, writeReports(t, nil))

	assert.Equal(t, 0, code, buf.String())
	assert.Contains(t, buf.String(), "All validations passed.")
	assert.Contains(t, buf.String(), "Fixture: 3 sites, 4 alerts")
}

func TestRunDetectsDrift(t *testing.T) {
	path := writeReports(t, func(r []domain.SiteReport) {
		r[0].Risk.RiskLevel = 10
	})

	var buf bytes.Buffer
	code := run(&buf, mockFixture, path)

	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "Report consistency")
	assert.Contains(t, buf.String(), `category "severe", level 10 implies "low"`)
	assert.Contains(t, buf.String(), "differ from a fresh assessment")
}

func TestRunMissingFixture(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, 1, run(&buf, filepath.Join(t.TempDir(), "nope.json"), ""))
	assert.Contains(t, buf.String(), "FATAL")
}

func TestValidateSites(t *testing.T) {
	square := []domain.Coordinate{{Lon: 0, Lat: 0}, {Lon: 1, Lat: 0}, {Lon: 1, Lat: 1}, {Lon: 0, Lat: 1}}

	tests := []struct {
		name   string
		sites  []domain.Site
		errors int
	}{
		{"valid", []domain.Site{{ID: "a", Name: "A", Type: domain.SiteTypeOther, Coordinates: square}}, 0},
		{"missing id", []domain.Site{{Name: "A", Type: domain.SiteTypeOther, Coordinates: square}}, 1},
		{"duplicate id", []domain.Site{
			{ID: "a", Name: "A", Type: domain.SiteTypeOther, Coordinates: square},
			{ID: "a", Name: "B", Type: domain.SiteTypeOther, Coordinates: square},
		}, 1},
		{"invalid", []domain.Site{{ID: "a", Name: "", Type: domain.SiteTypeOther, Coordinates: square}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validateSites(tt.sites)
			assert.Len(t, p.errors, tt.errors, p.errors)
		})
	}
}

func TestValidateAlerts(t *testing.T) {
	tests := []struct {
		name   string
		alert  domain.RawAlert
		errors int
	}{
		{"valid", domain.RawAlert{ID: "x", Event: "Flood Warning", AreaDesc: "Travis", Severity: "Minor"}, 0},
		{"explicit unknown", domain.RawAlert{ID: "x", Event: "Test", AreaDesc: "Travis", Severity: "Unknown"}, 0},
		{"bad severity", domain.RawAlert{ID: "x", Event: "Test", AreaDesc: "Travis", Severity: "Catastrophic"}, 1},
		{"no areas", domain.RawAlert{ID: "x", Event: "Test", AreaDesc: " ; ", Severity: "Minor"}, 1},
		{"missing id and event", domain.RawAlert{AreaDesc: "Travis", Severity: "Minor"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validateAlerts([]domain.RawAlert{tt.alert})
			assert.Len(t, p.errors, tt.errors, p.errors)
		})
	}
}
