// Command validate checks the integrity of mock fixtures: the sites and raw
// alerts consumed by assess, and the site reports it produced. It re-runs the
// domain pipeline over the fixture and diffs the result against the stored
// reports so drift between code and fixtures is caught early.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -fixture data/mock/texas_sites_alerts.json \
//	  -reports data/mock/texas_site_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
)

// Must match the timestamp assess pins.
var assessedAt = time.Date(2024, time.April, 26, 22, 0, 0, 0, time.UTC)

type fixture struct {
	Sites  []domain.Site     `json:"sites"`
	Alerts []domain.RawAlert `json:"alerts"`
}

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	fixturePath := flag.String("fixture", "", "path to sites and alerts fixture")
	reportsPath := flag.String("reports", "", "path to site reports JSON (optional)")
	flag.Parse()

	if *fixturePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(os.Stdout, *fixturePath, *reportsPath); code != 0 {
		os.Exit(code)
	}
}

func run(w io.Writer, fixturePath, reportsPath string) int {
	fmt.Fprintln(w, "=== Site Risk Fixture Validation ===")
	fmt.Fprintln(w)

	var fx fixture
	if err := loadJSON(fixturePath, &fx); err != nil {
		fmt.Fprintf(w, "FATAL: load fixture: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateSites(fx.Sites),
		validateAlerts(fx.Alerts),
	}

	if reportsPath != "" {
		var reports []domain.SiteReport
		if err := loadJSON(reportsPath, &reports); err != nil {
			fmt.Fprintf(w, "FATAL: load reports: %v\n", err)
			return 1
		}
		phases = append(phases, validateReports(fx, reports))
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-32s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Fixture: %d sites, %d alerts\n", len(fx.Sites), len(fx.Alerts))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// ── Phases ──

func validateSites(sites []domain.Site) *phase {
	p := &phase{name: "Site validation"}
	seen := map[string]bool{}
	for i, site := range sites {
		if site.ID == "" {
			p.errorf("site %d: missing id", i)
		} else if seen[site.ID] {
			p.errorf("site %d: duplicate id %q", i, site.ID)
		}
		seen[site.ID] = true

		if err := domain.ValidateSite(site); err != nil {
			p.errorf("site %q: %v", site.ID, err)
			continue
		}

		c := domain.SiteCentroid(site)
		if !domain.IsPointInPolygon(domain.Point{X: c.Lon, Y: c.Lat}, site.Polygon()) {
			p.errorf("site %q: centroid (%.4f, %.4f) falls outside its polygon", site.ID, c.Lat, c.Lon)
		}
	}
	return p
}

func validateAlerts(alerts []domain.RawAlert) *phase {
	p := &phase{name: "Alert normalization"}
	for i, raw := range alerts {
		label := raw.ID
		if label == "" {
			p.errorf("alert %d: missing id", i)
			label = fmt.Sprintf("#%d", i)
		}
		if raw.Event == "" {
			p.errorf("alert %s: missing event", label)
		}

		n := domain.NormalizeAlert(raw)
		if len(n.Areas) == 0 {
			p.errorf("alert %s: areaDesc %q yields no areas", label, raw.AreaDesc)
		}
		switch n.Severity {
		case domain.SeverityExtreme, domain.SeveritySevere, domain.SeverityModerate,
			domain.SeverityMinor, domain.SeverityUnknown:
		default:
			p.errorf("alert %s: unrecognized severity %q", label, raw.Severity)
		}
	}
	return p
}

func validateReports(fx fixture, stored []domain.SiteReport) *phase {
	p := &phase{name: "Report consistency"}

	for _, r := range stored {
		if r.Risk.RiskLevel < 0 || r.Risk.RiskLevel > domain.MaxRiskLevel {
			p.errorf("report %q: risk level %d out of range", r.SiteID, r.Risk.RiskLevel)
		}
		if want := domain.CategorizeRisk(r.Risk.RiskLevel); r.Risk.RiskCategory != want {
			p.errorf("report %q: category %q, level %d implies %q", r.SiteID, r.Risk.RiskCategory, r.Risk.RiskLevel, want)
		}
	}

	domain.SetClock(clockwork.NewFakeClockAt(assessedAt))
	defer domain.SetClock(nil)

	alerts := domain.DeduplicateAlerts(domain.NormalizeAlerts(fx.Alerts))
	want := domain.BuildSiteReports(fx.Sites, alerts)

	// Round-trip through JSON so both sides carry the same precision.
	var wantDecoded []domain.SiteReport
	data, err := json.Marshal(want)
	if err == nil {
		err = json.Unmarshal(data, &wantDecoded)
	}
	if err != nil {
		p.errorf("re-encode expected reports: %v", err)
		return p
	}

	if diff := cmp.Diff(wantDecoded, stored); diff != "" {
		p.errorf("stored reports differ from a fresh assessment (-want +got):\n%s", diff)
	}
	return p
}
