// Command assess runs the matching and risk pipeline offline over a fixture
// of sites and raw alerts, writing the resulting site reports as JSON. It uses
// the domain package directly so fixtures stay in step with the service.
//
// Usage:
//
//	go run ./cmd/assess \
//	  -in data/mock/texas_sites_alerts.json \
//	  -out data/mock/texas_site_reports.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/jonboulle/clockwork"
)

// assessedAt pins report timestamps so regenerated fixtures diff cleanly.
var assessedAt = time.Date(2024, time.April, 26, 22, 0, 0, 0, time.UTC)

// fixture is the input file layout: sites in API form, alerts as the NWS
// alert properties objects.
type fixture struct {
	Sites  []domain.Site     `json:"sites"`
	Alerts []domain.RawAlert `json:"alerts"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "path to sites and alerts fixture")
	out := flag.String("out", "", "output path for site reports (stdout when empty)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -in")
	}

	fx, err := loadFixture(*in)
	if err != nil {
		return fmt.Errorf("loading fixture: %w", err)
	}

	reports, err := assess(fx)
	if err != nil {
		return err
	}
	log.Printf("assessed %d sites against %d alerts", len(reports), len(fx.Alerts))

	if *out == "" {
		if err := encode(os.Stdout, reports); err != nil {
			return err
		}
	} else {
		if err := writeJSON(*out, reports); err != nil {
			return fmt.Errorf("writing reports: %w", err)
		}
		log.Printf("wrote reports: %s", *out)
	}

	printStats(os.Stderr, reports)
	return nil
}

func loadFixture(path string) (fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fixture{}, err
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return fixture{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return fx, nil
}

// assess validates every site, then normalizes and deduplicates the alert
// pool once and scores each site against it.
func assess(fx fixture) ([]domain.SiteReport, error) {
	for i, site := range fx.Sites {
		if err := domain.ValidateSite(site); err != nil {
			return nil, fmt.Errorf("site %d (%q): %w", i, site.ID, err)
		}
	}

	domain.SetClock(clockwork.NewFakeClockAt(assessedAt))
	defer domain.SetClock(nil)

	alerts := domain.DeduplicateAlerts(domain.NormalizeAlerts(fx.Alerts))
	return domain.BuildSiteReports(fx.Sites, alerts), nil
}

func encode(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(w io.Writer, reports []domain.SiteReport) {
	categories := map[domain.RiskCategory]int{}
	matched := 0
	for _, r := range reports {
		categories[r.Risk.RiskCategory]++
		matched += r.AlertCount()
	}

	keys := make([]string, 0, len(categories))
	for k := range categories {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	fmt.Fprintf(w, "\n=== Site Risk Summary ===\n")
	fmt.Fprintf(w, "sites: %d, matched alerts: %d\n", len(reports), matched)
	for _, k := range keys {
		fmt.Fprintf(w, "  %-10s %d\n", k, categories[domain.RiskCategory(k)])
	}
}
