package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/storm-site-risk/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var schema string

// DB is the subset of *pgxpool.Pool the repository uses.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
}

// SiteRepository persists sites and their weather snapshots.
// It implements monitor.SiteStore.
type SiteRepository struct {
	db DB
}

// NewSiteRepository creates a repository backed by the given pool.
func NewSiteRepository(db DB) *SiteRepository {
	return &SiteRepository{db: db}
}

// Connect opens a connection pool and verifies it with a ping.
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: failed to connect: %w", err)
	}
	return pool, nil
}

// Migrate creates the tables if they do not exist.
func (r *SiteRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

const siteColumns = `id, name, description, site_type, coordinates, created_at, updated_at`

// ListSites returns every site, oldest first.
func (r *SiteRepository) ListSites(ctx context.Context) ([]domain.Site, error) {
	rows, err := r.db.Query(ctx, `SELECT `+siteColumns+` FROM sites ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query sites: %w", err)
	}
	defer rows.Close()

	sites := []domain.Site{}
	for rows.Next() {
		site, err := scanSite(rows)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read sites: %w", err)
	}
	return sites, nil
}

// GetSite returns the site with the given ID or domain.ErrSiteNotFound.
func (r *SiteRepository) GetSite(ctx context.Context, id string) (domain.Site, error) {
	row := r.db.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1`, id)
	return scanSite(row)
}

// CreateSite assigns an ID and timestamps and inserts the site.
func (r *SiteRepository) CreateSite(ctx context.Context, site domain.Site) (domain.Site, error) {
	now := timestamp()
	site.ID = uuid.NewString()
	site.CreatedAt = now
	site.UpdatedAt = now

	coords, err := json.Marshal(site.Coordinates)
	if err != nil {
		return domain.Site{}, fmt.Errorf("postgres: failed to encode coordinates: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO sites (`+siteColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, site.ID, site.Name, site.Description, string(site.Type), coords, site.CreatedAt, site.UpdatedAt)
	if err != nil {
		return domain.Site{}, fmt.Errorf("postgres: failed to insert site: %w", err)
	}
	return site, nil
}

// UpdateSite overwrites the mutable fields of an existing site and bumps
// its updated_at.
func (r *SiteRepository) UpdateSite(ctx context.Context, site domain.Site) (domain.Site, error) {
	coords, err := json.Marshal(site.Coordinates)
	if err != nil {
		return domain.Site{}, fmt.Errorf("postgres: failed to encode coordinates: %w", err)
	}

	row := r.db.QueryRow(ctx, `
		UPDATE sites
		SET name = $2, description = $3, site_type = $4, coordinates = $5, updated_at = $6
		WHERE id = $1
		RETURNING `+siteColumns,
		site.ID, site.Name, site.Description, string(site.Type), coords, timestamp(),
	)
	return scanSite(row)
}

// DeleteSite removes a site and, by cascade, its snapshots.
func (r *SiteRepository) DeleteSite(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM sites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSiteNotFound
	}
	return nil
}

// SaveSnapshot records the summary of one site report.
func (r *SiteRepository) SaveSnapshot(ctx context.Context, snap domain.WeatherSnapshot) error {
	factors := snap.RiskFactors
	if factors == nil {
		factors = []string{}
	}
	factorsJSON, err := json.Marshal(factors)
	if err != nil {
		return fmt.Errorf("postgres: failed to encode risk factors: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO weather_snapshots (
			site_id, highest_alert_severity, risk_level, risk_category,
			risk_factors, alert_count, fetched_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		snap.SiteID, string(snap.HighestAlertSeverity), snap.RiskLevel, string(snap.RiskCategory),
		factorsJSON, snap.AlertCount, snap.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to save snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns up to limit snapshots for a site, newest first.
func (r *SiteRepository) ListSnapshots(ctx context.Context, siteID string, limit int) ([]domain.WeatherSnapshot, error) {
	rows, err := r.db.Query(ctx, `
		SELECT site_id, highest_alert_severity, risk_level, risk_category,
			   risk_factors, alert_count, fetched_at
		FROM weather_snapshots
		WHERE site_id = $1
		ORDER BY fetched_at DESC
		LIMIT $2
	`, siteID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []domain.WeatherSnapshot{}
	for rows.Next() {
		var (
			s        domain.WeatherSnapshot
			severity string
			category string
			factors  []byte
		)
		if err := rows.Scan(&s.SiteID, &severity, &s.RiskLevel, &category, &factors, &s.AlertCount, &s.FetchedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan snapshot row: %w", err)
		}
		if err := json.Unmarshal(factors, &s.RiskFactors); err != nil {
			return nil, fmt.Errorf("postgres: failed to decode risk factors: %w", err)
		}
		s.HighestAlertSeverity = domain.Severity(severity)
		s.RiskCategory = domain.RiskCategory(category)
		snaps = append(snaps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to read snapshots: %w", err)
	}
	return snaps, nil
}

// Ping checks database connectivity.
func (r *SiteRepository) Ping(ctx context.Context) error {
	if err := r.db.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSite(row rowScanner) (domain.Site, error) {
	var (
		site     domain.Site
		siteType string
		coords   []byte
	)
	err := row.Scan(&site.ID, &site.Name, &site.Description, &siteType, &coords, &site.CreatedAt, &site.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Site{}, domain.ErrSiteNotFound
	}
	if err != nil {
		return domain.Site{}, fmt.Errorf("postgres: failed to scan site row: %w", err)
	}
	if err := json.Unmarshal(coords, &site.Coordinates); err != nil {
		return domain.Site{}, fmt.Errorf("postgres: failed to decode coordinates of site %s: %w", site.ID, err)
	}
	site.Type = domain.SiteType(siteType)
	return site, nil
}

// timestamp returns the current time at the precision Postgres stores.
func timestamp() time.Time {
	return domain.Now().UTC().Truncate(time.Microsecond)
}
