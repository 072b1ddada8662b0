// Package postgres persists areas of interest, their displacement history,
// finished composite reports, and the alert log.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/P47Parzival/Coastal-Threat-Alert-System/internal/domain"
)

// Store wraps a postgres connection pool.
type Store struct {
	db *sqlx.DB
}

// Open connects to postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{db: db}, nil
}

// NewStore wraps an existing connection pool.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// EnsureSchema creates the tables and indexes if they do not exist. Geometry
// and full reports are stored as JSONB; columns queried by the monitor and
// the API are extracted.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS aois (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	geometry   JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS aoi_samples (
	id                BIGSERIAL PRIMARY KEY,
	aoi_id            TEXT NOT NULL REFERENCES aois(id) ON DELETE CASCADE,
	timestamp_ordinal BIGINT NOT NULL,
	offset_meters     DOUBLE PRECISION NOT NULL
);
CREATE INDEX IF NOT EXISTS aoi_samples_aoi_idx ON aoi_samples (aoi_id, timestamp_ordinal);

CREATE TABLE IF NOT EXISTS reports (
	id               TEXT PRIMARY KEY,
	aoi_id           TEXT,
	highest_severity TEXT NOT NULL,
	generated_at     TIMESTAMPTZ NOT NULL,
	report           JSONB NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_aoi_generated_idx ON reports (aoi_id, generated_at DESC);

CREATE TABLE IF NOT EXISTS alert_log (
	id       BIGSERIAL PRIMARY KEY,
	aoi_id   TEXT NOT NULL,
	category TEXT NOT NULL,
	sent_at  TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS alert_log_lookup_idx ON alert_log (aoi_id, category, sent_at DESC);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// CreateAOI stores a new area of interest.
func (s *Store) CreateAOI(ctx context.Context, aoi domain.AOI) error {
	geom, err := json.Marshal(aoi.Geometry)
	if err != nil {
		return fmt.Errorf("encode aoi geometry: %w", err)
	}

	const query = `INSERT INTO aois (id, name, geometry, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := s.db.ExecContext(ctx, query, aoi.ID, aoi.Name, geom, aoi.CreatedAt); err != nil {
		return fmt.Errorf("create aoi: %w", err)
	}
	return nil
}

// GetAOI returns one area of interest. Missing rows surface sql.ErrNoRows.
func (s *Store) GetAOI(ctx context.Context, id string) (domain.AOI, error) {
	const query = `SELECT id, name, geometry, created_at FROM aois WHERE id = $1`

	var row aoiRow
	if err := s.db.GetContext(ctx, &row, query, id); err != nil {
		return domain.AOI{}, fmt.Errorf("get aoi %s: %w", id, err)
	}
	return row.toDomain()
}

// ListAOIs returns all areas of interest, oldest first.
func (s *Store) ListAOIs(ctx context.Context) ([]domain.AOI, error) {
	const query = `SELECT id, name, geometry, created_at FROM aois ORDER BY created_at, id`

	var rows []aoiRow
	if err := s.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list aois: %w", err)
	}

	aois := make([]domain.AOI, 0, len(rows))
	for _, row := range rows {
		aoi, err := row.toDomain()
		if err != nil {
			return nil, err
		}
		aois = append(aois, aoi)
	}
	return aois, nil
}

// DeleteAOI removes an area of interest and, via cascade, its samples.
// Missing rows surface sql.ErrNoRows.
func (s *Store) DeleteAOI(ctx context.Context, id string) error {
	const query = `DELETE FROM aois WHERE id = $1`

	res, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete aoi %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete aoi %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("delete aoi %s: %w", id, sql.ErrNoRows)
	}
	return nil
}

// AddSamples appends displacement samples to an AOI's history.
func (s *Store) AddSamples(ctx context.Context, aoiID string, samples []domain.DisplacementSample) error {
	if len(samples) == 0 {
		return nil
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("add samples: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `INSERT INTO aoi_samples (aoi_id, timestamp_ordinal, offset_meters) VALUES ($1, $2, $3)`
	for _, sample := range samples {
		if _, err := tx.ExecContext(ctx, query, aoiID, sample.TimestampOrdinal, sample.OffsetMeters); err != nil {
			return fmt.Errorf("add samples: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("add samples: %w", err)
	}
	return nil
}

// ListSamples returns an AOI's displacement history in ordinal order, the
// order the erosion analyzer expects.
func (s *Store) ListSamples(ctx context.Context, aoiID string) ([]domain.DisplacementSample, error) {
	const query = `SELECT timestamp_ordinal, offset_meters FROM aoi_samples
		WHERE aoi_id = $1 ORDER BY timestamp_ordinal, id`

	var rows []sampleRow
	if err := s.db.SelectContext(ctx, &rows, query, aoiID); err != nil {
		return nil, fmt.Errorf("list samples for %s: %w", aoiID, err)
	}

	samples := make([]domain.DisplacementSample, len(rows))
	for i, row := range rows {
		samples[i] = domain.DisplacementSample{
			TimestampOrdinal: row.TimestampOrdinal,
			OffsetMeters:     row.OffsetMeters,
		}
	}
	return samples, nil
}

// SaveReport stores a finished composite report. An empty aoiID marks an
// ad-hoc assessment not tied to a stored AOI.
func (s *Store) SaveReport(ctx context.Context, aoiID string, report domain.CompositeReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	const query = `INSERT INTO reports (id, aoi_id, highest_severity, generated_at, report)
		VALUES ($1, NULLIF($2, ''), $3, $4, $5)`
	if _, err := s.db.ExecContext(ctx, query, report.ID, aoiID, string(report.HighestSeverity), report.GeneratedAt, payload); err != nil {
		return fmt.Errorf("save report %s: %w", report.ID, err)
	}
	return nil
}

// ListReports returns an AOI's most recent reports, newest first.
func (s *Store) ListReports(ctx context.Context, aoiID string, limit int) ([]domain.CompositeReport, error) {
	const query = `SELECT report FROM reports WHERE aoi_id = $1
		ORDER BY generated_at DESC LIMIT $2`

	var payloads [][]byte
	if err := s.db.SelectContext(ctx, &payloads, query, aoiID, limit); err != nil {
		return nil, fmt.Errorf("list reports for %s: %w", aoiID, err)
	}

	reports := make([]domain.CompositeReport, len(payloads))
	for i, payload := range payloads {
		if err := json.Unmarshal(payload, &reports[i]); err != nil {
			return nil, fmt.Errorf("decode report: %w", err)
		}
	}
	return reports, nil
}

// GetReport returns one composite report by ID. Missing rows surface
// sql.ErrNoRows.
func (s *Store) GetReport(ctx context.Context, id string) (domain.CompositeReport, error) {
	const query = `SELECT report FROM reports WHERE id = $1`

	var payload []byte
	if err := s.db.GetContext(ctx, &payload, query, id); err != nil {
		return domain.CompositeReport{}, fmt.Errorf("get report %s: %w", id, err)
	}

	var report domain.CompositeReport
	if err := json.Unmarshal(payload, &report); err != nil {
		return domain.CompositeReport{}, fmt.Errorf("decode report %s: %w", id, err)
	}
	return report, nil
}

// RecentAlertExists reports whether an alert for the (AOI, category) pair was
// recorded within the dedup window.
func (s *Store) RecentAlertExists(ctx context.Context, aoiID string, category domain.Category, window time.Duration) (bool, error) {
	const query = `SELECT EXISTS (
		SELECT 1 FROM alert_log WHERE aoi_id = $1 AND category = $2 AND sent_at > $3
	)`

	cutoff := time.Now().UTC().Add(-window)

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, aoiID, string(category), cutoff); err != nil {
		return false, fmt.Errorf("check recent alert: %w", err)
	}
	return exists, nil
}

// RecordAlert logs a published alert for dedup.
func (s *Store) RecordAlert(ctx context.Context, aoiID string, category domain.Category, sentAt time.Time) error {
	const query = `INSERT INTO alert_log (aoi_id, category, sent_at) VALUES ($1, $2, $3)`
	if _, err := s.db.ExecContext(ctx, query, aoiID, string(category), sentAt); err != nil {
		return fmt.Errorf("record alert: %w", err)
	}
	return nil
}

// PurgeAlertsBefore deletes alert-log rows older than the cutoff and returns
// the number removed.
func (s *Store) PurgeAlertsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	const query = `DELETE FROM alert_log WHERE sent_at < $1`

	res, err := s.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge alerts: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge alerts: %w", err)
	}
	return n, nil
}

// Row types local to the adapter; domain types stay free of db tags.

type aoiRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Geometry  []byte    `db:"geometry"`
	CreatedAt time.Time `db:"created_at"`
}

func (r aoiRow) toDomain() (domain.AOI, error) {
	var g domain.Geometry
	if err := json.Unmarshal(r.Geometry, &g); err != nil {
		return domain.AOI{}, fmt.Errorf("decode aoi geometry: %w", err)
	}
	return domain.AOI{ID: r.ID, Name: r.Name, Geometry: g, CreatedAt: r.CreatedAt}, nil
}

type sampleRow struct {
	TimestampOrdinal int64   `db:"timestamp_ordinal"`
	OffsetMeters     float64 `db:"offset_meters"`
}
