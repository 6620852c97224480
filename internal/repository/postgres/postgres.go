package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roadwatch/backend/internal/domain"
)

const schema = `
	CREATE TABLE IF NOT EXISTS pothole_reports (
		seq        BIGSERIAL PRIMARY KEY,
		id         TEXT NOT NULL UNIQUE,
		latitude   DOUBLE PRECISION NOT NULL,
		longitude  DOUBLE PRECISION NOT NULL,
		road       TEXT NOT NULL DEFAULT '',
		area       TEXT NOT NULL DEFAULT '',
		severity   TEXT NOT NULL,
		detections INTEGER NOT NULL DEFAULT 0,
		source     TEXT NOT NULL DEFAULT '',
		notes      TEXT NOT NULL DEFAULT '',
		timestamp  TIMESTAMPTZ NOT NULL
	);

	CREATE TABLE IF NOT EXISTS cluster_status (
		cluster_id TEXT PRIMARY KEY,
		status     TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)
`

// PostgresRepository implements domain.ReportRepository and domain.ClusterStatusRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the reports and cluster status tables when missing
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to create schema: %w", err)
	}
	return nil
}

// ListReports returns all reports in insertion order
func (r *PostgresRepository) ListReports(ctx context.Context) ([]domain.Report, error) {
	query := `
		SELECT id, latitude, longitude, road, area, severity,
			   detections, source, notes, timestamp
		FROM pothole_reports
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query reports: %w", err)
	}

	reports, err := pgx.CollectRows(rows, scanReport)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan report row: %w", err)
	}
	return reports, nil
}

func scanReport(row pgx.CollectableRow) (domain.Report, error) {
	var (
		rep      domain.Report
		severity string
	)
	err := row.Scan(
		&rep.ID, &rep.Latitude, &rep.Longitude, &rep.Road, &rep.Area, &severity,
		&rep.Detections, &rep.Source, &rep.Notes, &rep.Timestamp,
	)
	if err != nil {
		return domain.Report{}, err
	}
	rep.Severity, _ = domain.ParseSeverity(severity)
	return rep, nil
}

// SaveReport inserts a report, assigning an ID when it has none
func (r *PostgresRepository) SaveReport(ctx context.Context, report domain.Report) (domain.Report, error) {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}

	query := `
		INSERT INTO pothole_reports (
			id, latitude, longitude, road, area, severity,
			detections, source, notes, timestamp
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.pool.Exec(ctx, query,
		report.ID, report.Latitude, report.Longitude, report.Road, report.Area, string(report.Severity),
		report.Detections, report.Source, report.Notes, report.Timestamp,
	)
	if err != nil {
		return domain.Report{}, fmt.Errorf("postgres: failed to save report: %w", err)
	}

	return report, nil
}

// ListClusterStatuses returns every stored cluster status
func (r *PostgresRepository) ListClusterStatuses(ctx context.Context) ([]domain.ClusterStatusRecord, error) {
	query := `
		SELECT cluster_id, status, updated_at
		FROM cluster_status
		ORDER BY cluster_id
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query cluster statuses: %w", err)
	}

	records, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ClusterStatusRecord, error) {
		var (
			rec    domain.ClusterStatusRecord
			status string
		)
		if err := row.Scan(&rec.ClusterID, &status, &rec.UpdatedAt); err != nil {
			return domain.ClusterStatusRecord{}, err
		}
		rec.Status = domain.ClusterStatus(status)
		return rec, nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to scan cluster status row: %w", err)
	}
	return records, nil
}

// SaveClusterStatus upserts the status of one cluster
func (r *PostgresRepository) SaveClusterStatus(ctx context.Context, record domain.ClusterStatusRecord) error {
	query := `
		INSERT INTO cluster_status (cluster_id, status, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (cluster_id) DO UPDATE
		SET status = EXCLUDED.status, updated_at = EXCLUDED.updated_at
	`

	if _, err := r.pool.Exec(ctx, query, record.ClusterID, string(record.Status), record.UpdatedAt); err != nil {
		return fmt.Errorf("postgres: failed to save cluster status: %w", err)
	}
	return nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}
