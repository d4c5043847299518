package selection

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/sp500-screener/internal/contracts"
)

// Repository handles report persistence
// ⭐ SSOT: 스크리닝 리포트 저장/조회는 여기서만
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new selection repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ contracts.ReportStore = (*Repository)(nil)

// Save stores the full report as JSONB plus one row per result
func (r *Repository) Save(ctx context.Context, report *contracts.Report) error {
	_, err := r.SaveReport(ctx, report)
	return err
}

// SaveReport stores a report and returns its id
func (r *Repository) SaveReport(ctx context.Context, report *contracts.Report) (int64, error) {
	payload, err := json.Marshal(report)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal report: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO screener.reports (collected_at, total_collected, passed_count, report)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, report.Metadata.GeneratedAt, report.Metadata.TotalCount, report.Metadata.PassedCount, payload).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert report: %w", err)
	}

	rows := make([][]interface{}, len(report.Results))
	for i, res := range report.Results {
		var failure *string
		if res.FailedFilter != "" {
			f := res.FailedFilter
			failure = &f
		}
		rows[i] = []interface{}{id, res.Symbol, res.Sector, res.Passed, failure}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"screener", "results"},
		[]string{"report_id", "symbol", "sector", "passed", "first_failure"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to copy results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

// Latest returns the most recent report
func (r *Repository) Latest(ctx context.Context) (*contracts.Report, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `
		SELECT report FROM screener.reports
		ORDER BY collected_at DESC, id DESC
		LIMIT 1
	`).Scan(&payload)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, contracts.ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest report: %w", err)
	}

	var report contracts.Report
	if err := json.Unmarshal(payload, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal report: %w", err)
	}
	return &report, nil
}

// RunSummary is one stored run without its results
type RunSummary struct {
	ID          int64     `json:"id"`
	CollectedAt time.Time `json:"collected_at"`
	Total       int       `json:"total_collected"`
	Passed      int       `json:"passed_filter"`
}

// ListRuns returns the latest stored runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, collected_at, total_collected, passed_count
		FROM screener.reports
		ORDER BY collected_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.ID, &s.CollectedAt, &s.Total, &s.Passed); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		runs = append(runs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return runs, nil
}
