package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jbctechsolutions/ttsplit/internal/application/ports"
	"github.com/jbctechsolutions/ttsplit/internal/domain/metrics"
)

// RunRepository implements ports.RunStoragePort using SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *sql.DB) ports.RunStoragePort {
	return &RunRepository{db: db}
}

// SaveRun persists a run record.
func (r *RunRepository) SaveRun(ctx context.Context, run *metrics.RunRecord) error {
	if run == nil {
		return fmt.Errorf("run record is nil")
	}

	query := `
		INSERT INTO segmentation_runs (
			id, model_id, provider, unit, max_size, input_size, chunk_count,
			paragraph_count, truncated, duration_ns, created_at, correlation_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.ModelID,
		run.Provider,
		run.Unit,
		run.MaxSize,
		run.InputSize,
		run.ChunkCount,
		run.ParagraphCount,
		run.Truncated,
		run.Duration.Nanoseconds(),
		run.CreatedAt.UTC().Format(time.RFC3339),
		run.CorrelationID,
	)
	if err != nil {
		return fmt.Errorf("failed to save run record: %w", err)
	}
	return nil
}

// whereClause renders the filter as a SQL condition and its arguments.
func whereClause(filter metrics.Filter) (string, []any) {
	clause := " WHERE 1=1"
	args := make([]any, 0, 4)

	if filter.ModelID != "" {
		clause += " AND model_id = ?"
		args = append(args, filter.ModelID)
	}
	if filter.Unit != "" {
		clause += " AND unit = ?"
		args = append(args, filter.Unit)
	}
	if !filter.StartDate.IsZero() {
		clause += " AND created_at >= ?"
		args = append(args, filter.StartDate.UTC().Format(time.RFC3339))
	}
	if !filter.EndDate.IsZero() {
		clause += " AND created_at <= ?"
		args = append(args, filter.EndDate.UTC().Format(time.RFC3339))
	}
	return clause, args
}

// ListRuns retrieves run records matching the filter, most recent first.
func (r *RunRepository) ListRuns(ctx context.Context, filter metrics.Filter) ([]metrics.RunRecord, error) {
	where, args := whereClause(filter)
	query := `
		SELECT id, model_id, provider, unit, max_size, input_size, chunk_count,
			paragraph_count, truncated, duration_ns, created_at, correlation_id
		FROM segmentation_runs` + where + " ORDER BY created_at DESC, rowid DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []metrics.RunRecord
	for rows.Next() {
		var run metrics.RunRecord
		var durationNs int64
		var createdAt string
		var modelID, provider, correlationID sql.NullString

		err := rows.Scan(
			&run.ID,
			&modelID,
			&provider,
			&run.Unit,
			&run.MaxSize,
			&run.InputSize,
			&run.ChunkCount,
			&run.ParagraphCount,
			&run.Truncated,
			&durationNs,
			&createdAt,
			&correlationID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run record: %w", err)
		}

		run.ModelID = modelID.String
		run.Provider = provider.String
		run.CorrelationID = correlationID.String
		run.Duration = time.Duration(durationNs)
		run.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating run records: %w", err)
	}
	return runs, nil
}

// Summarize aggregates the runs matching the filter. Limit and Offset are ignored.
func (r *RunRepository) Summarize(ctx context.Context, filter metrics.Filter) (*metrics.Summary, error) {
	result := &metrics.Summary{
		Period: metrics.TimePeriod{Start: filter.StartDate, End: filter.EndDate},
	}
	if result.Period.End.IsZero() {
		result.Period.End = time.Now()
	}

	where, args := whereClause(filter)
	totals := `
		SELECT
			COUNT(*),
			COALESCE(SUM(chunk_count), 0),
			COALESCE(SUM(input_size), 0),
			COALESCE(SUM(CASE WHEN truncated THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_ns), 0)
		FROM segmentation_runs` + where

	var avgDurationNs float64
	err := r.db.QueryRowContext(ctx, totals, args...).Scan(
		&result.TotalRuns,
		&result.TotalChunks,
		&result.TotalInput,
		&result.Truncations,
		&avgDurationNs,
	)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to query run totals: %w", err)
	}
	result.AvgDuration = time.Duration(avgDurationNs)

	if result.TotalRuns > 0 {
		result.AvgChunks = float64(result.TotalChunks) / float64(result.TotalRuns)
		result.TruncationRate = float64(result.Truncations) / float64(result.TotalRuns)
	}

	models, err := r.modelSummaries(ctx, where, args)
	if err != nil {
		return nil, err
	}
	result.Models = models
	return result, nil
}

func (r *RunRepository) modelSummaries(ctx context.Context, where string, args []any) ([]metrics.ModelSummary, error) {
	query := `
		SELECT
			COALESCE(model_id, ''),
			COUNT(*) as runs,
			COALESCE(SUM(chunk_count), 0),
			COALESCE(SUM(CASE WHEN truncated THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_ns), 0)
		FROM segmentation_runs` + where + `
		GROUP BY COALESCE(model_id, '')
		ORDER BY runs DESC, 1 ASC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query model summaries: %w", err)
	}
	defer rows.Close()

	var out []metrics.ModelSummary
	for rows.Next() {
		var ms metrics.ModelSummary
		var avgNs float64
		if err := rows.Scan(&ms.ModelID, &ms.Runs, &ms.Chunks, &ms.Truncations, &avgNs); err != nil {
			return nil, fmt.Errorf("failed to scan model summary: %w", err)
		}
		ms.AvgDuration = time.Duration(avgNs)
		out = append(out, ms)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating model summaries: %w", err)
	}
	return out, nil
}
