// Package ports defines the application layer port interfaces following hexagonal architecture.
// Ports are abstractions that allow the application core to interact with external systems
// (adapters) without knowing their implementation details.
package ports

import (
	"context"

	"github.com/jbctechsolutions/ttsplit/internal/domain/metrics"
)

// RunStoragePort defines the interface for storing and retrieving segmentation runs.
type RunStoragePort interface {
	// SaveRun persists a run record.
	SaveRun(ctx context.Context, run *metrics.RunRecord) error

	// ListRuns retrieves run records matching the filter, most recent first.
	ListRuns(ctx context.Context, filter metrics.Filter) ([]metrics.RunRecord, error)

	// Summarize aggregates the runs matching the filter, with a per-model breakdown.
	Summarize(ctx context.Context, filter metrics.Filter) (*metrics.Summary, error)
}
