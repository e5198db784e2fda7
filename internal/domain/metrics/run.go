// Package metrics provides domain types for segmentation run history.
package metrics

import (
	"time"
)

// RunRecord represents one completed segmentation request.
type RunRecord struct {
	ID             string        // Unique run ID
	ModelID        string        // Model whose limit was applied (empty for raw limits)
	Provider       string        // Provider of the model
	Unit           string        // Counting unit name
	MaxSize        int           // Limit applied
	InputSize      int           // Size of the input in Unit
	ChunkCount     int           // Number of chunks produced
	ParagraphCount int           // Number of distinct paragraphs covered (0 when not mapped)
	Truncated      bool          // Whether any chunk lost content to hard truncation
	Duration       time.Duration // Time spent segmenting
	CreatedAt      time.Time     // When the run finished
	CorrelationID  string        // Correlation ID for tracing
}

// ModelSummary aggregates runs for a single model.
type ModelSummary struct {
	ModelID     string
	Runs        int64
	Chunks      int64
	Truncations int64
	AvgDuration time.Duration
}

// Summary aggregates the runs matching a Filter.
type Summary struct {
	Period         TimePeriod
	TotalRuns      int64
	TotalChunks    int64
	TotalInput     int64
	Truncations    int64
	AvgChunks      float64
	AvgDuration    time.Duration
	TruncationRate float64 // 0.0 to 1.0
	Models         []ModelSummary
}

// TimePeriod represents a time period for aggregation.
type TimePeriod struct {
	Start time.Time
	End   time.Time
}

// Duration returns the duration of the time period.
func (p TimePeriod) Duration() time.Duration {
	return p.End.Sub(p.Start)
}

// Filter defines criteria for querying runs.
type Filter struct {
	ModelID   string    // Filter by model ID (empty for all)
	Unit      string    // Filter by unit (empty for all)
	StartDate time.Time // Zero for no lower bound
	EndDate   time.Time // Zero for no upper bound
	Limit     int       // Maximum number of records (0 for no limit)
	Offset    int
}

// WithPeriod sets the time period for the filter.
func (f Filter) WithPeriod(start, end time.Time) Filter {
	f.StartDate = start
	f.EndDate = end
	return f
}

// WithModel sets the model filter.
func (f Filter) WithModel(modelID string) Filter {
	f.ModelID = modelID
	return f
}

// Last returns a filter covering the window ending now.
func Last(window time.Duration) Filter {
	now := time.Now()
	return Filter{
		StartDate: now.Add(-window),
		EndDate:   now,
	}
}

// Last24Hours returns a filter for the last 24 hours.
func Last24Hours() Filter {
	return Last(24 * time.Hour)
}

// Last7Days returns a filter for the last 7 days.
func Last7Days() Filter {
	return Last(7 * 24 * time.Hour)
}
