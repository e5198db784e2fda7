package testutil

import (
	"context"
	"sync"

	"github.com/jbctechsolutions/ttsplit/internal/domain/metrics"
	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
)

// Sample texts shared by segmentation tests.
const (
	// ThreeSentences is 48 characters long.
	ThreeSentences = "Hello there. General Kenobi. You are a bold one."
	// TwoParagraphs has paragraphs of 11 and 20 characters separated by a blank line.
	TwoParagraphs = "First para.\n\nSecond para is here.\n"
)

// NewTestLimit returns an ad hoc limit with no model ID.
func NewTestLimit(unit segment.CountingUnit, maxSize int) provider.ModelLimit {
	return provider.ModelLimit{Unit: unit, MaxSize: maxSize}
}

// TinyLimits returns small registered limits that make chunk boundaries easy to predict.
func TinyLimits(tokenEncoding string) []provider.ModelLimit {
	return []provider.ModelLimit{
		{ModelID: "tiny-chars", Provider: "test", Unit: segment.UnitCharacters, MaxSize: 20},
		{ModelID: "tiny-bytes", Provider: "test", Unit: segment.UnitBytes, MaxSize: 20},
		{ModelID: "tiny-tokens", Provider: "test", Unit: segment.UnitTokens, MaxSize: 3, EncodingName: tokenEncoding},
	}
}

// RunRecorder is an in-memory run store. Set Err to make SaveRun fail.
type RunRecorder struct {
	mu   sync.Mutex
	runs []metrics.RunRecord
	Err  error
}

// SaveRun records a copy of run.
func (r *RunRecorder) SaveRun(_ context.Context, run *metrics.RunRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.runs = append(r.runs, *run)
	return nil
}

// ListRuns returns every recorded run in save order, ignoring the filter.
func (r *RunRecorder) ListRuns(context.Context, metrics.Filter) ([]metrics.RunRecord, error) {
	return r.Runs(), nil
}

// Summarize returns totals over every recorded run.
func (r *RunRecorder) Summarize(context.Context, metrics.Filter) (*metrics.Summary, error) {
	s := &metrics.Summary{}
	for _, run := range r.Runs() {
		s.TotalRuns++
		s.TotalChunks += int64(run.ChunkCount)
		s.TotalInput += int64(run.InputSize)
		if run.Truncated {
			s.Truncations++
		}
	}
	return s, nil
}

// Runs returns a copy of the recorded runs.
func (r *RunRecorder) Runs() []metrics.RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]metrics.RunRecord(nil), r.runs...)
}
