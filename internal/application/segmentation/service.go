// Package segmentation is the application entry point for splitting text into
// provider-safe chunks. It resolves model limits, builds counters, and wraps each
// request with logging, tracing, and optional run recording.
package segmentation

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jbctechsolutions/ttsplit/internal/application/ports"
	domainErrors "github.com/jbctechsolutions/ttsplit/internal/domain/errors"
	"github.com/jbctechsolutions/ttsplit/internal/domain/metrics"
	"github.com/jbctechsolutions/ttsplit/internal/domain/provider"
	"github.com/jbctechsolutions/ttsplit/internal/domain/segment"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/logging"
	"github.com/jbctechsolutions/ttsplit/internal/infrastructure/tracing"
)

// Service segments text for TTS providers. It is safe for concurrent use.
type Service struct {
	registry    *provider.LimitRegistry
	tokenizers  segment.TokenizerSource
	logger      *logging.Logger
	tracer      *tracing.Tracer
	runs        ports.RunStoragePort
	concurrency int
	now         func() time.Time
}

// ServiceConfig holds the dependencies of a Service. Registry and Tokenizers are
// required; the rest fall back to no-op implementations.
type ServiceConfig struct {
	Registry    *provider.LimitRegistry
	Tokenizers  segment.TokenizerSource
	Logger      *logging.Logger
	Tracer      *tracing.Tracer
	Runs        ports.RunStoragePort // nil disables run history
	Concurrency int                  // SplitBatch parallelism, 0 for GOMAXPROCS
}

// Request describes one segmentation call.
type Request struct {
	Text       string
	Limit      provider.ModelLimit
	Paragraphs bool // map each chunk to its source paragraph
}

// NewService creates a new segmentation service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Registry == nil {
		return nil, domainErrors.NewError(domainErrors.CodeConfiguration, "segmentation service requires a limit registry", nil)
	}
	if cfg.Tokenizers == nil {
		return nil, domainErrors.NewError(domainErrors.CodeConfiguration, "segmentation service requires a tokenizer source", nil)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = tracing.Noop()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}

	return &Service{
		registry:    cfg.Registry,
		tokenizers:  cfg.Tokenizers,
		logger:      logger,
		tracer:      tracer,
		runs:        cfg.Runs,
		concurrency: concurrency,
		now:         time.Now,
	}, nil
}

// Registry returns the model limit registry the service resolves IDs against.
func (s *Service) Registry() *provider.LimitRegistry {
	return s.registry
}

// Limit resolves a model ID or API model ID to its limit.
func (s *Service) Limit(modelID string) (provider.ModelLimit, error) {
	return s.registry.Get(modelID)
}

// SplitForLimit splits text under the unit and size of limit. The limit need not
// be registered; a zero ModelID denotes an ad hoc limit.
func (s *Service) SplitForLimit(ctx context.Context, text string, limit provider.ModelLimit) ([]string, error) {
	res, err := s.Segment(ctx, Request{Text: text, Limit: limit})
	if err != nil {
		return nil, err
	}
	return res.Chunks, nil
}

// SplitForModel looks up modelID and splits text under its limit.
func (s *Service) SplitForModel(ctx context.Context, text, modelID string) ([]string, error) {
	limit, err := s.registry.Get(modelID)
	if err != nil {
		logging.LogSegmentationFailed(ctx, s.logger, err)
		return nil, err
	}
	return s.SplitForLimit(ctx, text, limit)
}

// SplitWithParagraphMap splits text into paragraphs and chunks each paragraph by
// characters, recording the paragraph index of every chunk.
func (s *Service) SplitWithParagraphMap(ctx context.Context, text string, maxChunkSize int) (segment.Result, error) {
	return s.Segment(ctx, Request{
		Text:       text,
		Limit:      provider.ModelLimit{Unit: segment.UnitCharacters, MaxSize: maxChunkSize},
		Paragraphs: true,
	})
}

// Segment runs a single request and returns the full result, including the
// truncation flag.
func (s *Service) Segment(ctx context.Context, req Request) (segment.Result, error) {
	ctx = s.ensureCorrelation(ctx)
	if req.Limit.ModelID != "" {
		ctx = logging.WithModelID(ctx, req.Limit.ModelID)
	}

	operation := "split"
	if req.Paragraphs {
		operation = "paragraphs"
	}
	ctx, span := s.tracer.StartSegmentSpan(ctx, operation, req.Limit.ModelID, req.Limit.Unit.String(), req.Limit.MaxSize)

	start := s.now()
	chunker, counter, err := s.chunker(req.Limit)
	if err != nil {
		logging.LogSegmentationFailed(ctx, s.logger, err)
		span.EndWithError(err)
		return segment.Result{}, err
	}

	var res segment.Result
	if req.Paragraphs {
		res = chunker.ChunkParagraphs(req.Text)
	} else {
		res = chunker.Chunk(req.Text)
	}
	duration := s.now().Sub(start)

	inputSize := counter.Size(req.Text)
	paragraphs := paragraphCount(res)
	span.SetInput(inputSize)
	span.SetResult(len(res.Chunks), paragraphs, res.Truncated)
	span.End()

	unit := req.Limit.Unit.String()
	if res.Truncated {
		logging.LogTruncation(ctx, s.logger, unit, req.Limit.MaxSize)
	}
	logging.LogSegmentationComplete(ctx, s.logger, unit, req.Limit.MaxSize, len(res.Chunks), duration)

	s.record(ctx, &metrics.RunRecord{
		ModelID:        req.Limit.ModelID,
		Provider:       req.Limit.Provider,
		Unit:           unit,
		MaxSize:        req.Limit.MaxSize,
		InputSize:      inputSize,
		ChunkCount:     len(res.Chunks),
		ParagraphCount: paragraphs,
		Truncated:      res.Truncated,
		Duration:       duration,
	})

	return res, nil
}

// Count returns the size of text under unit. encoding is used only for tokens.
func (s *Service) Count(ctx context.Context, text string, unit segment.CountingUnit, encoding string) (int, error) {
	n, err := segment.Size(text, unit, encoding, s.tokenizers)
	if err != nil {
		logging.LogSegmentationFailed(s.ensureCorrelation(ctx), s.logger, err)
		return 0, err
	}
	return n, nil
}

// SplitBatch segments independent texts concurrently under the same limit.
// Results are in input order. The first error cancels the remaining work.
func (s *Service) SplitBatch(ctx context.Context, texts []string, limit provider.ModelLimit) ([]segment.Result, error) {
	// Resolve the counter once so configuration errors surface before any work starts.
	if _, _, err := s.chunker(limit); err != nil {
		logging.LogSegmentationFailed(s.ensureCorrelation(ctx), s.logger, err)
		return nil, err
	}

	ctx = s.ensureCorrelation(ctx)
	ctx, span := s.tracer.StartBatchSpan(ctx, len(texts), s.concurrency)

	results := make([]segment.Result, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Segment(gctx, Request{Text: text, Limit: limit})
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.EndWithError(err)
		return nil, err
	}
	span.End()
	return results, nil
}

// chunker validates limit and builds the chunker and counter for it.
func (s *Service) chunker(limit provider.ModelLimit) (*segment.Chunker, segment.Counter, error) {
	if limit.MaxSize <= 0 {
		err := domainErrors.InvalidLimit(limit.MaxSize)
		if limit.ModelID != "" {
			err = domainErrors.WithContext(err, "model_id", limit.ModelID)
		}
		return nil, nil, err
	}
	counter, err := segment.NewCounter(limit.Unit, limit.EncodingName, s.tokenizers)
	if err != nil {
		return nil, nil, err
	}
	chunker, err := segment.NewChunker(counter, limit.MaxSize)
	if err != nil {
		return nil, nil, err
	}
	return chunker, counter, nil
}

func (s *Service) ensureCorrelation(ctx context.Context) context.Context {
	if logging.CorrelationID(ctx) != "" {
		return ctx
	}
	return logging.WithCorrelationID(ctx, uuid.New().String())
}

// record persists a run. Failures are logged and never reach the caller.
func (s *Service) record(ctx context.Context, run *metrics.RunRecord) {
	if s.runs == nil {
		return
	}
	run.ID = uuid.New().String()
	run.CreatedAt = s.now()
	run.CorrelationID = logging.CorrelationID(ctx)

	if err := s.runs.SaveRun(logging.WithRunID(ctx, run.ID), run); err != nil {
		s.logger.WarnContext(logging.WithRunID(ctx, run.ID), "failed to record run", "error", err.Error())
	}
}

// paragraphCount returns the number of distinct paragraphs in a mapped result.
func paragraphCount(res segment.Result) int {
	if n := len(res.ParagraphIndices); n > 0 {
		return res.ParagraphIndices[n-1] + 1
	}
	return 0
}
