// Service is the pipeline orchestrator: it composes the chunker, dispatcher,
// reassembler, cache gateway, and quota gate into the end-to-end request
// lifecycle, including worker-pool offload and the timeout boundary.
//
// Lifecycle: RECEIVED → quota check (authenticated callers only) → cache
// lookup → on hit respond; on miss chunk → generate (sequential, bounded) →
// reassemble → cache write-through → respond. Terminal failures: quota
// exceeded (before any generation cost), timeout (no cache write, work
// abandoned), internal error.
//
// Observability: public methods are OpenTelemetry-instrumented, and every
// pipeline execution emits one structured job record.
package rewrite

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rewriteguard/rewrite-backend/internal/cache"
	"github.com/rewriteguard/rewrite-backend/internal/domain"
	"github.com/rewriteguard/rewrite-backend/internal/quota"
	"github.com/rewriteguard/rewrite-backend/internal/textproc"
)

// Request bounds (spec'd by the public API schema).
const (
	MaxTextChars       = 10000
	MaxDetectTextChars = 20000
	MinMaxLength       = 50
	MaxMaxLength       = 1024
	DefaultTemperature = 0.7
	DefaultMaxLength   = 512
)

// conciseRatio is the fraction of original sentences kept in concise mode.
const conciseRatio = 0.7

// Request is one accepted rewrite request. Immutable once built; derived
// chunks and generation results live only for this request's execution.
type Request struct {
	// Text is the input to rewrite (1–10000 chars).
	Text string
	// Mode is the validated rewrite style.
	Mode Mode
	// Temperature is the caller-supplied temperature; only creative mode
	// uses it for sampling, the rest echo it for API compatibility.
	Temperature float64
	// MaxLength bounds generated tokens per chunk (50–1024).
	MaxLength int
	// UserID is the verified caller, or empty for anonymous requests.
	// Quota applies only when set.
	UserID string
}

// Result is the terminal success response of one rewrite request.
type Result struct {
	ParaphrasedText  string
	Mode             Mode
	ProcessingTimeMs float64
	InputTokens      int
	OutputTokens     int
	TotalTokens      int
	Cached           bool
	Degraded         bool
}

// DetectResult is the outcome of one detect request.
type DetectResult struct {
	Label            string
	Probability      float64
	ProcessingTimeMs float64
}

// JobRecorder persists immutable job records. Recording is best-effort: the
// orchestrator logs failures but never fails a request over them.
type JobRecorder interface {
	Record(ctx context.Context, job domain.Job) error
}

// Service orchestrates the rewrite pipeline. All fields are wired once at
// startup and the value is safe for concurrent use.
type Service struct {
	Chunker    *textproc.Chunker
	Dispatcher *Dispatcher
	Detector   Detector
	Cache      *cache.Gateway
	Quota      *quota.Gate // nil disables quota gating entirely
	Jobs       JobRecorder // nil disables persistence (logs only)
	Pool       *Pool

	// ParaphraseTimeout bounds the whole generation phase of one rewrite
	// request, summed across its chunks. There are no per-chunk budgets.
	ParaphraseTimeout time.Duration
	// DetectTimeout bounds the single-pass detect operation; it is shorter
	// than the rewrite bound.
	DetectTimeout time.Duration
}

// Paraphrase runs the full rewrite lifecycle for req.
//
// Returned errors: validation errors from this package, *quota.ExceededError,
// ErrTimeout, or an internal error. On ErrTimeout the offloaded work has been
// abandoned and no cache write happened.
func (s *Service) Paraphrase(ctx context.Context, req Request) (*Result, error) {
	tr := otel.Tracer("rewrite/Service")
	ctx, span := tr.Start(ctx, "Paraphrase",
		trace.WithAttributes(
			attribute.String("rewrite.mode", string(req.Mode)),
			attribute.Int("rewrite.input_chars", len(req.Text)),
		),
	)
	defer span.End()

	start := time.Now()
	jobID := uuid.NewString()

	if err := validate(req); err != nil {
		return nil, err
	}

	// Quota: authenticated callers are gated before any generation cost.
	words := int64(len(strings.Fields(req.Text)))
	if req.UserID != "" && s.Quota != nil {
		if _, err := s.Quota.Track(ctx, req.UserID, words, domain.CategoryParaphrase, true); err != nil {
			var exceeded *quota.ExceededError
			if errors.As(err, &exceeded) {
				return nil, exceeded
			}
			// Ledger-store failure never blocks the rewrite itself.
			log.Warn().Err(err).Str("user_id", req.UserID).Msg("usage tracking unavailable, proceeding")
		}
	}

	key := cache.Fingerprint(req.Text, string(req.Mode), req.Temperature, req.MaxLength)

	if payload, ok := s.Cache.Get(ctx, key); ok {
		cacheLookups.WithLabelValues("hit").Inc()
		res := &Result{
			ParaphrasedText:  payload.ParaphrasedText,
			Mode:             req.Mode,
			ProcessingTimeMs: msSince(start),
			InputTokens:      payload.InputTokens,
			OutputTokens:     payload.OutputTokens,
			TotalTokens:      payload.TotalTokens,
			Cached:           true,
		}
		s.record(ctx, jobID, req, res, domain.JobStatusCacheHit)
		return res, nil
	}
	cacheLookups.WithLabelValues("miss").Inc()

	// Offload the whole generation phase to the pool under one deadline.
	genCtx, cancel := context.WithTimeout(ctx, s.ParaphraseTimeout)
	defer cancel()

	var (
		finalText    string
		inputTokens  int
		outputTokens int
		degraded     bool
	)
	genStart := time.Now()
	err := s.Pool.Run(genCtx, func(ctx context.Context) error {
		chunks := s.Chunker.Chunk(req.Text)
		if len(chunks) == 0 {
			return ErrEmptyText
		}
		cfg := ConfigFor(req.Mode, req.Temperature)

		results, deg, err := s.Dispatcher.GenerateAll(ctx, chunks, req.Mode, cfg, req.MaxLength)
		if err != nil {
			return err
		}

		texts := make([]string, len(results))
		for i, r := range results {
			texts[i] = r.Text
			inputTokens += r.InputTokens
			outputTokens += r.OutputTokens
		}

		merged := textproc.CleanOutput(textproc.Merge(texts))
		if req.Mode == ModeConcise {
			original := len(textproc.SplitSentences(textproc.Clean(req.Text)))
			target := int(math.Floor(float64(original) * conciseRatio))
			if target < 1 {
				target = 1
			}
			merged = textproc.TrimLength(merged, 0, target)
		}

		finalText = merged
		degraded = deg
		return nil
	})
	generationSeconds.WithLabelValues(domain.CategoryParaphrase).Observe(time.Since(genStart).Seconds())

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.record(ctx, jobID, req, &Result{ProcessingTimeMs: msSince(start)}, domain.JobStatusTimeout)
			return nil, ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		s.record(ctx, jobID, req, &Result{ProcessingTimeMs: msSince(start)}, domain.JobStatusError)
		return nil, err
	}

	res := &Result{
		ParaphrasedText: finalText,
		Mode:            req.Mode,
		InputTokens:     inputTokens,
		OutputTokens:    outputTokens,
		TotalTokens:     inputTokens + outputTokens,
		Degraded:        degraded,
	}

	// Write-through only after full, successful completion; abandoned or
	// failed work must never become observable through the cache.
	s.Cache.Set(ctx, key, cache.Payload{
		ParaphrasedText: res.ParaphrasedText,
		Mode:            string(req.Mode),
		InputTokens:     res.InputTokens,
		OutputTokens:    res.OutputTokens,
		TotalTokens:     res.TotalTokens,
	})

	res.ProcessingTimeMs = msSince(start)
	s.record(ctx, jobID, req, res, domain.JobStatusSuccess)
	return res, nil
}

// Detect runs the single-pass classification operation under the shorter
// detection bound, on the same worker pool as rewriting.
func (s *Service) Detect(ctx context.Context, text, userID string) (*DetectResult, error) {
	tr := otel.Tracer("rewrite/Service")
	ctx, span := tr.Start(ctx, "Detect",
		trace.WithAttributes(attribute.Int("detect.input_chars", len(text))),
	)
	defer span.End()

	start := time.Now()
	jobID := uuid.NewString()

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, ErrEmptyText
	}
	if utf8.RuneCountInString(text) > MaxDetectTextChars {
		return nil, ErrTextTooLong
	}

	words := int64(len(strings.Fields(text)))
	if userID != "" && s.Quota != nil {
		if _, err := s.Quota.Track(ctx, userID, words, domain.CategoryDetect, true); err != nil {
			var exceeded *quota.ExceededError
			if errors.As(err, &exceeded) {
				return nil, exceeded
			}
			log.Warn().Err(err).Str("user_id", userID).Msg("usage tracking unavailable, proceeding")
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, s.DetectTimeout)
	defer cancel()

	var label string
	var probability float64
	genStart := time.Now()
	err := s.Pool.Run(genCtx, func(ctx context.Context) error {
		var derr error
		label, probability, derr = s.Detector.Detect(ctx, text)
		return derr
	})
	generationSeconds.WithLabelValues(domain.CategoryDetect).Observe(time.Since(genStart).Seconds())

	job := domain.Job{
		ID:         jobID,
		UserID:     userID,
		Kind:       domain.CategoryDetect,
		InputChars: len(text),
		LatencyMs:  msSince(start),
		CreatedAt:  time.Now().UTC(),
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			job.Status = domain.JobStatusTimeout
			s.persist(ctx, job)
			return nil, ErrTimeout
		}
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		job.Status = domain.JobStatusError
		s.persist(ctx, job)
		return nil, err
	}

	job.Status = domain.JobStatusSuccess
	s.persist(ctx, job)

	return &DetectResult{
		Label:            label,
		Probability:      probability,
		ProcessingTimeMs: msSince(start),
	}, nil
}

// validate enforces the declared request bounds before the pipeline runs.
func validate(req Request) error {
	if strings.TrimSpace(req.Text) == "" {
		return ErrEmptyText
	}
	if utf8.RuneCountInString(req.Text) > MaxTextChars {
		return ErrTextTooLong
	}
	if req.Temperature < 0 || req.Temperature > 1 {
		return ErrInvalidTemperature
	}
	if req.MaxLength < MinMaxLength || req.MaxLength > MaxMaxLength {
		return ErrInvalidMaxLength
	}
	return nil
}

// record builds and persists the single job record for a rewrite lifecycle
// and emits the structured job log line.
func (s *Service) record(ctx context.Context, jobID string, req Request, res *Result, status string) {
	job := domain.Job{
		ID:           jobID,
		UserID:       req.UserID,
		Kind:         domain.CategoryParaphrase,
		Mode:         string(req.Mode),
		Status:       status,
		Degraded:     res.Degraded,
		InputChars:   len(req.Text),
		OutputChars:  len(res.ParaphrasedText),
		InputTokens:  res.InputTokens,
		OutputTokens: res.OutputTokens,
		TotalTokens:  res.TotalTokens,
		LatencyMs:    res.ProcessingTimeMs,
		CreatedAt:    time.Now().UTC(),
	}
	s.persist(ctx, job)
}

// persist writes the job row best-effort and always logs the record.
func (s *Service) persist(ctx context.Context, job domain.Job) {
	pipelineReqs.WithLabelValues(job.Kind, job.Mode, job.Status).Inc()
	if job.Degraded {
		degradedTotal.Inc()
	}

	log.Info().
		Str("job_id", job.ID).
		Str("status", job.Status).
		Str("kind", job.Kind).
		Str("mode", job.Mode).
		Bool("degraded", job.Degraded).
		Int("input_chars", job.InputChars).
		Int("output_chars", job.OutputChars).
		Int("input_tokens", job.InputTokens).
		Int("output_tokens", job.OutputTokens).
		Int("total_tokens", job.TotalTokens).
		Float64("latency_ms", job.LatencyMs).
		Msg("job record")

	if s.Jobs == nil {
		return
	}
	if err := s.Jobs.Record(ctx, job); err != nil {
		log.Warn().Err(err).Str("job_id", job.ID).Msg("job record not persisted")
	}
}

// msSince returns elapsed milliseconds with sub-millisecond resolution.
func msSince(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
