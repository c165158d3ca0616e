package rewrite

import (
	"context"

	"github.com/rewriteguard/rewrite-backend/internal/textproc"
)

// GenerationResult is the generated text for one chunk plus its token
// accounting.
type GenerationResult struct {
	// Text is the generated rewrite of the chunk.
	Text string
	// InputTokens is the estimated token count of prefix + chunk.
	InputTokens int
	// OutputTokens is the estimated token count of the generated text.
	OutputTokens int
}

// Dispatcher invokes the generation capability once per chunk, building the
// prompt from the mode prefix and applying the mode's parameter preset. It
// carries no timeout logic of its own; the orchestrator owns the deadline and
// passes it down through ctx.
type Dispatcher struct {
	capability *Capability
}

// NewDispatcher returns a Dispatcher over the given capability.
func NewDispatcher(capability *Capability) *Dispatcher {
	return &Dispatcher{capability: capability}
}

// Generate runs one chunk through the capability with prompt = prefix + text.
// When the capability is unavailable it degrades to the deterministic mock
// transform for the mode instead of failing; degraded reports which path
// produced the result. A generation error from a ready capability is returned
// as-is, except context cancellation, which always propagates.
func (d *Dispatcher) Generate(ctx context.Context, chunk textproc.Chunk, mode Mode, cfg ModeConfig, maxOutputTokens int) (GenerationResult, bool, error) {
	prompt := cfg.Prefix + chunk.Text
	res := GenerationResult{InputTokens: textproc.EstimateTokens(prompt)}

	gen, err := d.capability.Generator()
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return GenerationResult{}, false, cerr
		}
		res.Text = MockTransform(chunk.Text, mode)
		res.OutputTokens = textproc.EstimateTokens(res.Text)
		return res, true, nil
	}

	out, err := gen.Generate(ctx, prompt, Params{
		MaxOutputTokens: maxOutputTokens,
		Beams:           cfg.Beams,
		Sampling:        cfg.Sampling,
		Temperature:     cfg.Temperature,
		NoRepeatNGram:   cfg.NoRepeatNGram,
		LengthPenalty:   cfg.LengthPenalty,
	})
	if err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return GenerationResult{}, false, cerr
		}
		return GenerationResult{}, false, err
	}

	res.Text = out
	res.OutputTokens = textproc.EstimateTokens(out)
	return res, false, nil
}

// GenerateAll processes a request's chunks strictly in order; ordering is
// what lets the reassembler detect overlap at the seams, so chunks of one
// request are never parallelized. It stops early when ctx is done so an
// expired deadline abandons the remaining chunks.
func (d *Dispatcher) GenerateAll(ctx context.Context, chunks []textproc.Chunk, mode Mode, cfg ModeConfig, maxOutputTokens int) ([]GenerationResult, bool, error) {
	results := make([]GenerationResult, 0, len(chunks))
	degraded := false
	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		res, deg, err := d.Generate(ctx, chunk, mode, cfg, maxOutputTokens)
		if err != nil {
			return nil, false, err
		}
		degraded = degraded || deg
		results = append(results, res)
	}
	return results, degraded, nil
}
