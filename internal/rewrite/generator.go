package rewrite

import (
	"context"
	"errors"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrGenerationUnavailable indicates the external generation capability could
// not be initialized or executed. Callers degrade to the deterministic mock
// transform instead of failing the request.
var ErrGenerationUnavailable = errors.New("generation capability unavailable")

// Params are the generation parameters passed across the capability boundary
// for a single chunk.
type Params struct {
	// MaxOutputTokens bounds the generated length for one chunk.
	MaxOutputTokens int
	// Beams is the beam count when Sampling is false.
	Beams int
	// Sampling selects stochastic sampling over beam search.
	Sampling bool
	// Temperature is the sampling temperature.
	Temperature float64
	// NoRepeatNGram is the no-repeat n-gram window size.
	NoRepeatNGram int
	// LengthPenalty biases output length.
	LengthPenalty float64
}

// Generator is the opaque external text-generation capability:
// prompt + parameters in, generated text out. Implementations may block for
// unbounded time; the caller, not the capability, enforces any deadline via
// ctx. Implementations must be safe for concurrent use.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}

// Detector is the opaque external single-pass classification capability used
// by the detect operation. Same contract as Generator: the caller owns the
// deadline, implementations must be concurrency-safe.
type Detector interface {
	Detect(ctx context.Context, text string) (label string, probability float64, err error)
}

// CapabilityState is the typed readiness of a lazily initialized capability.
type CapabilityState int

// Capability states.
const (
	CapabilityUninitialized CapabilityState = iota
	CapabilityReady
	CapabilityUnavailable
)

// Capability wraps a Generator behind one-time, concurrency-guarded
// initialization with an explicit ready/unavailable state, so call sites
// branch on state instead of scattering nil checks.
type Capability struct {
	initFn func() (Generator, error)

	mu    sync.Mutex
	state CapabilityState
	gen   Generator
}

// NewCapability builds a Capability around initFn. Passing nil initFn yields
// a permanently unavailable capability, which is the supported configuration
// for environments without a model backend.
func NewCapability(initFn func() (Generator, error)) *Capability {
	return &Capability{initFn: initFn}
}

// Generator returns the ready generator, or ErrGenerationUnavailable when
// initialization failed or was never configured. Initialization runs at most
// once, on first use, regardless of concurrent callers.
func (c *Capability) Generator() (Generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == CapabilityUninitialized {
		if c.initFn == nil {
			c.state = CapabilityUnavailable
		} else if gen, err := c.initFn(); err != nil || gen == nil {
			c.state = CapabilityUnavailable
		} else {
			c.state = CapabilityReady
			c.gen = gen
		}
	}
	if c.state != CapabilityReady {
		return nil, ErrGenerationUnavailable
	}
	return c.gen, nil
}

// State reports the capability state without triggering initialization.
func (c *Capability) State() CapabilityState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// lowerCaser folds text for the conversational mock transforms.
var lowerCaser = cases.Lower(language.English)

// MockTransform is the deterministic per-mode fallback applied when the
// generation capability is unavailable. Output is tagged so degraded results
// are recognizable during development and testing.
func MockTransform(text string, mode Mode) string {
	switch mode {
	case ModeFormal:
		return "In formal terms, " + lowerCaser.String(text)
	case ModeCasual:
		return "So basically, " + lowerCaser.String(text)
	case ModeCreative:
		return "Reimagining this: " + text
	case ModeConcise:
		words := strings.Fields(text)
		if len(words) <= 1 {
			return text
		}
		return strings.Join(words[:len(words)/2], " ") + "..."
	default:
		return "[Paraphrased] " + text
	}
}

// MockDetector is the deterministic fallback Detector used when no
// classification backend is configured. It always reports human text.
type MockDetector struct{}

// Detect implements Detector.
func (MockDetector) Detect(ctx context.Context, text string) (string, float64, error) {
	if err := ctx.Err(); err != nil {
		return "", 0, err
	}
	return "human", 0.99, nil
}
