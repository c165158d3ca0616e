// Package rewrite implements the rewrite processing pipeline: mode-conditioned
// generation dispatch, a bounded worker pool, and the orchestrator that ties
// chunking, generation, reassembly, caching, and quota gating into the
// end-to-end request lifecycle.
package rewrite

import "fmt"

// Mode is a rewrite style. The set is closed; ParseMode rejects anything else.
type Mode string

// Supported rewrite modes.
const (
	ModeStandard Mode = "standard"
	ModeFormal   Mode = "formal"
	ModeCasual   Mode = "casual"
	ModeCreative Mode = "creative"
	ModeConcise  Mode = "concise"
)

// Modes lists every supported mode in a stable order.
func Modes() []Mode {
	return []Mode{ModeStandard, ModeFormal, ModeCasual, ModeCreative, ModeConcise}
}

// ParseMode validates a mode string. An empty string selects ModeStandard.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "":
		return ModeStandard, nil
	case ModeStandard, ModeFormal, ModeCasual, ModeCreative, ModeConcise:
		return Mode(s), nil
	}
	return "", fmt.Errorf("unknown mode %q", s)
}

// ModeConfig carries the prompt prefix and generation-parameter preset for a
// mode. Only creative mode samples stochastically with the caller-supplied
// temperature; the other modes run deterministic beam search at a fixed 0.7
// regardless of what the request carries (the field is still echoed for API
// compatibility).
type ModeConfig struct {
	// Prefix is prepended to each chunk to form the generation prompt.
	Prefix string
	// Beams is the beam count for deterministic search.
	Beams int
	// Sampling enables stochastic sampling instead of beam search.
	Sampling bool
	// Temperature is the effective sampling temperature.
	Temperature float64
	// NoRepeatNGram is the no-repeat n-gram window size.
	NoRepeatNGram int
	// LengthPenalty biases output length; values < 1 favor shorter output.
	LengthPenalty float64
}

const (
	defaultBeams         = 5
	defaultTemperature   = 0.7
	defaultNoRepeatNGram = 3
)

// modePrefixes maps each mode to its generation prompt prefix.
var modePrefixes = map[Mode]string{
	ModeStandard: "paraphrase: ",
	ModeFormal:   "paraphrase in formal language: ",
	ModeCasual:   "paraphrase in casual language: ",
	ModeCreative: "paraphrase creatively: ",
	ModeConcise:  "paraphrase concisely: ",
}

// ConfigFor returns the generation preset for mode, applying the
// caller-supplied temperature only for creative mode.
func ConfigFor(mode Mode, requestTemperature float64) ModeConfig {
	cfg := ModeConfig{
		Prefix:        modePrefixes[ModeStandard],
		Beams:         defaultBeams,
		Temperature:   defaultTemperature,
		NoRepeatNGram: defaultNoRepeatNGram,
		LengthPenalty: 1.0,
	}
	if p, ok := modePrefixes[mode]; ok {
		cfg.Prefix = p
	}
	switch mode {
	case ModeCreative:
		cfg.Sampling = true
		cfg.Temperature = requestTemperature
	case ModeConcise:
		cfg.LengthPenalty = 0.8
	}
	return cfg
}
