package rewrite

import (
	"strings"
	"testing"
)

func TestParseMode(t *testing.T) {
	cases := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeStandard, false},
		{"standard", ModeStandard, false},
		{"formal", ModeFormal, false},
		{"casual", ModeCasual, false},
		{"creative", ModeCreative, false},
		{"concise", ModeConcise, false},
		{"FORMAL", "", true},
		{"poetic", "", true},
	}
	for _, tc := range cases {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("ParseMode(%q) should fail", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("ParseMode(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestModes_CoversAllParseable(t *testing.T) {
	for _, m := range Modes() {
		if _, err := ParseMode(string(m)); err != nil {
			t.Fatalf("mode %q listed but not parseable", m)
		}
	}
}

func TestConfigFor_DeterministicModes(t *testing.T) {
	for _, m := range []Mode{ModeStandard, ModeFormal, ModeCasual, ModeConcise} {
		cfg := ConfigFor(m, 0.95)
		if cfg.Sampling {
			t.Fatalf("mode %q should not sample", m)
		}
		if cfg.Temperature != 0.7 {
			t.Fatalf("mode %q must pin temperature at 0.7, got %v", m, cfg.Temperature)
		}
		if cfg.Beams != 5 || cfg.NoRepeatNGram != 3 {
			t.Fatalf("mode %q preset unexpected: %+v", m, cfg)
		}
	}
}

func TestConfigFor_CreativeUsesRequestTemperature(t *testing.T) {
	cfg := ConfigFor(ModeCreative, 0.95)
	if !cfg.Sampling || cfg.Temperature != 0.95 {
		t.Fatalf("creative preset unexpected: %+v", cfg)
	}
}

func TestConfigFor_ConciseLengthPenalty(t *testing.T) {
	if cfg := ConfigFor(ModeConcise, 0.7); cfg.LengthPenalty != 0.8 {
		t.Fatalf("concise length penalty = %v; want 0.8", cfg.LengthPenalty)
	}
	if cfg := ConfigFor(ModeStandard, 0.7); cfg.LengthPenalty != 1.0 {
		t.Fatalf("standard length penalty = %v; want 1.0", cfg.LengthPenalty)
	}
}

func TestConfigFor_Prefixes(t *testing.T) {
	cases := map[Mode]string{
		ModeStandard: "paraphrase: ",
		ModeFormal:   "paraphrase in formal language: ",
		ModeCasual:   "paraphrase in casual language: ",
		ModeCreative: "paraphrase creatively: ",
		ModeConcise:  "paraphrase concisely: ",
	}
	for m, want := range cases {
		if got := ConfigFor(m, 0.7).Prefix; got != want {
			t.Fatalf("prefix for %q = %q; want %q", m, got, want)
		}
	}
	// Unknown modes fall back to the standard prefix.
	if got := ConfigFor(Mode("bogus"), 0.7).Prefix; !strings.HasPrefix(got, "paraphrase: ") {
		t.Fatalf("unknown mode prefix = %q", got)
	}
}
