package rewrite

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rewriteguard/rewrite-backend/internal/textproc"
)

func chunkOf(text string) textproc.Chunk {
	return textproc.Chunk{Index: 0, Text: text, Tokens: textproc.EstimateTokens(text)}
}

func TestDispatcher_ReadyCapability(t *testing.T) {
	var gotPrompt string
	var gotParams Params
	gen := stubGenerator{fn: func(ctx context.Context, prompt string, params Params) (string, error) {
		gotPrompt = prompt
		gotParams = params
		return "rewritten text", nil
	}}
	d := NewDispatcher(NewCapability(func() (Generator, error) { return gen, nil }))

	cfg := ConfigFor(ModeFormal, 0.7)
	res, degraded, err := d.Generate(context.Background(), chunkOf("Original text."), ModeFormal, cfg, 512)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if degraded {
		t.Fatalf("ready capability should not degrade")
	}
	if gotPrompt != cfg.Prefix+"Original text." {
		t.Fatalf("prompt = %q", gotPrompt)
	}
	if gotParams.MaxOutputTokens != 512 || gotParams.Beams != 5 || gotParams.Sampling {
		t.Fatalf("params = %+v", gotParams)
	}
	if res.Text != "rewritten text" {
		t.Fatalf("result text = %q", res.Text)
	}
	if res.InputTokens != textproc.EstimateTokens(gotPrompt) || res.OutputTokens != textproc.EstimateTokens("rewritten text") {
		t.Fatalf("token accounting unexpected: %+v", res)
	}
}

func TestDispatcher_DegradesToMock(t *testing.T) {
	d := NewDispatcher(NewCapability(nil))

	res, degraded, err := d.Generate(context.Background(), chunkOf("Some input."), ModeCasual, ConfigFor(ModeCasual, 0.7), 512)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !degraded {
		t.Fatalf("unavailable capability must report degraded")
	}
	if res.Text != MockTransform("Some input.", ModeCasual) {
		t.Fatalf("degraded output = %q", res.Text)
	}
	if res.OutputTokens == 0 {
		t.Fatalf("degraded output tokens not counted")
	}
}

func TestDispatcher_GenerationErrorPropagates(t *testing.T) {
	boom := errors.New("model crashed")
	gen := stubGenerator{fn: func(ctx context.Context, prompt string, params Params) (string, error) {
		return "", boom
	}}
	d := NewDispatcher(NewCapability(func() (Generator, error) { return gen, nil }))

	_, _, err := d.Generate(context.Background(), chunkOf("Text."), ModeStandard, ConfigFor(ModeStandard, 0.7), 512)
	if !errors.Is(err, boom) {
		t.Fatalf("want generation error, got %v", err)
	}
}

func TestDispatcher_ContextErrorWinsOverGenerationError(t *testing.T) {
	gen := stubGenerator{fn: func(ctx context.Context, prompt string, params Params) (string, error) {
		<-ctx.Done()
		return "", errors.New("interrupted mid-batch")
	}}
	d := NewDispatcher(NewCapability(func() (Generator, error) { return gen, nil }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := d.Generate(ctx, chunkOf("Text."), ModeStandard, ConfigFor(ModeStandard, 0.7), 512)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestGenerateAll_SequentialOrder(t *testing.T) {
	var prompts []string
	gen := stubGenerator{fn: func(ctx context.Context, prompt string, params Params) (string, error) {
		prompts = append(prompts, prompt)
		return "out " + prompt, nil
	}}
	d := NewDispatcher(NewCapability(func() (Generator, error) { return gen, nil }))

	chunks := []textproc.Chunk{chunkOf("First."), chunkOf("Second."), chunkOf("Third.")}
	results, degraded, err := d.GenerateAll(context.Background(), chunks, ModeStandard, ConfigFor(ModeStandard, 0.7), 512)
	if err != nil || degraded {
		t.Fatalf("GenerateAll: %v degraded=%v", err, degraded)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	// Strict input order; no interleaving within a request.
	for i, want := range []string{"First.", "Second.", "Third."} {
		if !strings.HasSuffix(prompts[i], want) {
			t.Fatalf("prompt %d = %q; want suffix %q", i, prompts[i], want)
		}
	}
}

func TestGenerateAll_StopsOnExpiredContext(t *testing.T) {
	calls := 0
	gen := stubGenerator{fn: func(ctx context.Context, prompt string, params Params) (string, error) {
		calls++
		return "out", nil
	}}
	d := NewDispatcher(NewCapability(func() (Generator, error) { return gen, nil }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := d.GenerateAll(ctx, []textproc.Chunk{chunkOf("A."), chunkOf("B.")}, ModeStandard, ConfigFor(ModeStandard, 0.7), 512)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expired context still invoked generation %d times", calls)
	}
}

func TestGenerateAll_DegradedSticky(t *testing.T) {
	d := NewDispatcher(NewCapability(nil))
	chunks := []textproc.Chunk{chunkOf("A."), chunkOf("B.")}
	_, degraded, err := d.GenerateAll(context.Background(), chunks, ModeStandard, ConfigFor(ModeStandard, 0.7), 512)
	if err != nil {
		t.Fatalf("GenerateAll: %v", err)
	}
	if !degraded {
		t.Fatalf("degraded flag lost across chunks")
	}
}
