package textproc

import (
	"strings"
	"testing"
)

// --- EstimateTokens ---

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tc := range cases {
		if got := EstimateTokens(tc.in); got != tc.want {
			t.Fatalf("EstimateTokens(%q) = %d; want %d", tc.in, got, tc.want)
		}
	}
}

func TestEstimateTokens_CountsRunesNotBytes(t *testing.T) {
	// 4 multibyte runes estimate the same as 4 ASCII characters.
	if got := EstimateTokens("αβγδ"); got != 1 {
		t.Fatalf("EstimateTokens multibyte = %d; want 1", got)
	}
}

// --- Clean ---

func TestClean_Normalization(t *testing.T) {
	in := "  Hello\t\tworld.\r\nNext\rline.\n\n\n\nFinal\x00 paragraph.  "
	got := Clean(in)

	if strings.Contains(got, "\t") || strings.Contains(got, "\r") || strings.Contains(got, "\x00") {
		t.Fatalf("Clean left raw control chars: %q", got)
	}
	if strings.Contains(got, "  ") {
		t.Fatalf("Clean left double spaces: %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("Clean left newline runs: %q", got)
	}
	if strings.HasPrefix(got, " ") || strings.HasSuffix(got, " ") {
		t.Fatalf("Clean did not trim: %q", got)
	}
	if !strings.HasPrefix(got, "Hello world.") {
		t.Fatalf("unexpected cleaned text: %q", got)
	}
}

func TestClean_EmptyAndWhitespaceOnly(t *testing.T) {
	if Clean("") != "" || Clean(" \n \t ") != "" {
		t.Fatalf("Clean of blank input should be empty")
	}
}

// --- SplitSentences ---

func TestSplitSentences_Basic(t *testing.T) {
	got := SplitSentences("Hello world. This is a test. Short!")
	want := []string{"Hello world.", "This is a test.", "Short!"}
	if len(got) != len(want) {
		t.Fatalf("got %d sentences %v; want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sentence %d = %q; want %q", i, got[i], want[i])
		}
	}
}

func TestSplitSentences_NoSplitBeforeLowercase(t *testing.T) {
	// Abbreviation-style periods followed by lowercase must not split.
	got := SplitSentences("The cost is approx. ten dollars. Next sentence.")
	if len(got) != 2 {
		t.Fatalf("got %v; want 2 sentences", got)
	}
	if got[0] != "The cost is approx. ten dollars." {
		t.Fatalf("abbreviation split wrongly: %q", got[0])
	}
}

func TestSplitSentences_NoTerminator(t *testing.T) {
	got := SplitSentences("no terminator at all")
	if len(got) != 1 || got[0] != "no terminator at all" {
		t.Fatalf("got %v; want single passthrough sentence", got)
	}
}

func TestSplitSentences_QuestionAndExclamation(t *testing.T) {
	got := SplitSentences("Really? Yes! Fine.")
	if len(got) != 3 {
		t.Fatalf("got %v; want 3 sentences", got)
	}
}

// --- Chunker ---

func TestChunker_SingleChunkUnderBudget(t *testing.T) {
	c := NewChunker()
	chunks := c.Chunk("Hello world. This is a test.")
	if len(chunks) != 1 {
		t.Fatalf("got %d chunks; want 1", len(chunks))
	}
	if chunks[0].Index != 0 || chunks[0].Text != "Hello world. This is a test." {
		t.Fatalf("unexpected chunk: %+v", chunks[0])
	}
	if chunks[0].Tokens != EstimateTokens(chunks[0].Text) {
		t.Fatalf("chunk token estimate mismatch")
	}
}

func TestChunker_EmptyInput(t *testing.T) {
	if got := NewChunker().Chunk("   \n  "); got != nil {
		t.Fatalf("blank input should produce no chunks, got %v", got)
	}
}

func TestChunker_RespectsBudgetAndOverlap(t *testing.T) {
	// Each sentence is ~10 tokens; budget 25 forces packing of at most 2.
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteString("This sentence has exactly forty characters")
		b.WriteString(". ")
	}
	c := &Chunker{Budget: 25, Overlap: 1}
	chunks := c.Chunk(b.String())

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if ch.Index != i {
			t.Fatalf("chunk %d has Index %d", i, ch.Index)
		}
		if ch.Tokens > c.Budget {
			t.Fatalf("chunk %d exceeds budget: %d > %d", i, ch.Tokens, c.Budget)
		}
	}

	// Overlap: each chunk after the first starts with the previous chunk's
	// last sentence.
	for i := 1; i < len(chunks); i++ {
		prev := SplitSentences(chunks[i-1].Text)
		cur := SplitSentences(chunks[i].Text)
		if len(prev) == 0 || len(cur) == 0 {
			t.Fatalf("empty sentence split in chunk %d", i)
		}
		if cur[0] != prev[len(prev)-1] {
			t.Fatalf("chunk %d does not carry overlap: first %q, prev last %q", i, cur[0], prev[len(prev)-1])
		}
	}
}

func TestChunker_EverySentenceCovered(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString("Alpha beta gamma delta epsilon zeta eta theta")
		b.WriteString(". ")
	}
	c := &Chunker{Budget: 30, Overlap: 1}
	chunks := c.Chunk(b.String())

	joined := " "
	for _, ch := range chunks {
		joined += ch.Text + " "
	}
	for _, s := range SplitSentences(Clean(b.String())) {
		if !strings.Contains(joined, s) {
			t.Fatalf("sentence %q missing from chunk output", s)
		}
	}
}

func TestChunker_OversizedSentenceOwnChunk(t *testing.T) {
	huge := "Word " + strings.Repeat("filler ", 100) + "end."
	text := "Short one. " + huge + " Short two."
	c := &Chunker{Budget: 20, Overlap: 1}
	chunks := c.Chunk(text)

	found := false
	for _, ch := range chunks {
		if strings.Contains(ch.Text, "filler") {
			found = true
			if strings.Contains(ch.Text, "Short one") || strings.Contains(ch.Text, "Short two") {
				t.Fatalf("oversized sentence not isolated: %q", ch.Text)
			}
			if ch.Tokens <= c.Budget {
				t.Fatalf("oversized chunk should exceed budget, got %d", ch.Tokens)
			}
		}
	}
	if !found {
		t.Fatalf("oversized sentence missing from chunks: %v", chunks)
	}
}

func TestChunker_ZeroOverlap(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 6; i++ {
		b.WriteString("Another sentence with a handful of words here")
		b.WriteString(". ")
	}
	c := &Chunker{Budget: 25, Overlap: 0}
	chunks := c.Chunk(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i := 1; i < len(chunks); i++ {
		prev := SplitSentences(chunks[i-1].Text)
		cur := SplitSentences(chunks[i].Text)
		if cur[0] == prev[len(prev)-1] {
			t.Fatalf("overlap carried with Overlap=0 at chunk %d", i)
		}
	}
}
