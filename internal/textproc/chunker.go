// Package textproc implements the pure text transforms of the rewrite
// pipeline: input cleaning, sentence-aware chunking under a token budget with
// sentence overlap, and overlap-aware reassembly of generated chunks.
//
// Everything in this package is deterministic and free of I/O, which keeps
// the pipeline's only non-trivial algorithms directly unit-testable.
package textproc

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultChunkBudget is the maximum estimated tokens per chunk, leaving
	// headroom for the mode prompt prefix within the model context window.
	DefaultChunkBudget = 450

	// DefaultOverlapSentences is how many trailing sentences of a closed
	// chunk are carried into the next one so the reassembler has context to
	// detect duplication at the seam.
	DefaultOverlapSentences = 1
)

// Chunk is a token-bounded contiguous span of sentences from the cleaned
// input. Tokens is an estimate and stays within the chunk budget except for
// the single-oversized-sentence case, where the sentence forms its own chunk.
type Chunk struct {
	// Index is the zero-based position of the chunk in the input order.
	Index int
	// Text is the chunk content: sentences joined by single spaces.
	Text string
	// Tokens is the estimated token count of Text.
	Tokens int
}

var (
	// hspaceRE collapses runs of horizontal whitespace to one space.
	hspaceRE = regexp.MustCompile(`[ \t]+`)
	// paraRE normalizes blank-ish line runs to a single paragraph break.
	paraRE = regexp.MustCompile(`\n\s*\n`)
	// nlRunRE collapses runs of 3+ newlines to a paragraph break.
	nlRunRE = regexp.MustCompile(`\n{3,}`)
)

// EstimateTokens returns a cheap token-count estimate for s. The heuristic is
// roughly one token per four characters, floored at one for non-empty input.
// The original pipeline asked its tokenizer for exact counts; the estimate
// only has to be stable and monotonic in text length for budget packing.
func EstimateTokens(s string) int {
	n := utf8.RuneCountInString(s)
	if n == 0 {
		return 0
	}
	t := (n + 3) / 4
	if t < 1 {
		t = 1
	}
	return t
}

// Clean normalizes raw input text for chunking:
//   - collapses runs of spaces/tabs to a single space,
//   - normalizes CRLF/CR to LF,
//   - collapses 3+ newlines (and blank-ish line runs) to one paragraph break,
//   - strips control characters other than newline and tab,
//   - trims surrounding whitespace.
func Clean(text string) string {
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = stripControl(s)
	s = hspaceRE.ReplaceAllString(s, " ")
	s = paraRE.ReplaceAllString(s, "\n\n")
	s = nlRunRE.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// stripControl removes C0/C1 control characters except '\n' and '\t'.
func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
}

// SplitSentences splits cleaned text into sentences using a boundary
// heuristic: a sentence ends at '.', '!' or '?' followed by whitespace and an
// uppercase letter. This is deliberately not a grammatical parser; common
// abbreviations followed by lowercase text do not trigger a split.
func SplitSentences(text string) []string {
	return splitSentences(text, true)
}

// splitAfterPunct splits at terminal punctuation followed by whitespace,
// without requiring the next sentence to start uppercase. The reassembler
// uses this looser variant because generated text does not always preserve
// casing at chunk boundaries.
func splitAfterPunct(text string) []string {
	return splitSentences(text, false)
}

func splitSentences(text string, requireUpper bool) []string {
	var out []string
	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Consume the whitespace run after the terminator.
		j := i + 1
		for j < len(runes) && unicode.IsSpace(runes[j]) {
			j++
		}
		if j == i+1 || j >= len(runes) {
			continue // no whitespace gap, or trailing punctuation
		}
		if requireUpper && !unicode.IsUpper(runes[j]) {
			continue
		}
		if s := strings.TrimSpace(string(runes[start : i+1])); s != "" {
			out = append(out, s)
		}
		start = j
		i = j - 1
	}
	if s := strings.TrimSpace(string(runes[start:])); s != "" {
		out = append(out, s)
	}
	return out
}

// Chunker packs sentences into token-bounded chunks with sentence overlap.
// The zero value is not usable; construct with NewChunker.
type Chunker struct {
	// Budget is the maximum estimated tokens per chunk.
	Budget int
	// Overlap is the number of trailing sentences carried into the next chunk.
	Overlap int
}

// NewChunker returns a Chunker with the default budget and overlap.
func NewChunker() *Chunker {
	return &Chunker{Budget: DefaultChunkBudget, Overlap: DefaultOverlapSentences}
}

// Chunk cleans text and splits it into an ordered sequence of chunks whose
// token estimates stay within the budget. A single sentence exceeding the
// budget becomes its own chunk. When a chunk fills, the last Overlap
// sentences are carried into the next chunk before packing continues, so
// every sentence of the cleaned input is covered at least once and seam
// sentences exactly twice.
func (c *Chunker) Chunk(text string) []Chunk {
	cleaned := Clean(text)
	if cleaned == "" {
		return nil
	}

	sentences := SplitSentences(cleaned)
	if len(sentences) == 0 {
		return []Chunk{{Index: 0, Text: cleaned, Tokens: EstimateTokens(cleaned)}}
	}

	var (
		chunks  []Chunk
		current []string
		length  int
	)

	flush := func() {
		if len(current) == 0 {
			return
		}
		text := strings.Join(current, " ")
		chunks = append(chunks, Chunk{Index: len(chunks), Text: text, Tokens: EstimateTokens(text)})
	}

	for _, sentence := range sentences {
		tokens := EstimateTokens(sentence)

		// An oversized sentence cannot be packed; it forms its own chunk.
		if tokens > c.Budget {
			flush()
			current, length = nil, 0
			chunks = append(chunks, Chunk{Index: len(chunks), Text: sentence, Tokens: tokens})
			continue
		}

		if length+tokens > c.Budget {
			flush()
			if c.Overlap > 0 && len(current) > 0 {
				carry := current
				if len(carry) > c.Overlap {
					carry = carry[len(carry)-c.Overlap:]
				}
				current = append(append([]string(nil), carry...), sentence)
				length = 0
				for _, s := range current {
					length += EstimateTokens(s)
				}
			} else {
				current = []string{sentence}
				length = tokens
			}
			continue
		}

		current = append(current, sentence)
		length += tokens
	}
	flush()

	return chunks
}
