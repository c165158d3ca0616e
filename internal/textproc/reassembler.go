package textproc

import (
	"regexp"
	"strings"
	"unicode"
)

// similarityThreshold is the word-set Jaccard score above which the trailing
// and leading sentence windows at a chunk seam are treated as duplicates.
const similarityThreshold = 0.8

// maxOverlapWindow caps how many boundary sentences are compared when probing
// for duplicated content at a seam.
const maxOverlapWindow = 3

var (
	multiSpaceRE = regexp.MustCompile(` +`)
	// prePunctRE removes whitespace wrongly inserted before punctuation.
	prePunctRE = regexp.MustCompile(`\s+([.!?,;:])`)
	// postPunctRE normalizes the gap between a terminator and the next
	// capitalized sentence to a single space.
	postPunctRE = regexp.MustCompile(`([.!?])\s*([A-Z])`)
)

// Merge joins ordered generated chunk texts into one coherent text, stripping
// duplicated content at chunk boundaries.
//
// For each seam it compares the last N sentences of the accumulated text with
// the first N of the next chunk, for N from min(3, available) down to 1, and
// drops the leading sentences of the next chunk at the first window whose
// word-set Jaccard similarity exceeds 0.8. Chunks are joined with a single
// space; existing paragraph breaks inside chunks are preserved.
//
// Note: duplication is detected on the generated text, not on the source
// sentences that produced it. Because generation rewords text, a duplicated
// source sentence can yield two outputs below the threshold (kept twice), and
// two lexically similar but unrelated sentences can be dropped.
func Merge(chunks []string) string {
	if len(chunks) == 0 {
		return ""
	}
	if len(chunks) == 1 {
		return strings.TrimSpace(chunks[0])
	}

	merged := strings.TrimSpace(chunks[0])

	for _, chunk := range chunks[1:] {
		current := strings.TrimSpace(chunk)
		if current == "" {
			continue
		}

		mergedSentences := splitAfterPunct(merged)
		currentSentences := splitAfterPunct(current)

		max := maxOverlapWindow
		if len(mergedSentences) < max {
			max = len(mergedSentences)
		}
		for size := max; size >= 1; size-- {
			if size > len(currentSentences) {
				continue
			}
			tail := strings.ToLower(strings.Join(mergedSentences[len(mergedSentences)-size:], " "))
			head := strings.ToLower(strings.Join(currentSentences[:size], " "))
			if jaccard(tail, head) > similarityThreshold {
				current = strings.Join(currentSentences[size:], " ")
				break
			}
		}

		if current == "" {
			continue
		}
		if merged != "" && !strings.HasSuffix(merged, " ") && !strings.HasSuffix(merged, "\n") {
			merged += " "
		}
		merged += current
	}

	return merged
}

// jaccard computes word-set Jaccard similarity between two strings.
func jaccard(a, b string) float64 {
	wa := strings.Fields(a)
	wb := strings.Fields(b)
	if len(wa) == 0 || len(wb) == 0 {
		return 0
	}

	set := make(map[string]struct{}, len(wa))
	for _, w := range wa {
		set[w] = struct{}{}
	}
	union := make(map[string]struct{}, len(wa)+len(wb))
	for _, w := range wa {
		union[w] = struct{}{}
	}
	inter := 0
	seen := make(map[string]struct{}, len(wb))
	for _, w := range wb {
		union[w] = struct{}{}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := set[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(union))
}

// CleanOutput polishes merged generation output: collapses repeated spaces,
// fixes spacing around punctuation, and capitalizes the first character.
func CleanOutput(text string) string {
	s := multiSpaceRE.ReplaceAllString(text, " ")
	s = prePunctRE.ReplaceAllString(s, "$1")
	s = postPunctRE.ReplaceAllString(s, "$1 $2")
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

// TrimLength trims text to the given constraints, preferring whole-sentence
// cuts. maxSentences <= 0 and maxChars <= 0 disable the respective limit.
//
// Sentence trimming runs first: the text is cut to maxSentences sentences and
// terminal punctuation is appended when missing. Character trimming then
// keeps the longest prefix of whole sentences that fits; if no complete
// sentence fits, the text is hard-cut at a word boundary with an ellipsis.
func TrimLength(text string, maxChars, maxSentences int) string {
	if text == "" {
		return text
	}

	if maxSentences > 0 {
		sentences := splitAfterPunct(text)
		if len(sentences) > maxSentences {
			text = strings.Join(sentences[:maxSentences], " ")
			if text != "" && !strings.ContainsRune(".!?", rune(text[len(text)-1])) {
				text += "."
			}
		}
	}

	if maxChars > 0 && len(text) > maxChars {
		sentences := splitAfterPunct(text)
		var trimmed string
		for _, sentence := range sentences {
			need := len(sentence)
			if trimmed != "" {
				need += 1 // joining space
			}
			if len(trimmed)+need > maxChars {
				break
			}
			if trimmed == "" {
				trimmed = sentence
			} else {
				trimmed += " " + sentence
			}
		}
		if trimmed == "" {
			if maxChars <= 3 {
				return text[:maxChars]
			}
			cut := text[:maxChars-3]
			if i := strings.LastIndexByte(cut, ' '); i > 0 {
				cut = cut[:i]
			}
			trimmed = cut + "..."
		}
		text = trimmed
	}

	return text
}
