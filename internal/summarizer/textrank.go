// Package summarizer produces extractive summaries of notes.
package summarizer

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"

	textrank "github.com/DavidBelicza/TextRank/v2"
)

// ErrInvalidRatio is returned when the requested ratio is outside (0, 1].
var ErrInvalidRatio = errors.New("summarizer: ratio must be in (0, 1]")

// ErrNoSentences is returned for input without any extractable sentence.
var ErrNoSentences = errors.New("summarizer: no sentences in input")

// Summarizer maps text and a compression ratio to an extracted summary.
type Summarizer interface {
	Summarize(text string, ratio float64) (string, error)
}

// SummarizerFunc adapts a plain function to Summarizer.
type SummarizerFunc func(text string, ratio float64) (string, error)

// Summarize calls fn.
func (fn SummarizerFunc) Summarize(text string, ratio float64) (string, error) {
	return fn(text, ratio)
}

// TextRank ranks sentences with the TextRank graph from
// github.com/DavidBelicza/TextRank and keeps the top fraction in original
// order.
type TextRank struct{}

// NewTextRank returns a TextRank summarizer.
func NewTextRank() *TextRank { return &TextRank{} }

// Summarize keeps at most int(len(sentences)*ratio) sentences. The result
// can be empty for short inputs; callers decide how to fall back.
func (TextRank) Summarize(text string, ratio float64) (string, error) {
	if ratio <= 0 || ratio > 1 || math.IsNaN(ratio) {
		return "", fmt.Errorf("%w: %v", ErrInvalidRatio, ratio)
	}
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return "", ErrNoSentences
	}

	keep := int(float64(len(sentences)) * ratio)
	if keep == 0 {
		return "", nil
	}

	tr := textrank.NewTextRank()
	tr.Populate(text, textrank.NewDefaultLanguage(), textrank.NewDefaultRule())
	tr.Ranking(textrank.NewDefaultAlgorithm())

	picked := textrank.FindSentencesByRelationWeight(tr, keep)
	if len(picked) > keep {
		picked = picked[:keep]
	}
	sort.Slice(picked, func(a, b int) bool { return picked[a].ID < picked[b].ID })

	out := make([]string, 0, len(picked))
	for _, p := range picked {
		if v := strings.TrimSpace(p.Value); v != "" {
			out = append(out, v)
		}
	}
	return strings.Join(out, "\n"), nil
}

// splitSentences breaks text on terminal punctuation and line breaks,
// keeping the punctuation with its sentence. Its count sizes the summary.
func splitSentences(text string) []string {
	var out []string
	var cur strings.Builder
	flush := func() {
		s := strings.TrimSpace(cur.String())
		cur.Reset()
		if s != "" && strings.IndexFunc(s, isWordRune) >= 0 {
			out = append(out, s)
		}
	}
	for _, r := range text {
		switch r {
		case '\n', '\r':
			flush()
		case '.', '!', '?':
			cur.WriteRune(r)
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return out
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
