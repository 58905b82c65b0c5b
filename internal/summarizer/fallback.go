package summarizer

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// Defaults for the two-tier extraction.
const (
	DefaultRatio      = 0.2
	DefaultRetryRatio = 0.4
	DefaultMinLength  = 40
)

// Source records which step of the strategy produced a summary.
type Source string

const (
	SourceExtract       Source = "extract"
	SourceRetry         Source = "extract_retry"
	SourceFirstSentence Source = "first_sentence"
)

// Strategy wraps a Summarizer with the retry and first-sentence fallback.
type Strategy struct {
	Summarizer Summarizer
	Ratio      float64
	RetryRatio float64
	MinLength  int // runes
	Logger     *slog.Logger
}

// NewStrategy returns a Strategy with default ratios around s.
func NewStrategy(s Summarizer) *Strategy {
	return &Strategy{
		Summarizer: s,
		Ratio:      DefaultRatio,
		RetryRatio: DefaultRetryRatio,
		MinLength:  DefaultMinLength,
	}
}

// SummarizeText runs the default strategy with s.
func SummarizeText(s Summarizer, text string) string {
	out, _ := NewStrategy(s).Summarize(text)
	return out
}

// Summarize never fails: summarizer errors and blank results fall back to
// the first sentence of text.
func (st *Strategy) Summarize(text string) (string, Source) {
	summary, err := st.Summarizer.Summarize(text, st.Ratio)
	if err != nil {
		st.logFallback(err)
		return FirstSentence(text), SourceFirstSentence
	}
	source := SourceExtract
	if utf8.RuneCountInString(summary) < st.MinLength {
		summary, err = st.Summarizer.Summarize(text, st.RetryRatio)
		if err != nil {
			st.logFallback(err)
			return FirstSentence(text), SourceFirstSentence
		}
		source = SourceRetry
	}
	if strings.TrimSpace(summary) == "" {
		return FirstSentence(text), SourceFirstSentence
	}
	return strings.TrimSpace(summary), source
}

func (st *Strategy) logFallback(err error) {
	if st.Logger != nil {
		st.Logger.Debug("summarizer failed, using first sentence", slog.String("error", err.Error()))
	}
}

// FirstSentence returns the text up to the first period. Leading empty
// fragments are skipped, and text with no usable fragment is returned as is.
func FirstSentence(text string) string {
	for _, frag := range strings.Split(text, ".") {
		if s := strings.TrimSpace(frag); s != "" {
			return s
		}
	}
	return text
}
