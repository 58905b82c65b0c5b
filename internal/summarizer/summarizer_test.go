package summarizer

import (
	"errors"
	"strings"
	"testing"

	"github.com/starford/neuronote/internal/models"
)

const article = `Go is an open source programming language. Go makes it simple to build secure, scalable systems.
The Go language was designed at Google. Many teams build network services in Go.
Concurrency in Go uses goroutines and channels. Goroutines are cheap to start.
The standard library of Go covers networking, encoding and testing. Testing in Go is built into the toolchain.
Go programs compile to a single static binary. Deploying a Go binary is simple.`

// locate returns where sentence starts in article, ignoring case, spacing
// and terminal punctuation, or -1.
func locate(sentence string) int {
	norm := func(s string) string { return strings.ToLower(strings.Join(strings.Fields(s), " ")) }
	return strings.Index(norm(article), norm(strings.TrimRight(sentence, ".!? ")))
}

func TestTextRank_KeepsRatio(t *testing.T) {
	out, err := NewTextRank().Summarize(article, 0.2)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out == "" {
		t.Fatal("summary is empty")
	}
	lines := strings.Split(out, "\n")
	if len(lines) > 2 {
		t.Errorf("got %d sentences, want at most 2: %q", len(lines), out)
	}
	for _, l := range lines {
		if locate(l) < 0 {
			t.Errorf("sentence %q not extracted from input", l)
		}
	}
}

func TestTextRank_PreservesOrder(t *testing.T) {
	out, _ := NewTextRank().Summarize(article, 0.5)
	last := -1
	for _, l := range strings.Split(out, "\n") {
		idx := locate(l)
		if idx < last {
			t.Fatalf("sentences out of order: %q", out)
		}
		last = idx
	}
}

func TestTextRank_ShortInputEmpty(t *testing.T) {
	out, err := NewTextRank().Summarize("One sentence. Two sentences.", 0.2)
	if err != nil {
		t.Fatalf("Summarize: %v", err)
	}
	if out != "" {
		t.Errorf("out = %q, want empty", out)
	}
}

func TestTextRank_Errors(t *testing.T) {
	tr := NewTextRank()
	if _, err := tr.Summarize(article, 0); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("ratio 0: err = %v", err)
	}
	if _, err := tr.Summarize(article, 1.5); !errors.Is(err, ErrInvalidRatio) {
		t.Errorf("ratio 1.5: err = %v", err)
	}
	if _, err := tr.Summarize(" ... ", 0.2); !errors.Is(err, ErrNoSentences) {
		t.Errorf("punctuation only: err = %v", err)
	}
}

func TestSummarizeText_NonEmpty(t *testing.T) {
	text := "Yapay zeka, günümüzde birçok alanda kullanılmaktadır. Eğitim, sağlık ve finans gibi sektörlerde önemli rol oynamaktadır."
	out := SummarizeText(NewTextRank(), text)
	if out == "" {
		t.Fatal("summary is empty")
	}
	if out != "Yapay zeka, günümüzde birçok alanda kullanılmaktadır" {
		t.Errorf("out = %q, want first sentence", out)
	}
}

func TestSummarizeText_NonEmptyForOddInputs(t *testing.T) {
	for _, in := range []string{"x", "   ", ".", "...a", "no period at all", "\n\n"} {
		if out := SummarizeText(NewTextRank(), in); out == "" {
			t.Errorf("SummarizeText(%q) returned empty", in)
		}
	}
}

func TestStrategy_RetriesWhenShort(t *testing.T) {
	var ratios []float64
	s := SummarizerFunc(func(_ string, ratio float64) (string, error) {
		ratios = append(ratios, ratio)
		if ratio < 0.3 {
			return "short", nil
		}
		return "a summary long enough to clear the minimum length", nil
	})
	out, src := NewStrategy(s).Summarize("whatever. text.")
	if len(ratios) != 2 || ratios[0] != DefaultRatio || ratios[1] != DefaultRetryRatio {
		t.Errorf("ratios = %v", ratios)
	}
	if src != SourceRetry || out != "a summary long enough to clear the minimum length" {
		t.Errorf("got %q from %s", out, src)
	}
}

func TestStrategy_NoRetryWhenLongEnough(t *testing.T) {
	calls := 0
	s := SummarizerFunc(func(string, float64) (string, error) {
		calls++
		return "  this first-pass summary is comfortably over forty runes  ", nil
	})
	out, src := NewStrategy(s).Summarize("text")
	if calls != 1 || src != SourceExtract {
		t.Errorf("calls = %d, source = %s", calls, src)
	}
	if out != "this first-pass summary is comfortably over forty runes" {
		t.Errorf("out = %q", out)
	}
}

func TestStrategy_WhitespaceFallsBack(t *testing.T) {
	s := SummarizerFunc(func(string, float64) (string, error) { return " \n ", nil })
	out, src := NewStrategy(s).Summarize("First part. Second part.")
	if out != "First part" || src != SourceFirstSentence {
		t.Errorf("got %q from %s", out, src)
	}
}

func TestStrategy_ErrorFallsBack(t *testing.T) {
	s := SummarizerFunc(func(string, float64) (string, error) { return "", errors.New("boom") })
	out, src := NewStrategy(s).Summarize("Head. Tail.")
	if out != "Head" || src != SourceFirstSentence {
		t.Errorf("got %q from %s", out, src)
	}
}

func TestStrategy_RetryErrorFallsBack(t *testing.T) {
	s := SummarizerFunc(func(_ string, ratio float64) (string, error) {
		if ratio > 0.3 {
			return "", errors.New("boom")
		}
		return "tiny", nil
	})
	if out, _ := NewStrategy(s).Summarize("Head. Tail."); out != "Head" {
		t.Errorf("out = %q", out)
	}
}

func TestFirstSentence(t *testing.T) {
	cases := map[string]string{
		"Hello world. Bye.": "Hello world",
		". Lead dot. x":     "Lead dot",
		"no period":         "no period",
		"   ":               "   ",
	}
	for in, want := range cases {
		if got := FirstSentence(in); got != want {
			t.Errorf("FirstSentence(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGroup(t *testing.T) {
	notes := []models.Note{
		{Title: "a", Content: "plain"},
		{Title: "b", Content: "about #work things"},
		{Title: "c", Content: "more #work"},
	}
	g := Group(notes)
	if len(g[DefaultCategory]) != 1 || len(g["work"]) != 2 {
		t.Errorf("groups = %v", g)
	}
	if g["work"][0].Title != "b" {
		t.Errorf("group order not preserved: %v", g["work"])
	}
}
