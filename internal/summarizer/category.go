package summarizer

import (
	"github.com/starford/neuronote/internal/models"
	"github.com/starford/neuronote/internal/parser"
)

// DefaultCategory is used for notes without tags.
const DefaultCategory = "General"

// Categorize returns the first tag found in the note content, or
// DefaultCategory.
func Categorize(n models.Note) string {
	res, err := parser.Parse([]byte(n.Content))
	if err != nil || len(res.Tags) == 0 {
		return DefaultCategory
	}
	return res.Tags[0]
}

// Group buckets notes by category, preserving note order inside each bucket.
func Group(notes []models.Note) map[string][]models.Note {
	grouped := make(map[string][]models.Note)
	for _, n := range notes {
		c := Categorize(n)
		grouped[c] = append(grouped[c], n)
	}
	return grouped
}
