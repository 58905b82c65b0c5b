// Package export writes the active notes to a user-chosen directory as plain
// text or as a paginated PDF document.
package export

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/starford/neuronote/internal/apperr"
	"github.com/starford/neuronote/internal/models"
	"github.com/starford/neuronote/internal/storage"
)

// Output file names.
const (
	TextFile = "notes.txt"
	PDFFile  = "notes.pdf"
)

// Separator ends every note block in the text export.
var Separator = strings.Repeat("-", 40)

// Labels prefix the title and content lines of the text export.
type Labels struct {
	Title   string
	Content string
}

// DefaultLabels are the English field labels.
var DefaultLabels = Labels{Title: "Note Title", Content: "Note Content"}

// ResolveOutput returns the absolute output path for filename inside dir.
// dir must be an existing directory and the result must stay inside it.
func ResolveOutput(dir, filename string) (string, error) {
	if strings.TrimSpace(dir) == "" {
		return "", apperr.ErrInvalidDir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidDir, err)
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: %s", apperr.ErrInvalidDir, abs)
	}
	out := filepath.Join(abs, filename)
	if out == abs || !within(abs, out) {
		return "", fmt.Errorf("%w: %s", apperr.ErrPathEscape, out)
	}
	return out, nil
}

// ResolveDir resolves dir against root and returns it only when the result,
// after following symlinks, is root or a directory below it. A blank dir
// means root itself.
func ResolveDir(root, dir string) (string, error) {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("%w: %v", apperr.ErrInvalidDir, err)
	}
	rootReal, err := filepath.EvalSymlinks(rootAbs)
	if err != nil {
		return "", fmt.Errorf("%w: export root %s", apperr.ErrInvalidDir, rootAbs)
	}
	target := rootAbs
	if d := strings.TrimSpace(dir); d != "" {
		if filepath.IsAbs(d) {
			target = filepath.Clean(d)
		} else {
			target = filepath.Join(rootAbs, d)
		}
	}
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		if within(rootAbs, target) {
			return "", fmt.Errorf("%w: %s", apperr.ErrInvalidDir, target)
		}
		return "", fmt.Errorf("%w: %s", apperr.ErrPathEscape, target)
	}
	if !within(rootReal, resolved) {
		return "", fmt.Errorf("%w: %s", apperr.ErrPathEscape, target)
	}
	return resolved, nil
}

// within reports whether path is root or lies below it.
func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// Text writes notes to TextFile in dir and returns the written path.
func Text(notes []models.Note, dir string, labels Labels) (string, error) {
	if len(notes) == 0 {
		return "", apperr.ErrNoNotes
	}
	out, err := ResolveOutput(dir, TextFile)
	if err != nil {
		return "", err
	}
	if err := storage.WriteAtomic(out, RenderText(notes, labels)); err != nil {
		return "", fmt.Errorf("export: text: %w", err)
	}
	return out, nil
}

// RenderText formats notes as one labelled block per note.
func RenderText(notes []models.Note, labels Labels) []byte {
	var b bytes.Buffer
	for _, n := range notes {
		fmt.Fprintf(&b, "%s: %s\n", labels.Title, n.Title)
		fmt.Fprintf(&b, "%s: %s\n", labels.Content, n.Content)
		b.WriteString(Separator)
		b.WriteByte('\n')
	}
	return b.Bytes()
}

// PDF writes notes to PDFFile in dir, one page per note, and returns the
// written path.
func PDF(notes []models.Note, dir string) (string, error) {
	if len(notes) == 0 {
		return "", apperr.ErrNoNotes
	}
	out, err := ResolveOutput(dir, PDFFile)
	if err != nil {
		return "", err
	}
	data, err := RenderPDF(notes)
	if err != nil {
		return "", err
	}
	if err := storage.WriteAtomic(out, data); err != nil {
		return "", fmt.Errorf("export: pdf: %w", err)
	}
	return out, nil
}

// RenderPDF lays out notes on A4 pages with the core Helvetica font.
// Text outside cp1252 is transliterated by the font translator.
func RenderPDF(notes []models.Note) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, n := range notes {
		pdf.AddPage()
		pdf.SetFont("Helvetica", "B", 16)
		pdf.MultiCell(0, 8, tr(n.Title), "", "L", false)
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "", 12)
		pdf.MultiCell(0, 6, tr(n.Content), "", "L", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("export: render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
