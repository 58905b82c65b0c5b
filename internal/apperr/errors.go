// Package apperr holds the sentinel errors shared across NeuroNote packages.
package apperr

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrInvalid    = errors.New("invalid input")
	ErrNoNotes    = errors.New("no notes to export")
	ErrInvalidDir = errors.New("invalid export directory")
	ErrPathEscape = errors.New("export path escapes target directory")
)
