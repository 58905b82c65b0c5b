package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/neuronote/internal/export"
	"github.com/starford/neuronote/internal/noteservice"
)

// Handler holds API route handlers.
type Handler struct {
	svc        *noteservice.Service
	exportRoot string
}

// NewHandler creates a new Handler. Export targets must resolve inside
// exportRoot.
func NewHandler(svc *noteservice.Service, exportRoot string) *Handler {
	return &Handler{svc: svc, exportRoot: exportRoot}
}

// ListNotes handles GET /notes.
//
//	@Summary		List active notes with their summaries
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	entries := h.svc.List(r.Context())
	items := make([]NoteItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, noteItem(e))
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /notes/{index}.
//
//	@Summary		Get a single note by position
//	@Tags			notes
//	@Produce		json
//	@Param			index	path		int	true	"Note position"
//	@Success		200		{object}	NoteItem
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{index} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	e, err := h.svc.Get(r.Context(), i)
	if err != nil {
		writeError(w, "get note", err)
		return
	}
	writeJSON(w, http.StatusOK, noteItem(e))
}

// NoteText handles GET /notes/{index}/text and returns "title\ncontent"
// for the clipboard.
func (h *Handler) NoteText(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	text, err := h.svc.CopyText(r.Context(), i)
	if err != nil {
		writeError(w, "copy note", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// CreateNote handles POST /notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteItem
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.svc.Save(r.Context(), req.Title, req.Content)
	if err != nil {
		writeError(w, "create note", err)
		return
	}
	writeJSON(w, http.StatusCreated, noteItem(e))
}

// UpdateNote handles PUT /notes/{index}. The summary is reset.
//
//	@Summary		Edit a note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			index	path		int			true	"Note position"
//	@Param			body	body		NoteRequest	true	"New title and content"
//	@Success		200		{object}	NoteItem
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{index} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	changed, err := h.svc.Edit(r.Context(), i, req.Title, req.Content)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	if !changed {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	e, err := h.svc.Get(r.Context(), i)
	if err != nil {
		writeError(w, "update note", err)
		return
	}
	writeJSON(w, http.StatusOK, noteItem(e))
}

// TrashNote handles DELETE /notes/{index}.
//
//	@Summary		Move a note to the trash
//	@Tags			notes
//	@Param			index	path	int	true	"Note position"
//	@Success		204		"Note trashed"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{index} [delete]
func (h *Handler) TrashNote(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	changed, err := h.svc.MoveToTrash(r.Context(), i)
	if err != nil {
		writeError(w, "trash note", err)
		return
	}
	if !changed {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Summarize handles POST /notes/{index}/summarize. The summary is computed
// in the background; clients learn about it from the summary.ready event.
//
//	@Summary		Start summarizing a note
//	@Tags			notes
//	@Produce		json
//	@Param			index	path		int	true	"Note position"
//	@Success		202		{object}	SummarizeResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{index}/summarize [post]
func (h *Handler) Summarize(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	task, err := h.svc.Summarize(r.Context(), i)
	if err != nil {
		writeError(w, "summarize note", err)
		return
	}
	writeJSON(w, http.StatusAccepted, SummarizeResponse{
		Token:    task.Token,
		Position: task.Position,
		Status:   "pending",
	})
}

// Groups handles GET /groups.
//
//	@Summary		Notes grouped by category
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	GroupsResponse
//	@Security		BearerAuth
//	@Router			/groups [get]
func (h *Handler) Groups(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, GroupsResponse{Groups: h.svc.Groups(r.Context())})
}

// ListTrash handles GET /trash.
//
//	@Summary		List trashed notes
//	@Tags			trash
//	@Produce		json
//	@Success		200	{object}	TrashListResponse
//	@Security		BearerAuth
//	@Router			/trash [get]
func (h *Handler) ListTrash(w http.ResponseWriter, r *http.Request) {
	notes := h.svc.Trash(r.Context())
	items := make([]TrashItem, 0, len(notes))
	for i, n := range notes {
		items = append(items, TrashItem{Position: i, Title: n.Title, Content: n.Content})
	}
	writeJSON(w, http.StatusOK, TrashListResponse{Trash: items, Total: len(items)})
}

// RestoreNote handles POST /trash/{index}/restore.
//
//	@Summary		Restore a trashed note
//	@Tags			trash
//	@Produce		json
//	@Param			index	path		int	true	"Trash position"
//	@Success		200		{object}	RestoreResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trash/{index}/restore [post]
func (h *Handler) RestoreNote(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	pos, changed, err := h.svc.Restore(r.Context(), i)
	if err != nil {
		writeError(w, "restore note", err)
		return
	}
	if !changed {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, RestoreResponse{Position: pos})
}

// PurgeNote handles DELETE /trash/{index}.
//
//	@Summary		Delete a trashed note forever
//	@Tags			trash
//	@Param			index	path	int	true	"Trash position"
//	@Success		204		"Note deleted"
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/trash/{index} [delete]
func (h *Handler) PurgeNote(w http.ResponseWriter, r *http.Request) {
	i, ok := indexParam(w, r)
	if !ok {
		return
	}
	changed, err := h.svc.DeleteForever(r.Context(), i)
	if err != nil {
		writeError(w, "purge note", err)
		return
	}
	if !changed {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles POST /export/{format} where format is txt or pdf.
//
//	@Summary		Export active notes to a directory
//	@Tags			export
//	@Accept			json
//	@Produce		json
//	@Param			format	path		string			true	"Output format"	Enums(txt, pdf)
//	@Param			body	body		ExportRequest	true	"Target directory, relative to the export root"
//	@Success		200		{object}	ExportResponse
//	@Failure		400		{object}	errResponse
//	@Failure		422		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/export/{format} [post]
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	format := chi.URLParam(r, "format")
	if format != "txt" && format != "pdf" {
		writeJSON(w, http.StatusBadRequest, errorBody("format must be txt or pdf"))
		return
	}
	var req ExportRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	dir, err := export.ResolveDir(h.exportRoot, req.Dir)
	if err != nil {
		writeError(w, "export "+format, err)
		return
	}

	var out string
	if format == "pdf" {
		out, err = h.svc.ExportPDF(r.Context(), dir)
	} else {
		out, err = h.svc.ExportText(r.Context(), dir)
	}
	if err != nil {
		writeError(w, "export "+format, err)
		return
	}
	slog.Info("notes exported", slog.String("format", format), slog.String("path", out))
	writeJSON(w, http.StatusOK, ExportResponse{Path: out})
}

// Search handles GET /search.
//
//	@Summary		Full-text search across notes and trash
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

