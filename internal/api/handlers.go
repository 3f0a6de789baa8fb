package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quillmark/internal/export"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/project"
	"github.com/starford/quillmark/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	project *project.Project
	session *session.Session
}

// NewHandler creates a new Handler.
func NewHandler(p *project.Project, s *session.Session) *Handler {
	return &Handler{project: p, session: s}
}

// ListChapters handles GET /api/chapters.
//
//	@Summary		List chapters in reading order, or fuzzy-find by title
//	@Tags			chapters
//	@Produce		json
//	@Param			q	query		string	false	"Fuzzy title query"
//	@Success		200	{object}	ChapterListResponse
//	@Security		BearerAuth
//	@Router			/chapters [get]
func (h *Handler) ListChapters(w http.ResponseWriter, r *http.Request) {
	list, err := h.project.FindChapters(r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, "list chapters", err)
		return
	}
	writeJSON(w, http.StatusOK, ChapterListResponse{Chapters: list})
}

// CreateChapter handles POST /api/chapters.
//
//	@Summary		Create a chapter ordered after all others
//	@Tags			chapters
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateChapterRequest	true	"Chapter title"
//	@Success		201		{object}	project.Chapter
//	@Security		BearerAuth
//	@Router			/chapters [post]
func (h *Handler) CreateChapter(w http.ResponseWriter, r *http.Request) {
	var req CreateChapterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	ch, err := h.project.AddChapter(req.Title)
	if err != nil {
		writeError(w, "create chapter", err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

// GetChapter handles GET /api/chapters/{id}.
//
//	@Summary		Get a chapter with its metadata and node sequence
//	@Tags			chapters
//	@Produce		json
//	@Param			id	path		string	true	"Chapter id"
//	@Success		200	{object}	project.Chapter
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/chapters/{id} [get]
func (h *Handler) GetChapter(w http.ResponseWriter, r *http.Request) {
	ch, err := h.project.LoadChapter(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "get chapter", err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// UpdateChapter handles PUT /api/chapters/{id}.
//
//	@Summary		Replace a chapter's metadata and body
//	@Tags			chapters
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Chapter id"
//	@Param			body	body		UpdateChapterRequest	true	"Metadata and body"
//	@Success		200		{object}	project.Chapter
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/chapters/{id} [put]
func (h *Handler) UpdateChapter(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.project.LoadChapter(id); err != nil {
		writeError(w, "update chapter", err)
		return
	}
	var req UpdateChapterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.project.SaveChapter(id, req.Meta, req.Body); err != nil {
		writeError(w, "update chapter", err)
		return
	}
	ch, err := h.project.LoadChapter(id)
	if err != nil {
		writeError(w, "update chapter", err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// DeleteChapter handles DELETE /api/chapters/{id}.
//
//	@Summary		Delete a chapter
//	@Tags			chapters
//	@Param			id	path	string	true	"Chapter id"
//	@Success		204	"Chapter deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/chapters/{id} [delete]
func (h *Handler) DeleteChapter(w http.ResponseWriter, r *http.Request) {
	if err := h.project.DeleteChapter(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete chapter", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DuplicateOrders handles GET /api/chapters/duplicates.
//
//	@Summary		Report order values shared by several chapters
//	@Tags			chapters
//	@Produce		json
//	@Success		200	{object}	map[string][]string
//	@Security		BearerAuth
//	@Router			/chapters/duplicates [get]
func (h *Handler) DuplicateOrders(w http.ResponseWriter, _ *http.Request) {
	dups, err := h.project.DuplicateOrders()
	if err != nil {
		writeError(w, "duplicate orders", err)
		return
	}
	out := make(map[string][]string, len(dups))
	for order, ids := range dups {
		out[strconv.Itoa(order)] = ids
	}
	writeJSON(w, http.StatusOK, out)
}

// Stats handles GET /api/stats.
//
//	@Summary		Manuscript chapter and word totals
//	@Tags			chapters
//	@Produce		json
//	@Success		200	{object}	StatsResponse
//	@Security		BearerAuth
//	@Router			/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, _ *http.Request) {
	list, err := h.project.ListChapters()
	if err != nil {
		writeError(w, "stats", err)
		return
	}
	resp := StatsResponse{Chapters: len(list)}
	for _, c := range list {
		resp.Words += c.WordCount
	}
	writeJSON(w, http.StatusOK, resp)
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across chapters
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
	results, err := h.project.Search(q, limit)
	if err != nil {
		writeError(w, "search", err)
		return
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// ListIdeas handles GET /api/ideas.
//
//	@Summary		List idea documents
//	@Tags			ideas
//	@Produce		json
//	@Success		200	{array}	models.FileMetadata
//	@Security		BearerAuth
//	@Router			/ideas [get]
func (h *Handler) ListIdeas(w http.ResponseWriter, _ *http.Request) {
	ideas, err := h.project.ListIdeas()
	if err != nil {
		writeError(w, "list ideas", err)
		return
	}
	if ideas == nil {
		ideas = []models.FileMetadata{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"ideas": ideas})
}

// CreateIdea handles POST /api/ideas.
//
//	@Summary		Create an idea document
//	@Tags			ideas
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CreateIdeaRequest	true	"Idea title"
//	@Success		201		{object}	models.Document
//	@Security		BearerAuth
//	@Router			/ideas [post]
func (h *Handler) CreateIdea(w http.ResponseWriter, r *http.Request) {
	var req CreateIdeaRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title is required"))
		return
	}
	doc, err := h.project.AddIdea(req.Title)
	if err != nil {
		writeError(w, "create idea", err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) manuscript() ([]export.Chapter, error) {
	chapters, err := h.project.Manuscript()
	if err != nil {
		return nil, err
	}
	out := make([]export.Chapter, len(chapters))
	for i, ch := range chapters {
		out[i] = export.Chapter{Title: ch.Meta.Title, Body: ch.Body}
	}
	return out, nil
}

// ExportHTML handles GET /api/export/manuscript.html.
//
//	@Summary		Render the manuscript as HTML
//	@Tags			export
//	@Produce		html
//	@Param			title	query	string	false	"Document title"
//	@Success		200
//	@Security		BearerAuth
//	@Router			/export/manuscript.html [get]
func (h *Handler) ExportHTML(w http.ResponseWriter, r *http.Request) {
	chapters, err := h.manuscript()
	if err != nil {
		writeError(w, "export", err)
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		title = "Manuscript"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := export.Manuscript(w, title, chapters); err != nil {
		writeError(w, "export", err)
	}
}

// ExportText handles GET /api/export/manuscript.txt.
//
//	@Summary		Render the manuscript as plain text
//	@Tags			export
//	@Produce		plain
//	@Success		200
//	@Security		BearerAuth
//	@Router			/export/manuscript.txt [get]
func (h *Handler) ExportText(w http.ResponseWriter, _ *http.Request) {
	chapters, err := h.manuscript()
	if err != nil {
		writeError(w, "export", err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if err := export.PlainText(w, chapters); err != nil {
		writeError(w, "export", err)
	}
}
