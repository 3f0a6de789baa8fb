package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quillmark/internal/entity"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/nodes"
	"github.com/starford/quillmark/internal/session"
)

// ListTabs handles GET /api/tabs.
//
//	@Summary		List open tabs
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	TabListResponse
//	@Security		BearerAuth
//	@Router			/tabs [get]
func (h *Handler) ListTabs(w http.ResponseWriter, _ *http.Request) {
	resp := TabListResponse{Tabs: h.session.Tabs()}
	if active, ok := h.session.ActiveTab(); ok {
		resp.Active = active.ID
	}
	writeJSON(w, http.StatusOK, resp)
}

// OpenTab handles POST /api/tabs.
//
//	@Summary		Open a document in a tab and activate it
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		OpenTabRequest	true	"Document to open"
//	@Success		200		{object}	session.Tab
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs [post]
func (h *Handler) OpenTab(w http.ResponseWriter, r *http.Request) {
	var req OpenTabRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Kind.Valid() || req.ID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("kind and id are required"))
		return
	}
	// An open tab keeps its live content; one closed in the meantime is
	// reloaded below.
	if tab, err := h.session.ActivateTab(session.TabID(req.Kind, req.ID)); err == nil {
		writeJSON(w, http.StatusOK, tab)
		return
	}
	doc, err := h.project.LoadDocument(req.Kind, req.ID)
	if err != nil {
		writeError(w, "open tab", err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.OpenTab(doc))
}

// ActiveTab handles GET /api/tabs/active.
func (h *Handler) ActiveTab(w http.ResponseWriter, _ *http.Request) {
	tab, ok := h.session.ActiveTab()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no active tab"))
		return
	}
	writeJSON(w, http.StatusOK, tab)
}

// DanglingReferences handles GET /api/tabs/active/dangling.
//
//	@Summary		Report references in the active tab whose entity is gone
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	DanglingResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/active/dangling [get]
func (h *Handler) DanglingReferences(w http.ResponseWriter, _ *http.Request) {
	tab, ok := h.session.ActiveTab()
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("no active tab"))
		return
	}
	dangling := h.project.Catalog().Dangling(tab.Nodes)
	if dangling == nil {
		dangling = []entity.Resolution{}
	}
	writeJSON(w, http.StatusOK, DanglingResponse{Dangling: dangling})
}

// ActivateTab handles POST /api/tabs/{id}/activate.
func (h *Handler) ActivateTab(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Activate(chi.URLParam(r, "id")); err != nil {
		writeError(w, "activate tab", err)
		return
	}
	h.ActiveTab(w, r)
}

// CloseTab handles DELETE /api/tabs/{id}. Unsaved changes are discarded.
func (h *Handler) CloseTab(w http.ResponseWriter, r *http.Request) {
	if err := h.session.CloseTab(chi.URLParam(r, "id")); err != nil {
		writeError(w, "close tab", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdateContent handles PUT /api/tabs/active/content.
//
//	@Summary		Replace the active tab's text
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ContentRequest	true	"New content"
//	@Success		200		{object}	session.Tab
//	@Failure		409		{object}	errResponse	"No active tab"
//	@Security		BearerAuth
//	@Router			/tabs/active/content [put]
func (h *Handler) UpdateContent(w http.ResponseWriter, r *http.Request) {
	var req ContentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.session.UpdateContent(req.Content); err != nil {
		writeError(w, "update content", err)
		return
	}
	h.ActiveTab(w, r)
}

// SetSelection handles PUT /api/tabs/active/selection.
func (h *Handler) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req session.Selection
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.session.SetSelection(req); err != nil {
		writeError(w, "set selection", err)
		return
	}
	h.ActiveTab(w, r)
}

// SetCursor handles PUT /api/tabs/active/cursor.
func (h *Handler) SetCursor(w http.ResponseWriter, r *http.Request) {
	var req CursorRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := h.session.SetCursor(nodes.Cursor(req.Cursor)); err != nil {
		writeError(w, "set cursor", err)
		return
	}
	h.ActiveTab(w, r)
}

// SetChapterMeta handles PUT /api/tabs/active/meta.
func (h *Handler) SetChapterMeta(w http.ResponseWriter, r *http.Request) {
	var meta models.ChapterMeta
	if !decodeJSON(w, r, &meta) {
		return
	}
	if err := h.session.SetChapterMeta(meta); err != nil {
		writeError(w, "set chapter meta", err)
		return
	}
	h.ActiveTab(w, r)
}

// InsertNode handles POST /api/tabs/active/nodes.
//
//	@Summary		Insert a node at the cursor of the active chapter
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InsertNodeRequest	true	"Node to insert"
//	@Success		200		{object}	session.Tab
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/tabs/active/nodes [post]
func (h *Handler) InsertNode(w http.ResponseWriter, r *http.Request) {
	var req InsertNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	var err error
	switch nodes.Kind(req.Type) {
	case nodes.KindText:
		err = h.session.InsertText(req.Content)
	case nodes.KindCharacter:
		err = h.session.InsertCharacterRef(req.CharacterID, req.Context)
	case nodes.KindLocation:
		err = h.session.InsertLocationRef(req.LocationID)
	default:
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("unknown node type %q", req.Type)))
		return
	}
	if err != nil {
		writeError(w, "insert node", err)
		return
	}
	h.ActiveTab(w, r)
}

// SaveActive handles POST /api/tabs/active/save.
//
//	@Summary		Persist the active tab
//	@Tags			session
//	@Produce		json
//	@Success		200	{object}	session.Tab
//	@Failure		409	{object}	errResponse	"No active tab or save in progress"
//	@Failure		500	{object}	errResponse	"Write failed; the tab stays modified"
//	@Security		BearerAuth
//	@Router			/tabs/active/save [post]
func (h *Handler) SaveActive(w http.ResponseWriter, r *http.Request) {
	if err := h.session.SaveCurrentFile(); err != nil {
		writeError(w, "save", err)
		return
	}
	h.ActiveTab(w, r)
}

// RunCommands handles POST /api/commands.
//
//	@Summary		Queue editing commands and drain them against the active tab
//	@Tags			session
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CommandsRequest	true	"Commands"
//	@Success		200		{object}	CommandsResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/commands [post]
func (h *Handler) RunCommands(w http.ResponseWriter, r *http.Request) {
	var req CommandsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	cmds := make([]session.Command, 0, len(req.Commands))
	for _, c := range req.Commands {
		cmd, err := toCommand(c)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		cmds = append(cmds, cmd)
	}
	h.session.Enqueue(cmds...)
	writeJSON(w, http.StatusOK, CommandsResponse{Applied: h.session.Drain()})
}

func toCommand(c CommandRequest) (session.Command, error) {
	switch c.Type {
	case "insert-dialogue":
		return session.InsertDialogueCommand{CharacterID: c.CharacterID, Text: c.Text}, nil
	case "insert-character-reference":
		return session.InsertCharacterRefCommand{CharacterID: c.CharacterID, Context: c.Context}, nil
	case "insert-location-reference":
		return session.InsertLocationRefCommand{LocationID: c.LocationID}, nil
	}
	return nil, fmt.Errorf("unknown command type %q", c.Type)
}
