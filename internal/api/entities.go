package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quillmark/internal/autocomplete"
	"github.com/starford/quillmark/internal/models"
)

// ListCharacters handles GET /api/characters.
//
//	@Summary		List characters in catalog order
//	@Tags			characters
//	@Produce		json
//	@Success		200	{array}	models.Character
//	@Security		BearerAuth
//	@Router			/characters [get]
func (h *Handler) ListCharacters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"characters": h.project.Catalog().Characters()})
}

// GetCharacter handles GET /api/characters/{id}.
func (h *Handler) GetCharacter(w http.ResponseWriter, r *http.Request) {
	ch, ok := h.project.Catalog().Character(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// CreateCharacter handles POST /api/characters.
//
//	@Summary		Add a character; the id is generated when empty
//	@Tags			characters
//	@Accept			json
//	@Produce		json
//	@Param			body	body		models.Character	true	"Character"
//	@Success		201		{object}	models.Character
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/characters [post]
func (h *Handler) CreateCharacter(w http.ResponseWriter, r *http.Request) {
	var ch models.Character
	if !decodeJSON(w, r, &ch) {
		return
	}
	created, err := h.project.AddCharacter(ch)
	if err != nil {
		writeError(w, "create character", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateCharacter handles PUT /api/characters/{id}.
func (h *Handler) UpdateCharacter(w http.ResponseWriter, r *http.Request) {
	var ch models.Character
	if !decodeJSON(w, r, &ch) {
		return
	}
	ch.ID = chi.URLParam(r, "id")
	if err := h.project.UpdateCharacter(ch); err != nil {
		writeError(w, "update character", err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

// DeleteCharacter handles DELETE /api/characters/{id}.
//
//	@Summary		Delete a character no chapter references
//	@Tags			characters
//	@Param			id	path	string	true	"Character id"
//	@Success		204	"Character deleted"
//	@Failure		404	{object}	errResponse
//	@Failure		409	{object}	errResponse	"Still referenced; count holds the number of chapters"
//	@Security		BearerAuth
//	@Router			/characters/{id} [delete]
func (h *Handler) DeleteCharacter(w http.ResponseWriter, r *http.Request) {
	if err := h.project.DeleteCharacter(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete character", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListLocations handles GET /api/locations.
func (h *Handler) ListLocations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"locations": h.project.Catalog().Locations()})
}

// GetLocation handles GET /api/locations/{id}.
func (h *Handler) GetLocation(w http.ResponseWriter, r *http.Request) {
	loc, ok := h.project.Catalog().Location(chi.URLParam(r, "id"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// CreateLocation handles POST /api/locations.
func (h *Handler) CreateLocation(w http.ResponseWriter, r *http.Request) {
	var loc models.Location
	if !decodeJSON(w, r, &loc) {
		return
	}
	created, err := h.project.AddLocation(loc)
	if err != nil {
		writeError(w, "create location", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateLocation handles PUT /api/locations/{id}.
func (h *Handler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	var loc models.Location
	if !decodeJSON(w, r, &loc) {
		return
	}
	loc.ID = chi.URLParam(r, "id")
	if err := h.project.UpdateLocation(loc); err != nil {
		writeError(w, "update location", err)
		return
	}
	updated, _ := h.project.Catalog().Location(loc.ID)
	writeJSON(w, http.StatusOK, updated)
}

// SetLocationParent handles PUT /api/locations/{id}/parent.
//
//	@Summary		Move a location in the hierarchy
//	@Tags			locations
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"Location id"
//	@Param			body	body		SetParentRequest	true	"New parent"
//	@Success		200		{object}	models.Location
//	@Failure		404		{object}	errResponse
//	@Failure		409		{object}	errResponse	"Would create a cycle"
//	@Security		BearerAuth
//	@Router			/locations/{id}/parent [put]
func (h *Handler) SetLocationParent(w http.ResponseWriter, r *http.Request) {
	var req SetParentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.project.SetParentLocation(id, req.Parent); err != nil {
		writeError(w, "set location parent", err)
		return
	}
	loc, _ := h.project.Catalog().Location(id)
	writeJSON(w, http.StatusOK, loc)
}

// DeleteLocation handles DELETE /api/locations/{id}.
func (h *Handler) DeleteLocation(w http.ResponseWriter, r *http.Request) {
	if err := h.project.DeleteLocation(chi.URLParam(r, "id")); err != nil {
		writeError(w, "delete location", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Autocomplete handles GET /api/autocomplete.
//
//	@Summary		Suggest active characters and locations by name
//	@Tags			characters
//	@Produce		json
//	@Param			q	query		string	false	"Name fragment"
//	@Success		200	{object}	AutocompleteResponse
//	@Security		BearerAuth
//	@Router			/autocomplete [get]
func (h *Handler) Autocomplete(w http.ResponseWriter, r *http.Request) {
	items := autocomplete.Suggest(r.URL.Query().Get("q"), h.project.Catalog())
	writeJSON(w, http.StatusOK, AutocompleteResponse{Items: items})
}

// CharacterChapters handles GET /api/characters/{id}/chapters.
//
//	@Summary		List chapters that reference a character
//	@Tags			characters
//	@Produce		json
//	@Param			id	path		string	true	"Character id"
//	@Success		200	{object}	ReferencesResponse
//	@Security		BearerAuth
//	@Router			/characters/{id}/chapters [get]
func (h *Handler) CharacterChapters(w http.ResponseWriter, r *http.Request) {
	h.referencing(w, models.KindCharacter, chi.URLParam(r, "id"))
}

// LocationChapters handles GET /api/locations/{id}/chapters.
func (h *Handler) LocationChapters(w http.ResponseWriter, r *http.Request) {
	h.referencing(w, models.KindLocation, chi.URLParam(r, "id"))
}

func (h *Handler) referencing(w http.ResponseWriter, kind models.EntityKind, id string) {
	ids, err := h.project.ReferencingChapters(kind, id)
	if err != nil {
		writeError(w, "referencing chapters", err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ReferencesResponse{Kind: kind, ID: id, Chapters: ids})
}
