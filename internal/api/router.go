package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/quillmark/internal/project"
	"github.com/starford/quillmark/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(p *project.Project, s *session.Session, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(p, s)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Chapters.
	r.Get("/chapters", h.ListChapters)
	r.Post("/chapters", h.CreateChapter)
	r.Get("/chapters/duplicates", h.DuplicateOrders)
	r.Get("/chapters/{id}", h.GetChapter)
	r.Put("/chapters/{id}", h.UpdateChapter)
	r.Delete("/chapters/{id}", h.DeleteChapter)
	r.Get("/stats", h.Stats)
	r.Get("/search", h.Search)

	// Ideas.
	r.Get("/ideas", h.ListIdeas)
	r.Post("/ideas", h.CreateIdea)

	// Entity catalogs.
	r.Get("/characters", h.ListCharacters)
	r.Post("/characters", h.CreateCharacter)
	r.Get("/characters/{id}", h.GetCharacter)
	r.Put("/characters/{id}", h.UpdateCharacter)
	r.Delete("/characters/{id}", h.DeleteCharacter)
	r.Get("/characters/{id}/chapters", h.CharacterChapters)
	r.Get("/locations", h.ListLocations)
	r.Post("/locations", h.CreateLocation)
	r.Get("/locations/{id}", h.GetLocation)
	r.Put("/locations/{id}", h.UpdateLocation)
	r.Put("/locations/{id}/parent", h.SetLocationParent)
	r.Delete("/locations/{id}", h.DeleteLocation)
	r.Get("/locations/{id}/chapters", h.LocationChapters)
	r.Get("/autocomplete", h.Autocomplete)

	// Editing session.
	r.Get("/tabs", h.ListTabs)
	r.Post("/tabs", h.OpenTab)
	r.Get("/tabs/active", h.ActiveTab)
	r.Put("/tabs/active/content", h.UpdateContent)
	r.Put("/tabs/active/selection", h.SetSelection)
	r.Put("/tabs/active/cursor", h.SetCursor)
	r.Put("/tabs/active/meta", h.SetChapterMeta)
	r.Post("/tabs/active/nodes", h.InsertNode)
	r.Post("/tabs/active/save", h.SaveActive)
	r.Get("/tabs/active/dangling", h.DanglingReferences)
	r.Post("/tabs/{id}/activate", h.ActivateTab)
	r.Delete("/tabs/{id}", h.CloseTab)
	r.Post("/commands", h.RunCommands)

	// Export.
	r.Get("/export/manuscript.html", h.ExportHTML)
	r.Get("/export/manuscript.txt", h.ExportText)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
