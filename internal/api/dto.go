package api

import (
	"github.com/starford/quillmark/internal/entity"
	"github.com/starford/quillmark/internal/index"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/session"
)

// CreateChapterRequest is the request body for creating a chapter.
type CreateChapterRequest struct {
	Title string `json:"title" example:"The Beginning"`
}

// UpdateChapterRequest replaces a chapter's metadata and body on disk.
type UpdateChapterRequest struct {
	Meta models.ChapterMeta `json:"meta" validate:"required"`
	Body string             `json:"body"`
}

// ChapterListResponse wraps chapter listings.
type ChapterListResponse struct {
	Chapters []models.ChapterSummary `json:"chapters" validate:"required"`
}

// StatsResponse reports manuscript totals.
type StatsResponse struct {
	Chapters int `json:"chapters" example:"12"`
	Words    int `json:"words" example:"48210"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// CreateIdeaRequest is the request body for creating an idea.
type CreateIdeaRequest struct {
	Title string `json:"title" example:"Twist ending" validate:"required"`
}

// SetParentRequest moves a location under another. Empty Parent makes it a root.
type SetParentRequest struct {
	Parent string `json:"parent" example:"city"`
}

// OpenTabRequest names the document to open.
type OpenTabRequest struct {
	Kind models.TabKind `json:"kind" example:"chapter" validate:"required"`
	ID   string         `json:"id" example:"001-the-beginning" validate:"required"`
}

// ContentRequest replaces the active tab's text.
type ContentRequest struct {
	Content string `json:"content"`
}

// CursorRequest moves the node cursor.
type CursorRequest struct {
	Cursor int `json:"cursor" example:"3"`
}

// InsertNodeRequest inserts one node at the cursor of the active chapter.
type InsertNodeRequest struct {
	Type        string            `json:"type" example:"character" validate:"required"`
	Content     string            `json:"content,omitempty"`
	CharacterID string            `json:"characterId,omitempty"`
	Context     models.RefContext `json:"context,omitempty"`
	LocationID  string            `json:"locationId,omitempty"`
}

// CommandRequest is one queued editing request.
type CommandRequest struct {
	Type        string            `json:"type" example:"insert-dialogue" validate:"required"`
	CharacterID string            `json:"characterId,omitempty"`
	LocationID  string            `json:"locationId,omitempty"`
	Context     models.RefContext `json:"context,omitempty"`
	Text        string            `json:"text,omitempty"`
}

// CommandsRequest wraps a batch of commands.
type CommandsRequest struct {
	Commands []CommandRequest `json:"commands" validate:"required"`
}

// CommandsResponse reports how many commands took effect.
type CommandsResponse struct {
	Applied int `json:"applied" example:"2"`
}

// TabListResponse wraps the open tabs.
type TabListResponse struct {
	Tabs   []session.Tab `json:"tabs" validate:"required"`
	Active string        `json:"active,omitempty"`
}

// AutocompleteResponse wraps autocomplete suggestions.
type AutocompleteResponse struct {
	Items []models.AutocompleteItem `json:"items" validate:"required"`
}

// ReferencesResponse lists the chapters referencing one entity.
type ReferencesResponse struct {
	Kind     models.EntityKind `json:"kind"`
	ID       string            `json:"id"`
	Chapters []string          `json:"chapters"`
}

// DanglingResponse lists reference nodes whose entity no longer exists.
type DanglingResponse struct {
	Dangling []entity.Resolution `json:"dangling"`
}
