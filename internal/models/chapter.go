package models

import "time"

// ChapterMeta is the structured metadata persisted in a chapter's frontmatter.
type ChapterMeta struct {
	Order        int            `json:"order"`
	Title        string         `json:"title"`
	Tags         []string       `json:"tags"`
	CharacterIDs []string       `json:"characters"`
	Location     string         `json:"location,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"` // unrecognised keys, written back verbatim
}

// ChapterSummary is a lightweight chapter listing entry.
type ChapterSummary struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Order     int       `json:"order"`
	Title     string    `json:"title"`
	Tags      []string  `json:"tags"`
	WordCount int       `json:"word_count"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FileMetadata describes a stored file without its content.
type FileMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TabKind is the kind of document held by a tab.
type TabKind string

const (
	TabChapter   TabKind = "chapter"
	TabIdea      TabKind = "idea"
	TabCharacter TabKind = "character"
	TabLocation  TabKind = "location"
)

// Valid reports whether k is a known tab kind.
func (k TabKind) Valid() bool {
	switch k {
	case TabChapter, TabIdea, TabCharacter, TabLocation:
		return true
	}
	return false
}

// Document is an openable project item: a chapter, idea, or the notes
// document of a character or location.
type Document struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Kind        TabKind      `json:"kind"`
	StoragePath string       `json:"storage_path"`
	Content     string       `json:"content"`
	Chapter     *ChapterMeta `json:"chapter,omitempty"`
}

// Clone returns a deep copy of the metadata.
func (m ChapterMeta) Clone() ChapterMeta {
	out := m
	out.Tags = append([]string{}, m.Tags...)
	out.CharacterIDs = append([]string{}, m.CharacterIDs...)
	if m.Extra != nil {
		out.Extra = make(map[string]any, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = v
		}
	}
	return out
}
