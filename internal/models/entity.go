// Package models defines the domain types for Quillmark.
package models

// RefContext selects which display name a character reference renders with.
type RefContext string

const (
	ContextDialogue  RefContext = "dialogue"
	ContextNarrative RefContext = "narrative"
	ContextReference RefContext = "reference"
)

// Valid reports whether c is one of the known contexts.
func (c RefContext) Valid() bool {
	switch c {
	case ContextDialogue, ContextNarrative, ContextReference:
		return true
	}
	return false
}

// CharacterNames holds optional per-context display names.
type CharacterNames struct {
	Dialogue  string `json:"dialogue,omitempty"`
	Narrative string `json:"narrative,omitempty"`
	Reference string `json:"reference,omitempty"`
}

// Character is an entry in the character catalog.
type Character struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Traits        []string        `json:"traits"`
	Bio           string          `json:"bio"`
	Appearance    string          `json:"appearance,omitempty"`
	Active        bool            `json:"active"`
	Names         *CharacterNames `json:"names,omitempty"`
	Relationships []string        `json:"relationships,omitempty"`
	Tags          []string        `json:"tags,omitempty"`
	Notes         string          `json:"notes,omitempty"`
}

// LocationType classifies a location.
type LocationType string

const (
	LocationIndoor   LocationType = "indoor"
	LocationOutdoor  LocationType = "outdoor"
	LocationVehicle  LocationType = "vehicle"
	LocationAbstract LocationType = "abstract"
)

// LocationNames holds optional alternative display names.
type LocationNames struct {
	Short       string `json:"short,omitempty"`
	Full        string `json:"full,omitempty"`
	Description string `json:"description,omitempty"`
}

// Location is an entry in the location catalog. ParentLocation and
// SubLocations form a hierarchy that must stay acyclic.
type Location struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description,omitempty"`
	Type           LocationType   `json:"type"`
	Names          *LocationNames `json:"names,omitempty"`
	ParentLocation string         `json:"parentLocation,omitempty"`
	Color          string         `json:"color"`
	Active         bool           `json:"active"`
	SubLocations   []string       `json:"subLocations,omitempty"`
}

// EntityKind distinguishes the two catalogs.
type EntityKind string

const (
	KindCharacter EntityKind = "character"
	KindLocation  EntityKind = "location"
)

// AutocompleteItem is one suggestion produced while composing.
type AutocompleteItem struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Kind        EntityKind `json:"kind"`
	Description string     `json:"description,omitempty"`
}
