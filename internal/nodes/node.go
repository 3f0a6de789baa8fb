// Package nodes implements the structured chapter content model: an ordered
// sequence of typed nodes with pure insert, update and render operations.
package nodes

import (
	"github.com/google/uuid"

	"github.com/starford/quillmark/internal/models"
)

// Kind identifies a node variant.
type Kind string

const (
	KindText      Kind = "text"
	KindCharacter Kind = "character"
	KindLocation  Kind = "location"
	KindLineBreak Kind = "linebreak"
)

// Node is one unit of chapter content. The set of implementations is closed:
// Text, CharacterRef, LocationRef and LineBreak.
type Node interface {
	NodeID() string
	Kind() Kind
	node()
}

// Text is a run of plain prose. Content may be empty.
type Text struct {
	ID      string
	Content string
}

// CharacterRef points at a character by id.
type CharacterRef struct {
	ID          string
	CharacterID string
	Context     models.RefContext
}

// LocationRef points at a location by id.
type LocationRef struct {
	ID         string
	LocationID string
}

// LineBreak renders as a newline.
type LineBreak struct {
	ID string
}

func (n Text) NodeID() string         { return n.ID }
func (n CharacterRef) NodeID() string { return n.ID }
func (n LocationRef) NodeID() string  { return n.ID }
func (n LineBreak) NodeID() string    { return n.ID }

func (Text) Kind() Kind         { return KindText }
func (CharacterRef) Kind() Kind { return KindCharacter }
func (LocationRef) Kind() Kind  { return KindLocation }
func (LineBreak) Kind() Kind    { return KindLineBreak }

func (Text) node()         {}
func (CharacterRef) node() {}
func (LocationRef) node()  {}
func (LineBreak) node()    {}

// NewID returns a fresh node identifier.
func NewID() string {
	return uuid.NewString()
}

// NewText builds a Text node with a generated id.
func NewText(content string) Text {
	return Text{ID: NewID(), Content: content}
}

// NewCharacterRef builds a CharacterRef with a generated id. An unknown
// context falls back to narrative.
func NewCharacterRef(characterID string, ctx models.RefContext) CharacterRef {
	if !ctx.Valid() {
		ctx = models.ContextNarrative
	}
	return CharacterRef{ID: NewID(), CharacterID: characterID, Context: ctx}
}

// NewLocationRef builds a LocationRef with a generated id.
func NewLocationRef(locationID string) LocationRef {
	return LocationRef{ID: NewID(), LocationID: locationID}
}

// NewLineBreak builds a LineBreak with a generated id.
func NewLineBreak() LineBreak {
	return LineBreak{ID: NewID()}
}
