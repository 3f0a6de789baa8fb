package entity

import (
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/nodes"
)

// Status reports whether a reference resolved.
type Status string

const (
	Resolved   Status = "resolved"
	Unresolved Status = "unresolved"
)

// Resolution is the display decision for a single reference.
type Resolution struct {
	Kind   models.EntityKind `json:"kind"`
	ID     string            `json:"id"`
	Text   string            `json:"text"`
	Color  string            `json:"color,omitempty"`
	Status Status            `json:"status"`
}

var _ nodes.NameResolver = (*Catalog)(nil)

// CharacterName picks the display name for a character in ctx:
// names[ctx], then the narrative name, then the canonical name.
func (c *Catalog) CharacterName(id string, ctx models.RefContext) (string, bool) {
	ch, ok := c.characters[id]
	if !ok {
		return "", false
	}
	if n := ch.Names; n != nil {
		var byCtx string
		switch ctx {
		case models.ContextDialogue:
			byCtx = n.Dialogue
		case models.ContextReference:
			byCtx = n.Reference
		case models.ContextNarrative:
			byCtx = n.Narrative
		}
		if byCtx != "" {
			return byCtx, true
		}
		if n.Narrative != "" {
			return n.Narrative, true
		}
	}
	return ch.Name, true
}

// LocationName picks names.full, then names.short, then the canonical name.
func (c *Catalog) LocationName(id string) (string, bool) {
	loc, ok := c.locations[id]
	if !ok {
		return "", false
	}
	if n := loc.Names; n != nil {
		if n.Full != "" {
			return n.Full, true
		}
		if n.Short != "" {
			return n.Short, true
		}
	}
	return loc.Name, true
}

// Resolve decides how a single reference node is presented. Nodes that are
// not references resolve to an empty, resolved result.
func (c *Catalog) Resolve(n nodes.Node) Resolution {
	switch v := n.(type) {
	case nodes.CharacterRef:
		name, ok := c.CharacterName(v.CharacterID, v.Context)
		if !ok {
			return Resolution{Kind: models.KindCharacter, ID: v.CharacterID, Text: nodes.UnknownCharacter, Status: Unresolved}
		}
		return Resolution{Kind: models.KindCharacter, ID: v.CharacterID, Text: name, Status: Resolved}
	case nodes.LocationRef:
		name, ok := c.LocationName(v.LocationID)
		if !ok {
			return Resolution{Kind: models.KindLocation, ID: v.LocationID, Text: nodes.UnknownLocation, Status: Unresolved}
		}
		return Resolution{Kind: models.KindLocation, ID: v.LocationID, Text: name, Color: c.locations[v.LocationID].Color, Status: Resolved}
	case nodes.Text, nodes.LineBreak:
	}
	return Resolution{Status: Resolved}
}

// Dangling returns the reference nodes in seq whose entity is missing.
func (c *Catalog) Dangling(seq nodes.Sequence) []Resolution {
	var out []Resolution
	for _, n := range seq {
		if r := c.Resolve(n); r.Status == Unresolved {
			out = append(out, r)
		}
	}
	return out
}
