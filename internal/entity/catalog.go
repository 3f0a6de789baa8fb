// Package entity holds the character and location catalogs and resolves
// references against them.
//
// A Catalog is an immutable snapshot: mutating methods return a new Catalog
// and leave the receiver untouched, so readers holding a snapshot never
// observe a half-applied change.
package entity

import (
	"fmt"
	"slices"

	"github.com/starford/quillmark/internal/apperr"
	"github.com/starford/quillmark/internal/models"
)

// Catalog indexes characters and locations by id while keeping file order.
type Catalog struct {
	characters map[string]models.Character
	charOrder  []string
	locations  map[string]models.Location
	locOrder   []string
}

// NewCatalog builds a catalog. Later duplicates of an id replace earlier ones
// but keep the first position.
func NewCatalog(chars []models.Character, locs []models.Location) *Catalog {
	c := &Catalog{
		characters: make(map[string]models.Character, len(chars)),
		locations:  make(map[string]models.Location, len(locs)),
	}
	for _, ch := range chars {
		if _, ok := c.characters[ch.ID]; !ok {
			c.charOrder = append(c.charOrder, ch.ID)
		}
		c.characters[ch.ID] = ch
	}
	for _, loc := range locs {
		if _, ok := c.locations[loc.ID]; !ok {
			c.locOrder = append(c.locOrder, loc.ID)
		}
		c.locations[loc.ID] = loc
	}
	return c
}

// Character returns the character with id.
func (c *Catalog) Character(id string) (models.Character, bool) {
	ch, ok := c.characters[id]
	return ch, ok
}

// Location returns the location with id.
func (c *Catalog) Location(id string) (models.Location, bool) {
	loc, ok := c.locations[id]
	return loc, ok
}

// Characters returns all characters in catalog order.
func (c *Catalog) Characters() []models.Character {
	out := make([]models.Character, 0, len(c.charOrder))
	for _, id := range c.charOrder {
		out = append(out, c.characters[id])
	}
	return out
}

// Locations returns all locations in catalog order.
func (c *Catalog) Locations() []models.Location {
	out := make([]models.Location, 0, len(c.locOrder))
	for _, id := range c.locOrder {
		out = append(out, c.locations[id])
	}
	return out
}

func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		characters: make(map[string]models.Character, len(c.characters)),
		charOrder:  slices.Clone(c.charOrder),
		locations:  make(map[string]models.Location, len(c.locations)),
		locOrder:   slices.Clone(c.locOrder),
	}
	for k, v := range c.characters {
		out.characters[k] = v
	}
	for k, v := range c.locations {
		out.locations[k] = v
	}
	return out
}

// PutCharacter adds or replaces a character.
func (c *Catalog) PutCharacter(ch models.Character) *Catalog {
	out := c.clone()
	if _, ok := out.characters[ch.ID]; !ok {
		out.charOrder = append(out.charOrder, ch.ID)
	}
	out.characters[ch.ID] = ch
	return out
}

// RemoveCharacter drops a character. Missing ids are ignored.
func (c *Catalog) RemoveCharacter(id string) *Catalog {
	if _, ok := c.characters[id]; !ok {
		return c
	}
	out := c.clone()
	delete(out.characters, id)
	out.charOrder = slices.DeleteFunc(out.charOrder, func(s string) bool { return s == id })
	return out
}

// PutLocation adds or replaces a location. The hierarchy fields are not
// touched; use SetParent to change them.
func (c *Catalog) PutLocation(loc models.Location) *Catalog {
	out := c.clone()
	if prev, ok := out.locations[loc.ID]; ok {
		loc.ParentLocation = prev.ParentLocation
		loc.SubLocations = prev.SubLocations
	} else {
		out.locOrder = append(out.locOrder, loc.ID)
		loc.ParentLocation = ""
		loc.SubLocations = nil
	}
	out.locations[loc.ID] = loc
	return out
}

// RemoveLocation drops a location, detaches it from its parent and orphans
// its children.
func (c *Catalog) RemoveLocation(id string) *Catalog {
	loc, ok := c.locations[id]
	if !ok {
		return c
	}
	out := c.clone()
	if parent, ok := out.locations[loc.ParentLocation]; ok {
		parent.SubLocations = without(parent.SubLocations, id)
		out.locations[parent.ID] = parent
	}
	for _, childID := range loc.SubLocations {
		if child, ok := out.locations[childID]; ok && child.ParentLocation == id {
			child.ParentLocation = ""
			out.locations[childID] = child
		}
	}
	delete(out.locations, id)
	out.locOrder = without(out.locOrder, id)
	return out
}

// SetParent moves location id under parentID; an empty parentID makes it a
// root. Assignments that would create a cycle fail with apperr.ErrCycle.
func (c *Catalog) SetParent(id, parentID string) (*Catalog, error) {
	loc, ok := c.locations[id]
	if !ok {
		return nil, fmt.Errorf("location %s: %w", id, apperr.ErrNotFound)
	}
	if parentID != "" {
		if _, ok := c.locations[parentID]; !ok {
			return nil, fmt.Errorf("parent location %s: %w", parentID, apperr.ErrNotFound)
		}
		if parentID == id || slices.Contains(c.Ancestors(parentID), id) {
			return nil, fmt.Errorf("location %s under %s: %w", id, parentID, apperr.ErrCycle)
		}
	}
	if loc.ParentLocation == parentID {
		return c, nil
	}

	out := c.clone()
	if old, ok := out.locations[loc.ParentLocation]; ok {
		old.SubLocations = without(old.SubLocations, id)
		out.locations[old.ID] = old
	}
	if parentID != "" {
		parent := out.locations[parentID]
		if !slices.Contains(parent.SubLocations, id) {
			parent.SubLocations = append(slices.Clone(parent.SubLocations), id)
		}
		out.locations[parentID] = parent
	}
	loc.ParentLocation = parentID
	out.locations[id] = loc
	return out, nil
}

// Ancestors walks ParentLocation links from id upwards, nearest first. The
// walk stops at a repeated id so corrupt data cannot loop forever.
func (c *Catalog) Ancestors(id string) []string {
	var out []string
	seen := map[string]struct{}{id: {}}
	cur, ok := c.locations[id]
	for ok && cur.ParentLocation != "" {
		if _, dup := seen[cur.ParentLocation]; dup {
			break
		}
		seen[cur.ParentLocation] = struct{}{}
		out = append(out, cur.ParentLocation)
		cur, ok = c.locations[cur.ParentLocation]
	}
	return out
}

func without(s []string, id string) []string {
	return slices.DeleteFunc(slices.Clone(s), func(v string) bool { return v == id })
}
