// Package autocomplete suggests entity references while composing.
package autocomplete

import (
	"strings"

	"github.com/starford/quillmark/internal/models"
)

// Limit is the maximum number of suggestions returned.
const Limit = 10

// Source lists catalog entries in catalog order.
type Source interface {
	Characters() []models.Character
	Locations() []models.Location
}

// Suggest matches query case-insensitively as a substring of each active
// entity's name. Characters come before locations, catalog order is kept
// within each kind and the result is capped at Limit. An empty query matches
// every active entity.
func Suggest(query string, src Source) []models.AutocompleteItem {
	q := strings.ToLower(query)
	out := make([]models.AutocompleteItem, 0, Limit)

	for _, ch := range src.Characters() {
		if len(out) == Limit {
			return out
		}
		if !ch.Active || !strings.Contains(strings.ToLower(ch.Name), q) {
			continue
		}
		out = append(out, models.AutocompleteItem{
			ID:          ch.ID,
			Name:        ch.Name,
			Kind:        models.KindCharacter,
			Description: ch.Bio,
		})
	}
	for _, loc := range src.Locations() {
		if len(out) == Limit {
			return out
		}
		if !loc.Active || !strings.Contains(strings.ToLower(loc.Name), q) {
			continue
		}
		out = append(out, models.AutocompleteItem{
			ID:          loc.ID,
			Name:        loc.Name,
			Kind:        models.KindLocation,
			Description: loc.Description,
		})
	}
	return out
}
