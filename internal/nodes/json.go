package nodes

import (
	"encoding/json"
	"fmt"

	"github.com/starford/quillmark/internal/models"
)

type wireNode struct {
	ID          string            `json:"id"`
	Type        Kind              `json:"type"`
	Content     *string           `json:"content,omitempty"`
	CharacterID string            `json:"characterId,omitempty"`
	Context     models.RefContext `json:"context,omitempty"`
	LocationID  string            `json:"locationId,omitempty"`
}

// MarshalJSON encodes the sequence as an array of objects discriminated by "type".
func (s Sequence) MarshalJSON() ([]byte, error) {
	out := make([]wireNode, 0, len(s))
	for _, n := range s {
		w := wireNode{ID: n.NodeID(), Type: n.Kind()}
		switch v := n.(type) {
		case Text:
			content := v.Content
			w.Content = &content
		case CharacterRef:
			w.CharacterID = v.CharacterID
			w.Context = v.Context
		case LocationRef:
			w.LocationID = v.LocationID
		case LineBreak:
		}
		out = append(out, w)
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var in []wireNode
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	out := make(Sequence, 0, len(in))
	for i, w := range in {
		if w.ID == "" {
			return fmt.Errorf("nodes: node %d has no id", i)
		}
		switch w.Type {
		case KindText:
			t := Text{ID: w.ID}
			if w.Content != nil {
				t.Content = *w.Content
			}
			out = append(out, t)
		case KindCharacter:
			ctx := w.Context
			if !ctx.Valid() {
				ctx = models.ContextNarrative
			}
			out = append(out, CharacterRef{ID: w.ID, CharacterID: w.CharacterID, Context: ctx})
		case KindLocation:
			out = append(out, LocationRef{ID: w.ID, LocationID: w.LocationID})
		case KindLineBreak:
			out = append(out, LineBreak{ID: w.ID})
		default:
			return fmt.Errorf("nodes: node %d has unknown type %q", i, w.Type)
		}
	}
	*s = out
	return nil
}
