package nodes

import (
	"slices"
	"strings"

	"github.com/starford/quillmark/internal/models"
)

// Sequence is the ordered content of a chapter. Operations never modify the
// receiver's backing array; they return a new Sequence.
type Sequence []Node

// InsertAt returns a copy of seq with n placed at index. The index is clamped
// to [0, len(seq)] rather than rejected.
func InsertAt(seq Sequence, index int, n Node) Sequence {
	index = clamp(index, len(seq))
	out := make(Sequence, 0, len(seq)+1)
	out = append(out, seq[:index]...)
	out = append(out, n)
	return append(out, seq[index:]...)
}

// Patch carries the fields to overwrite in UpdateNode. Nil fields are left
// alone, fields that do not exist on the target variant are ignored, and the
// node id is never changed.
type Patch struct {
	Content     *string
	CharacterID *string
	Context     *models.RefContext
	LocationID  *string
}

// UpdateNode returns a copy of seq with the node identified by id replaced by
// a patched copy. If id is absent seq itself is returned.
func UpdateNode(seq Sequence, id string, p Patch) Sequence {
	i := seq.Index(id)
	if i < 0 {
		return seq
	}
	out := slices.Clone(seq)
	out[i] = p.apply(seq[i])
	return out
}

func (p Patch) apply(n Node) Node {
	switch v := n.(type) {
	case Text:
		if p.Content != nil {
			v.Content = *p.Content
		}
		return v
	case CharacterRef:
		if p.CharacterID != nil {
			v.CharacterID = *p.CharacterID
		}
		if p.Context != nil && p.Context.Valid() {
			v.Context = *p.Context
		}
		return v
	case LocationRef:
		if p.LocationID != nil {
			v.LocationID = *p.LocationID
		}
		return v
	case LineBreak:
		return v
	}
	return n
}

// Index returns the position of the node with the given id, or -1.
func (s Sequence) Index(id string) int {
	return slices.IndexFunc(s, func(n Node) bool { return n.NodeID() == id })
}

// References returns the distinct character and location ids referenced by
// the sequence, in first-seen order.
func (s Sequence) References() (characters, locations []string) {
	for _, n := range s {
		switch v := n.(type) {
		case CharacterRef:
			if !slices.Contains(characters, v.CharacterID) {
				characters = append(characters, v.CharacterID)
			}
		case LocationRef:
			if !slices.Contains(locations, v.LocationID) {
				locations = append(locations, v.LocationID)
			}
		}
	}
	return characters, locations
}

// FromProse converts plain text into Text and LineBreak nodes. Blank lines
// produce consecutive LineBreaks, so Render(FromProse(t), nil) == t.
func FromProse(text string) Sequence {
	if text == "" {
		return Sequence{}
	}
	lines := strings.Split(text, "\n")
	out := make(Sequence, 0, 2*len(lines))
	for i, line := range lines {
		if i > 0 {
			out = append(out, NewLineBreak())
		}
		if line != "" {
			out = append(out, NewText(line))
		}
	}
	return out
}

// Cursor is an index into a Sequence: the gap before node Cursor.
type Cursor int

// AfterInsert returns the cursor position after a node was inserted at
// index. Inserts at or before the cursor push it right by one.
func (c Cursor) AfterInsert(index int) Cursor {
	if index <= int(c) {
		return c + 1
	}
	return c
}

// Clamp bounds the cursor to a sequence of length n.
func (c Cursor) Clamp(n int) Cursor {
	return Cursor(clamp(int(c), n))
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
