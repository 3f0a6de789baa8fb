package nodes

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"

	"github.com/starford/quillmark/internal/models"
)

// Placeholders rendered for references whose entity is missing.
const (
	UnknownCharacter = "[Unknown Character]"
	UnknownLocation  = "[Unknown Location]"
)

// NameResolver looks up display names for referenced entities.
type NameResolver interface {
	CharacterName(id string, ctx models.RefContext) (string, bool)
	LocationName(id string) (string, bool)
}

// Render produces the plain-text form of seq. It never fails: references
// that cannot be resolved (or a nil resolver) yield placeholder text.
func Render(seq Sequence, r NameResolver) string {
	var sb strings.Builder
	for _, n := range seq {
		switch v := n.(type) {
		case Text:
			sb.WriteString(v.Content)
		case CharacterRef:
			name, ok := "", false
			if r != nil {
				name, ok = r.CharacterName(v.CharacterID, v.Context)
			}
			if !ok {
				name = UnknownCharacter
			}
			sb.WriteString(name)
		case LocationRef:
			name, ok := "", false
			if r != nil {
				name, ok = r.LocationName(v.LocationID)
			}
			if !ok {
				name = UnknownLocation
			}
			sb.WriteString(name)
		case LineBreak:
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// WordCount counts Unicode word segments holding at least one letter or
// digit. Punctuation and quotes around a word do not count.
func WordCount(text string) int {
	n, state := 0, -1
	for text != "" {
		var word string
		word, text, state = uniseg.FirstWordInString(text, state)
		if strings.IndexFunc(word, isWordRune) >= 0 {
			n++
		}
	}
	return n
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
