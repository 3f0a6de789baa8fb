package frontmatter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/starford/quillmark/internal/models"
)

// DefaultTitle is used when a chapter has no usable title.
const DefaultTitle = "Untitled"

// ChapterMeta reads the recognised chapter fields from m, applying defaults
// for anything missing. Values of the wrong type are replaced by the default
// and reported in problems. Unrecognised keys are kept in Extra.
func ChapterMeta(m Metadata) (meta models.ChapterMeta, problems []string) {
	meta = models.ChapterMeta{Title: DefaultTitle, Tags: []string{}, CharacterIDs: []string{}}

	for k, v := range m {
		switch k {
		case "order":
			n, ok := toInt(v)
			if !ok {
				problems = append(problems, fmt.Sprintf("order: not an integer: %v", v))
				continue
			}
			meta.Order = n
		case "title":
			s, ok := v.(string)
			if !ok {
				problems = append(problems, fmt.Sprintf("title: not a string: %v", v))
				continue
			}
			if strings.TrimSpace(s) != "" {
				meta.Title = s
			}
		case "tags":
			list, ok := toStrings(v)
			if !ok {
				problems = append(problems, fmt.Sprintf("tags: not a list of strings: %v", v))
				continue
			}
			meta.Tags = list
		case "characters":
			list, ok := toStrings(v)
			if !ok {
				problems = append(problems, fmt.Sprintf("characters: not a list of strings: %v", v))
				continue
			}
			meta.CharacterIDs = list
		case "location":
			if v == nil {
				continue
			}
			s, ok := v.(string)
			if !ok {
				problems = append(problems, fmt.Sprintf("location: not a string: %v", v))
				continue
			}
			meta.Location = s
		default:
			if meta.Extra == nil {
				meta.Extra = map[string]any{}
			}
			meta.Extra[k] = v
		}
	}
	return meta, problems
}

// ChapterMetadata is the inverse of ChapterMeta.
func ChapterMetadata(meta models.ChapterMeta) Metadata {
	m := Metadata{}
	for k, v := range meta.Extra {
		m[k] = v
	}
	title := meta.Title
	if title == "" {
		title = DefaultTitle
	}
	m["order"] = meta.Order
	m["title"] = title
	m["tags"] = toAny(meta.Tags)
	m["characters"] = toAny(meta.CharacterIDs)
	m["location"] = meta.Location
	return m
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n == math.Trunc(n) {
			return int(n), true
		}
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func toStrings(v any) ([]string, bool) {
	switch list := v.(type) {
	case nil:
		return []string{}, true
	case string:
		if list == "" {
			return []string{}, true
		}
		return []string{list}, true
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

func toAny(list []string) []any {
	out := make([]any, len(list))
	for i, s := range list {
		out[i] = s
	}
	return out
}
