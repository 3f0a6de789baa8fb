package frontmatter

import (
	"reflect"
	"testing"

	"github.com/starford/quillmark/internal/models"
)

func TestChapterMeta_Defaults(t *testing.T) {
	meta, problems := ChapterMeta(Metadata{})
	if len(problems) != 0 {
		t.Errorf("problems = %v", problems)
	}
	if meta.Order != 0 || meta.Title != DefaultTitle || len(meta.Tags) != 0 || len(meta.CharacterIDs) != 0 || meta.Location != "" {
		t.Errorf("meta = %+v", meta)
	}
}

func TestChapterMeta_WrongTypesFallBack(t *testing.T) {
	meta, problems := ChapterMeta(Metadata{
		"order": "3",
		"title": 12,
		"tags":  []any{"ok", 5},
		"mood":  "grim",
	})
	if meta.Order != 3 {
		t.Errorf("order = %d", meta.Order)
	}
	if meta.Title != DefaultTitle || len(meta.Tags) != 0 {
		t.Errorf("meta = %+v", meta)
	}
	if len(problems) != 2 {
		t.Errorf("problems = %v", problems)
	}
	if meta.Extra["mood"] != "grim" {
		t.Errorf("extra = %v", meta.Extra)
	}
}

func TestChapterMetadata_RoundTrip(t *testing.T) {
	in := models.ChapterMeta{
		Order:        1,
		Title:        "Chapter 1 - The Beginning",
		Tags:         []string{"draft"},
		CharacterIDs: []string{"sarah", "alex"},
		Location:     "docks",
		Extra:        map[string]any{"pov": "sarah"},
	}
	raw, err := Serialize("body", ChapterMetadata(in))
	if err != nil {
		t.Fatal(err)
	}
	out, problems := ChapterMeta(Parse(raw).Metadata)
	if len(problems) != 0 {
		t.Errorf("problems = %v", problems)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("got %+v, want %+v", out, in)
	}
}
