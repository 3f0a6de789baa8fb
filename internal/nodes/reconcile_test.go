package nodes

import (
	"reflect"
	"testing"

	"github.com/starford/quillmark/internal/models"
)

var sarahAndDocks = fakeResolver{
	chars: map[string]string{"s": "Sarah"},
	locs:  map[string]string{"d": "the docks"},
}

func TestReconcile_UnchangedTextKeepsSequence(t *testing.T) {
	prev := Sequence{
		CharacterRef{ID: "1", CharacterID: "s", Context: models.ContextNarrative},
		Text{ID: "2", Content: " walked to "},
		LocationRef{ID: "3", LocationID: "d"},
		LineBreak{ID: "4"},
	}
	got := Reconcile(prev, sarahAndDocks, Render(prev, sarahAndDocks))
	if !reflect.DeepEqual(got, prev) {
		t.Errorf("got %#v, want %#v", got, prev)
	}
}

func TestReconcile_AppendKeepsExistingNodes(t *testing.T) {
	prev := Sequence{
		CharacterRef{ID: "1", CharacterID: "s", Context: models.ContextNarrative},
		Text{ID: "2", Content: " ran"},
	}
	text := "Sarah ran\nfast"
	got := Reconcile(prev, sarahAndDocks, text)
	if r := Render(got, sarahAndDocks); r != text {
		t.Fatalf("render = %q, want %q", r, text)
	}
	if len(got) != 4 || got[0].NodeID() != "1" || got[1].NodeID() != "2" {
		t.Errorf("ids = %v", ids(got))
	}
	if got[2].Kind() != KindLineBreak || got[3].Kind() != KindText {
		t.Errorf("appended kinds = %s, %s", got[2].Kind(), got[3].Kind())
	}
}

func TestReconcile_EditedTextKeepsItsID(t *testing.T) {
	prev := Sequence{
		Text{ID: "1", Content: "Hello"},
		LineBreak{ID: "2"},
		CharacterRef{ID: "3", CharacterID: "s", Context: models.ContextNarrative},
	}
	got := Reconcile(prev, sarahAndDocks, "Hullo\nSarah")
	want := Sequence{
		Text{ID: "1", Content: "Hullo"},
		LineBreak{ID: "2"},
		CharacterRef{ID: "3", CharacterID: "s", Context: models.ContextNarrative},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %#v, want %#v", got, want)
	}
}

func TestReconcile_ReferenceInsideEditSurvives(t *testing.T) {
	prev := Sequence{
		Text{ID: "1", Content: "Then "},
		CharacterRef{ID: "2", CharacterID: "s", Context: models.ContextNarrative},
		Text{ID: "3", Content: " left."},
	}
	text := "And then Sarah quietly left."
	got := Reconcile(prev, sarahAndDocks, text)
	if r := Render(got, sarahAndDocks); r != text {
		t.Fatalf("render = %q, want %q", r, text)
	}
	if len(got) != 4 {
		t.Fatalf("ids = %v", ids(got))
	}
	if got[0].NodeID() != "1" || got[1].NodeID() != "2" || got[3].NodeID() != "3" {
		t.Errorf("ids = %v", ids(got))
	}
	chars, _ := got.References()
	if !reflect.DeepEqual(chars, []string{"s"}) {
		t.Errorf("references = %v", chars)
	}
}

func TestReconcile_RemovedNameDropsReference(t *testing.T) {
	prev := Sequence{
		Text{ID: "1", Content: "Hi "},
		CharacterRef{ID: "2", CharacterID: "s", Context: models.ContextNarrative},
	}
	got := Reconcile(prev, sarahAndDocks, "Hi there")
	if r := Render(got, sarahAndDocks); r != "Hi there" {
		t.Fatalf("render = %q", r)
	}
	if chars, _ := got.References(); len(chars) != 0 {
		t.Errorf("references = %v, want none", chars)
	}
	if got[0].NodeID() != "1" {
		t.Errorf("ids = %v", ids(got))
	}
}

func TestReconcile_FromEmpty(t *testing.T) {
	got := Reconcile(nil, nil, "a\nb")
	if r := Render(got, nil); r != "a\nb" || len(got) != 3 {
		t.Errorf("got %v rendering %q", ids(got), r)
	}
}
