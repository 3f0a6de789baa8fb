package autocomplete

import (
	"fmt"
	"testing"

	"github.com/starford/quillmark/internal/entity"
	"github.com/starford/quillmark/internal/models"
)

func catalog(nChars, nLocs int) *entity.Catalog {
	var chars []models.Character
	for i := 0; i < nChars; i++ {
		chars = append(chars, models.Character{ID: fmt.Sprintf("c%d", i), Name: fmt.Sprintf("Marta %d", i), Active: true})
	}
	var locs []models.Location
	for i := 0; i < nLocs; i++ {
		locs = append(locs, models.Location{ID: fmt.Sprintf("l%d", i), Name: fmt.Sprintf("Mart Square %d", i), Active: true})
	}
	return entity.NewCatalog(chars, locs)
}

func TestSuggest_CapAndOrdering(t *testing.T) {
	got := Suggest("MART", catalog(6, 8))
	if len(got) != Limit {
		t.Fatalf("len = %d, want %d", len(got), Limit)
	}
	seenLocation := false
	for i, item := range got {
		if item.Kind == models.KindLocation {
			seenLocation = true
		} else if seenLocation {
			t.Errorf("character at %d after a location", i)
		}
	}
	if got[0].ID != "c0" || got[6].ID != "l0" {
		t.Errorf("order: first=%s seventh=%s", got[0].ID, got[6].ID)
	}
}

func TestSuggest_OnlyCharactersWhenManyMatch(t *testing.T) {
	got := Suggest("marta", catalog(12, 3))
	if len(got) != Limit {
		t.Fatalf("len = %d", len(got))
	}
	for _, item := range got {
		if item.Kind != models.KindCharacter {
			t.Errorf("unexpected %s in result", item.Kind)
		}
	}
}

func TestSuggest_SkipsInactiveAndNonMatching(t *testing.T) {
	c := entity.NewCatalog(
		[]models.Character{
			{ID: "a", Name: "Sarah", Active: true, Bio: "pilot"},
			{ID: "b", Name: "Sara", Active: false},
			{ID: "c", Name: "Tom", Active: true},
		},
		[]models.Location{
			{ID: "x", Name: "Sahara", Active: true, Description: "desert"},
		},
	)
	got := Suggest("sa", c)
	if len(got) != 2 {
		t.Fatalf("got %+v", got)
	}
	if got[0].ID != "a" || got[0].Description != "pilot" || got[1].ID != "x" {
		t.Errorf("got %+v", got)
	}
}

func TestSuggest_EmptyQueryMatchesAllActive(t *testing.T) {
	if got := Suggest("", catalog(2, 2)); len(got) != 4 {
		t.Errorf("len = %d, want 4", len(got))
	}
	if got := Suggest("zzz", catalog(2, 2)); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
