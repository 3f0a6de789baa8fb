package project

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/starford/quillmark/internal/apperr"
	"github.com/starford/quillmark/internal/index"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/storage"
	"github.com/starford/quillmark/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) notify(kind, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, kind+":"+id)
}

func testProject(t *testing.T) (*Project, *storage.Memory, *recorder) {
	t.Helper()
	store := storage.NewMemory()
	rec := &recorder{}
	p, err := Open(store, testutil.TestDB(t), WithLogger(testutil.QuietLogger()), WithNotifier(rec.notify))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return p, store, rec
}

func TestOpenCreatesLayout(t *testing.T) {
	_, store, _ := testProject(t)
	names, err := store.ReadDirectory("")
	if err != nil {
		t.Fatal(err)
	}
	for _, dir := range models.ProjectDirs {
		found := false
		for _, n := range names {
			if n == dir {
				found = true
			}
		}
		if !found {
			t.Errorf("directory %s not created (have %v)", dir, names)
		}
	}
	data, err := store.Read(models.CharacterCatalogFile)
	if err != nil {
		t.Fatalf("read characters file: %v", err)
	}
	if !strings.Contains(string(data), `"characters": []`) {
		t.Errorf("characters file = %s", data)
	}
}

func TestAddCharacterPersists(t *testing.T) {
	p, store, rec := testProject(t)
	ch, err := p.AddCharacter(models.Character{Name: "Sarah", Active: true})
	if err != nil {
		t.Fatalf("AddCharacter: %v", err)
	}
	if ch.ID == "" {
		t.Fatal("expected generated id")
	}

	reopened, err := Open(store, testutil.TestDB(t), WithLogger(testutil.QuietLogger()))
	if err != nil {
		t.Fatal(err)
	}
	got, ok := reopened.Catalog().Character(ch.ID)
	if !ok || got.Name != "Sarah" {
		t.Errorf("reloaded character = %+v, %v", got, ok)
	}
	if len(rec.events) != 1 || rec.events[0] != EventCatalogUpdated+":"+ch.ID {
		t.Errorf("events = %v", rec.events)
	}
}

func TestAddCharacterValidation(t *testing.T) {
	p, _, _ := testProject(t)
	if _, err := p.AddCharacter(models.Character{}); err == nil {
		t.Fatal("expected validation error for empty name")
	}
	if len(p.Catalog().Characters()) != 0 {
		t.Error("invalid character stored")
	}
}

func TestAddCharacterDuplicateID(t *testing.T) {
	p, _, _ := testProject(t)
	if _, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Sarah"}); err != nil {
		t.Fatal(err)
	}
	_, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Other"})
	if !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("err = %v, want ErrAlreadyExists", err)
	}
}

func TestCatalogWriteFailureKeepsSnapshot(t *testing.T) {
	p, store, _ := testProject(t)
	store.SetFailWrites(true)
	if _, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Sarah"}); !errors.Is(err, storage.ErrInjected) {
		t.Fatalf("err = %v, want ErrInjected", err)
	}
	if _, ok := p.Catalog().Character("sarah"); ok {
		t.Error("snapshot changed despite failed write")
	}
}

func TestDeleteReferencedCharacter(t *testing.T) {
	p, _, _ := testProject(t)
	if _, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Sarah"}); err != nil {
		t.Fatal(err)
	}
	for i, id := range []string{"001-one", "002-two"} {
		meta := models.ChapterMeta{Order: i + 1, Title: id, CharacterIDs: []string{"sarah"}}
		if err := p.SaveChapter(id, meta, "Sarah waited."); err != nil {
			t.Fatalf("SaveChapter: %v", err)
		}
	}

	err := p.DeleteCharacter("sarah")
	var refErr *apperr.ReferencedError
	if !errors.As(err, &refErr) {
		t.Fatalf("err = %v, want ReferencedError", err)
	}
	if refErr.Count != 2 {
		t.Errorf("Count = %d, want 2", refErr.Count)
	}
	if !errors.Is(err, apperr.ErrReferenced) {
		t.Error("errors.Is(err, ErrReferenced) = false")
	}
	if _, ok := p.Catalog().Character("sarah"); !ok {
		t.Error("referenced character was removed")
	}
}

func TestDeleteUnreferencedEntities(t *testing.T) {
	p, _, _ := testProject(t)
	if _, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Sarah"}); err != nil {
		t.Fatal(err)
	}
	if _, err := p.AddLocation(models.Location{ID: "cafe", Name: "Cafe"}); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteCharacter("sarah"); err != nil {
		t.Fatalf("DeleteCharacter: %v", err)
	}
	if err := p.DeleteLocation("cafe"); err != nil {
		t.Fatalf("DeleteLocation: %v", err)
	}
	if err := p.DeleteLocation("cafe"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v, want ErrNotFound", err)
	}
}

func TestLocationHierarchy(t *testing.T) {
	p, _, _ := testProject(t)
	city, err := p.AddLocation(models.Location{ID: "city", Name: "City", Type: models.LocationOutdoor})
	if err != nil {
		t.Fatal(err)
	}
	if city.Color == "" {
		t.Error("expected default color")
	}
	if _, err := p.AddLocation(models.Location{ID: "cafe", Name: "Cafe", ParentLocation: "city"}); err != nil {
		t.Fatal(err)
	}
	got, _ := p.Catalog().Location("city")
	if len(got.SubLocations) != 1 || got.SubLocations[0] != "cafe" {
		t.Errorf("SubLocations = %v", got.SubLocations)
	}
	if err := p.SetParentLocation("city", "cafe"); !errors.Is(err, apperr.ErrCycle) {
		t.Errorf("err = %v, want ErrCycle", err)
	}
	if err := p.SetParentLocation("cafe", ""); err != nil {
		t.Fatal(err)
	}
	got, _ = p.Catalog().Location("city")
	if len(got.SubLocations) != 0 {
		t.Errorf("SubLocations after detach = %v", got.SubLocations)
	}
}

func TestAddLocationRejectsUnknownType(t *testing.T) {
	p, _, _ := testProject(t)
	if _, err := p.AddLocation(models.Location{Name: "Void", Type: "cave"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestAddChapterOrderAndName(t *testing.T) {
	p, store, _ := testProject(t)
	first, err := p.AddChapter("The Beginning")
	if err != nil {
		t.Fatalf("AddChapter: %v", err)
	}
	if first.ID != "001-the-beginning" || first.Meta.Order != 1 {
		t.Errorf("first = %s order %d", first.ID, first.Meta.Order)
	}
	second, err := p.AddChapter("The Beginning")
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != "002-the-beginning" || second.Meta.Order != 2 {
		t.Errorf("second = %s order %d", second.ID, second.Meta.Order)
	}
	data, err := store.Read("chapters/001-the-beginning.md")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "---\norder: 1\ntitle: \"The Beginning\"\n") {
		t.Errorf("file = %q", data)
	}

	list, err := p.ListChapters()
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != first.ID || list[1].ID != second.ID {
		t.Errorf("ListChapters = %+v", list)
	}
}

func TestDuplicateOrders(t *testing.T) {
	p, _, _ := testProject(t)
	for _, c := range []struct {
		id    string
		order int
	}{{"a", 1}, {"b", 1}, {"c", 2}} {
		if err := p.SaveChapter(c.id, models.ChapterMeta{Order: c.order, Title: c.id}, ""); err != nil {
			t.Fatal(err)
		}
	}
	dups, err := p.DuplicateOrders()
	if err != nil {
		t.Fatal(err)
	}
	if len(dups) != 1 || len(dups[1]) != 2 {
		t.Errorf("DuplicateOrders = %v", dups)
	}
}

func TestFindChapters(t *testing.T) {
	p, _, _ := testProject(t)
	for _, title := range []string{"The Beginning", "Night Market", "Ending"} {
		if _, err := p.AddChapter(title); err != nil {
			t.Fatal(err)
		}
	}
	got, err := p.FindChapters("night")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) == 0 || got[0].Title != "Night Market" {
		t.Errorf("FindChapters(night) = %+v", got)
	}
	all, _ := p.FindChapters("")
	if len(all) != 3 {
		t.Errorf("empty query returned %d chapters", len(all))
	}
}

func TestWordCountsAndDelete(t *testing.T) {
	p, _, rec := testProject(t)
	if err := p.SaveChapter("001-a", models.ChapterMeta{Order: 1, Title: "A"}, "one two three"); err != nil {
		t.Fatal(err)
	}
	if err := p.SaveChapter("002-b", models.ChapterMeta{Order: 2, Title: "B"}, "four five"); err != nil {
		t.Fatal(err)
	}
	total, err := p.TotalWords()
	if err != nil {
		t.Fatal(err)
	}
	if total != 5 {
		t.Errorf("TotalWords = %d, want 5", total)
	}

	if err := p.DeleteChapter("001-a"); err != nil {
		t.Fatal(err)
	}
	if _, err := p.LoadChapter("001-a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("LoadChapter after delete err = %v", err)
	}
	if err := p.DeleteChapter("001-a"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("second delete err = %v", err)
	}
	if last := rec.events[len(rec.events)-1]; last != EventChapterDeleted+":001-a" {
		t.Errorf("last event = %s", last)
	}
}

func TestLoadChapterDerivesNodes(t *testing.T) {
	p, _, _ := testProject(t)
	meta := models.ChapterMeta{Order: 1, Title: "A", Tags: []string{"draft"}}
	if err := p.SaveChapter("001-a", meta, "Line one\nLine two"); err != nil {
		t.Fatal(err)
	}
	ch, err := p.LoadChapter("001-a")
	if err != nil {
		t.Fatal(err)
	}
	if ch.Body != "Line one\nLine two" {
		t.Errorf("Body = %q", ch.Body)
	}
	if len(ch.Nodes) != 3 {
		t.Errorf("Nodes = %d, want 3", len(ch.Nodes))
	}
	if len(ch.Meta.Tags) != 1 || ch.Meta.Tags[0] != "draft" {
		t.Errorf("Tags = %v", ch.Meta.Tags)
	}
}

func TestDocuments(t *testing.T) {
	p, store, _ := testProject(t)
	if _, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Sarah"}); err != nil {
		t.Fatal(err)
	}
	doc, err := p.LoadDocument(models.TabCharacter, "sarah")
	if err != nil {
		t.Fatal(err)
	}
	if doc.StoragePath != "characters/sarah.md" || doc.Content != "" || doc.Name != "Sarah" {
		t.Errorf("doc = %+v", doc)
	}
	doc.Content = "Backstory."
	if err := p.SaveDocument(doc); err != nil {
		t.Fatal(err)
	}
	data, _ := store.Read("characters/sarah.md")
	if string(data) != "Backstory." {
		t.Errorf("notes = %q", data)
	}

	if _, err := p.LoadDocument(models.TabLocation, "nowhere"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("missing location err = %v", err)
	}

	idea, err := p.AddIdea("Twist ending")
	if err != nil {
		t.Fatal(err)
	}
	loaded, err := p.LoadDocument(models.TabIdea, idea.ID)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Content != "# Twist ending\n" {
		t.Errorf("idea content = %q", loaded.Content)
	}
}

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"The Beginning":       "the-beginning",
		"  Chapter 1: Rain! ": "chapter-1-rain",
		"Café au lait":        "café-au-lait",
		"???":                 "untitled",
	}
	for in, want := range tests {
		if got := Slugify(in); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	p, store, rec := testProject(t)
	if _, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Sarah"}); err != nil {
		t.Fatal(err)
	}

	changed, err := p.Reload()
	if err != nil {
		t.Fatal(err)
	}
	if changed {
		t.Error("reload of our own write should report no change")
	}

	external := `{"characters": [{"id": "alex", "name": "Alex", "active": true}]}`
	if err := store.Write(models.CharacterCatalogFile, []byte(external)); err != nil {
		t.Fatal(err)
	}
	rec.events = nil
	changed, err = p.Reload()
	if err != nil {
		t.Fatal(err)
	}
	if !changed {
		t.Fatal("external edit not detected")
	}
	if _, ok := p.Catalog().Character("alex"); !ok {
		t.Error("alex missing after reload")
	}
	if _, ok := p.Catalog().Character("sarah"); ok {
		t.Error("sarah still present after reload")
	}
	if len(rec.events) != 1 || rec.events[0] != EventCatalogUpdated+":" {
		t.Errorf("events = %v", rec.events)
	}
}

func TestReloadKeepsSnapshotOnBadFile(t *testing.T) {
	p, store, _ := testProject(t)
	if _, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Sarah"}); err != nil {
		t.Fatal(err)
	}
	_ = store.Write(models.CharacterCatalogFile, []byte("{not json"))
	if _, err := p.Reload(); err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := p.Catalog().Character("sarah"); !ok {
		t.Error("snapshot replaced by a bad file")
	}
}

// lockCheckingIndex records index calls made without holding the project
// lock and can fail chapter upserts.
type lockCheckingIndex struct {
	index.ChapterIndex
	p         *Project
	upsertErr error
	calls     []string
	unlocked  []string
}

func (l *lockCheckingIndex) check(op string) {
	l.calls = append(l.calls, op)
	if l.p != nil && l.p.mu.TryLock() {
		l.p.mu.Unlock()
		l.unlocked = append(l.unlocked, op)
	}
}

func (l *lockCheckingIndex) CountReferences(kind, id string) (int, error) {
	l.check("count")
	return l.ChapterIndex.CountReferences(kind, id)
}

func (l *lockCheckingIndex) UpsertChapter(c index.ChapterRow, body string) error {
	l.check("upsert")
	if l.upsertErr != nil {
		return l.upsertErr
	}
	return l.ChapterIndex.UpsertChapter(c, body)
}

func lockCheckedProject(t *testing.T) (*Project, *storage.Memory, *lockCheckingIndex) {
	t.Helper()
	store := storage.NewMemory()
	db := &lockCheckingIndex{ChapterIndex: testutil.TestDB(t)}
	p, err := Open(store, db, WithLogger(testutil.QuietLogger()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	db.p = p
	return p, store, db
}

func TestReferenceCheckAndReindexHoldProjectLock(t *testing.T) {
	p, _, db := lockCheckedProject(t)
	if _, err := p.AddCharacter(models.Character{ID: "sarah", Name: "Sarah"}); err != nil {
		t.Fatal(err)
	}
	meta := models.ChapterMeta{Order: 1, Title: "One", CharacterIDs: []string{"sarah"}}
	if err := p.SaveChapter("001-one", meta, "Sarah waited."); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteCharacter("sarah"); !errors.Is(err, apperr.ErrReferenced) {
		t.Fatalf("err = %v, want ErrReferenced", err)
	}
	meta.CharacterIDs = nil
	if err := p.SaveChapter("001-one", meta, "Nobody waited."); err != nil {
		t.Fatal(err)
	}
	if err := p.DeleteCharacter("sarah"); err != nil {
		t.Fatalf("DeleteCharacter: %v", err)
	}

	if len(db.calls) != 4 {
		t.Errorf("index calls = %v, want two upserts and two counts", db.calls)
	}
	if len(db.unlocked) != 0 {
		t.Errorf("index calls without project lock: %v", db.unlocked)
	}
}

func TestSaveChapterSucceedsWhenIndexFails(t *testing.T) {
	p, store, db := lockCheckedProject(t)
	db.upsertErr = errors.New("database is locked")

	meta := models.ChapterMeta{Order: 1, Title: "One"}
	if err := p.SaveChapter("001-one", meta, "Body."); err != nil {
		t.Fatalf("SaveChapter: %v", err)
	}
	data, err := store.Read(ChapterPath("001-one"))
	if err != nil {
		t.Fatalf("chapter not written: %v", err)
	}
	if !strings.Contains(string(data), "Body.") {
		t.Errorf("file = %q", data)
	}
}
