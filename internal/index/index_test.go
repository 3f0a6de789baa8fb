package index

import (
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/starford/quillmark/internal/storage"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	f, err := os.CreateTemp("", "quillmark-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	db, err := Open(f.Name())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM chapters`).Scan(&count); err != nil {
		t.Fatalf("chapters table missing: %v", err)
	}
	if err := db.conn.QueryRow(`SELECT count(*) FROM entity_refs`).Scan(&count); err != nil {
		t.Fatalf("entity_refs table missing: %v", err)
	}
}

func TestUpsertAndGetChecksum(t *testing.T) {
	db := testDB(t)
	row := ChapterRow{
		Path:         "chapters/001-beginning.md",
		ID:           "001-beginning",
		Order:        1,
		Title:        "Chapter 1 - The Beginning",
		Checksum:     "abc123",
		Tags:         []string{"draft"},
		CharacterIDs: []string{"sarah"},
		UpdatedAt:    time.Now(),
	}
	if err := db.UpsertChapter(row, "It was raining."); err != nil {
		t.Fatalf("UpsertChapter: %v", err)
	}
	cs, err := db.GetChecksum(row.Path)
	if err != nil {
		t.Fatalf("GetChecksum: %v", err)
	}
	if cs != "abc123" {
		t.Errorf("checksum = %q, want %q", cs, "abc123")
	}
}

func TestCountReferences(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/001-a.md", CharacterIDs: []string{"sarah", "alex"}, Location: "dock", UpdatedAt: now}, "")
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/002-b.md", CharacterIDs: []string{"sarah"}, UpdatedAt: now}, "")
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/003-c.md", Location: "dock", UpdatedAt: now}, "")

	cases := []struct {
		kind, id string
		want     int
	}{
		{"character", "sarah", 2},
		{"character", "alex", 1},
		{"character", "nobody", 0},
		{"location", "dock", 2},
		{"character", "dock", 0},
	}
	for _, tc := range cases {
		n, err := db.CountReferences(tc.kind, tc.id)
		if err != nil {
			t.Fatalf("CountReferences: %v", err)
		}
		if n != tc.want {
			t.Errorf("CountReferences(%s, %s) = %d, want %d", tc.kind, tc.id, n, tc.want)
		}
	}
	paths, _ := db.ReferencingChapters("character", "sarah")
	if len(paths) != 2 || paths[0] != "chapters/001-a.md" {
		t.Errorf("paths = %v", paths)
	}
}

func TestDeleteChapter(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/del.md", Checksum: "x", CharacterIDs: []string{"sarah"}, UpdatedAt: time.Now()}, "body")

	if err := db.DeleteChapter("chapters/del.md"); err != nil {
		t.Fatalf("DeleteChapter: %v", err)
	}
	cs, _ := db.GetChecksum("chapters/del.md")
	if cs != "" {
		t.Errorf("deleted chapter still has checksum %q", cs)
	}
	n, _ := db.CountReferences("character", "sarah")
	if n != 0 {
		t.Errorf("expected 0 references after delete, got %d", n)
	}
}

func TestUpsertReplacesReferences(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/up.md", Title: "Old", Checksum: "1", CharacterIDs: []string{"x"}, UpdatedAt: now}, "old body")
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/up.md", Title: "New", Checksum: "2", CharacterIDs: []string{"y"}, UpdatedAt: now}, "new body")

	cs, _ := db.GetChecksum("chapters/up.md")
	if cs != "2" {
		t.Errorf("checksum = %q, want %q", cs, "2")
	}
	if n, _ := db.CountReferences("character", "x"); n != 0 {
		t.Error("old reference should be removed on upsert")
	}
	if n, _ := db.CountReferences("character", "y"); n != 1 {
		t.Error("new reference should exist")
	}
}

func TestListChapters_SortedByOrder(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/001-z.md", Order: 3, Title: "Third", UpdatedAt: now}, "")
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/009-a.md", Order: 1, Title: "First", CharacterIDs: []string{"s"}, Location: "l", UpdatedAt: now}, "")
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/005-m.md", Order: 2, Title: "Second", UpdatedAt: now}, "")

	rows, err := db.ListChapters()
	if err != nil {
		t.Fatalf("ListChapters: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len = %d", len(rows))
	}
	if rows[0].Title != "First" || rows[1].Title != "Second" || rows[2].Title != "Third" {
		t.Errorf("order = %s, %s, %s", rows[0].Title, rows[1].Title, rows[2].Title)
	}
	if len(rows[0].CharacterIDs) != 1 || rows[0].Location != "l" {
		t.Errorf("refs = %v / %q", rows[0].CharacterIDs, rows[0].Location)
	}
}

func TestGetChecksum_NotFound(t *testing.T) {
	db := testDB(t)
	cs, err := db.GetChecksum("chapters/nonexistent.md")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cs != "" {
		t.Errorf("expected empty checksum, got %q", cs)
	}
}

func TestSearch_Basic(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertChapter(ChapterRow{Path: "chapters/s.md", Title: "Search Me", Checksum: "1", UpdatedAt: time.Now()}, "uniqueword appears here")

	results, err := db.Search("uniqueword", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 1 || results[0].Path != "chapters/s.md" {
		t.Errorf("search results = %+v, want 1 hit", results)
	}
}

func TestSync_IndexesChaptersOnly(t *testing.T) {
	db := testDB(t)
	store := storage.NewMemory()
	_ = store.Write("chapters/001-a.md", []byte("---\norder: 1\ntitle: \"A\"\ncharacters: [\"sarah\"]\n---\n\nOne two three"))
	_ = store.Write("chapters/002-b.md", []byte("no frontmatter at all"))
	_ = store.Write("ideas/idea.md", []byte("idea"))

	if err := Sync(db, store, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rows, _ := db.ListChapters()
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].Title != "Untitled" || rows[0].Order != 0 {
		t.Errorf("malformed chapter row = %+v", rows[0])
	}
	if rows[1].WordCount != 3 || rows[1].ID != "001-a" {
		t.Errorf("row = %+v", rows[1])
	}

	_ = store.Delete("chapters/002-b.md")
	_ = Sync(db, store, quietLogger())
	paths, _ := db.AllPaths()
	if _, ok := paths["chapters/002-b.md"]; ok || len(paths) != 1 {
		t.Errorf("paths after delete = %v", paths)
	}
}
