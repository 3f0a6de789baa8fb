package index

// ChapterIndex defines the interface for chapter indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type ChapterIndex interface {
	UpsertChapter(c ChapterRow, body string) error
	DeleteChapter(path string) error
	GetChecksum(path string) (string, error)
	ListChapters() ([]ChapterRow, error)
	Search(query string, limit int) ([]SearchResult, error)
	CountReferences(kind, entityID string) (int, error)
	ReferencingChapters(kind, entityID string) ([]string, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Close() error
}

// Verify *DB satisfies ChapterIndex at compile time.
var _ ChapterIndex = (*DB)(nil)
