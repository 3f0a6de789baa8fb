package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/starford/quillmark/internal/models"
)

// ChapterRow represents a row in the chapters table together with the
// entities the chapter references.
type ChapterRow struct {
	Path         string
	ID           string
	Order        int
	Title        string
	Checksum     string
	Tags         []string
	CharacterIDs []string
	Location     string
	WordCount    int
	UpdatedAt    time.Time
}


// UpsertChapter inserts or replaces a chapter, its FTS entry, and its entity
// references within a transaction.
func (db *DB) UpsertChapter(c ChapterRow, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if c.Tags == nil {
		c.Tags = []string{}
	}
	tagsJSON, _ := json.Marshal(c.Tags)

	_, err = tx.Exec(`
		INSERT INTO chapters (path, id, ord, title, checksum, tags, body, word_count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			id         = excluded.id,
			ord        = excluded.ord,
			title      = excluded.title,
			checksum   = excluded.checksum,
			tags       = excluded.tags,
			body       = excluded.body,
			word_count = excluded.word_count,
			updated_at = excluded.updated_at
	`, c.Path, c.ID, c.Order, c.Title, c.Checksum, string(tagsJSON), body, c.WordCount, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: upsert chapter: %w", err)
	}

	if err := ftsUpsert(tx, c.Path, c.Title, body, c.Tags); err != nil {
		return err
	}

	_, _ = tx.Exec(`DELETE FROM entity_refs WHERE path = ?`, c.Path)
	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO entity_refs (path, kind, entity_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("index: prepare ref insert: %w", err)
	}
	defer stmt.Close()
	for _, id := range c.CharacterIDs {
		if id == "" {
			continue
		}
		if _, err := stmt.Exec(c.Path, string(models.KindCharacter), id); err != nil {
			return fmt.Errorf("index: insert character ref: %w", err)
		}
	}
	if c.Location != "" {
		if _, err := stmt.Exec(c.Path, string(models.KindLocation), c.Location); err != nil {
			return fmt.Errorf("index: insert location ref: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteChapter removes a chapter, its FTS entry, and its references.
func (db *DB) DeleteChapter(path string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("index: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := ftsDelete(tx, path); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM entity_refs WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete refs: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM chapters WHERE path = ?`, path); err != nil {
		return fmt.Errorf("index: delete chapter: %w", err)
	}

	return tx.Commit()
}

// GetChecksum returns the stored checksum for a chapter, or empty string if not found.
func (db *DB) GetChecksum(path string) (string, error) {
	var cs string
	err := db.conn.QueryRow(`SELECT checksum FROM chapters WHERE path = ?`, path).Scan(&cs)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("index: checksum %s: %w", path, err)
	}
	return cs, nil
}

// ListChapters returns every chapter ordered by its metadata order, then path.
// Reference columns are filled in.
func (db *DB) ListChapters() ([]ChapterRow, error) {
	rows, err := db.conn.Query(`
		SELECT path, id, ord, title, checksum, tags, word_count, updated_at
		FROM chapters
		ORDER BY ord, path
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list chapters: %w", err)
	}
	defer rows.Close()

	var out []ChapterRow
	for rows.Next() {
		var (
			c    ChapterRow
			tags string
		)
		if err := rows.Scan(&c.Path, &c.ID, &c.Order, &c.Title, &c.Checksum, &tags, &c.WordCount, &c.UpdatedAt); err != nil {
			return nil, err
		}
		_ = json.Unmarshal([]byte(tags), &c.Tags)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		if err := db.loadRefs(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) loadRefs(c *ChapterRow) error {
	rows, err := db.conn.Query(`SELECT kind, entity_id FROM entity_refs WHERE path = ? ORDER BY rowid`, c.Path)
	if err != nil {
		return fmt.Errorf("index: load refs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return err
		}
		switch models.EntityKind(kind) {
		case models.KindCharacter:
			c.CharacterIDs = append(c.CharacterIDs, id)
		case models.KindLocation:
			c.Location = id
		}
	}
	return rows.Err()
}

// CountReferences returns how many chapters reference the entity.
func (db *DB) CountReferences(kind, entityID string) (int, error) {
	var n int
	err := db.conn.QueryRow(
		`SELECT count(DISTINCT path) FROM entity_refs WHERE kind = ? AND entity_id = ?`,
		kind, entityID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("index: count refs: %w", err)
	}
	return n, nil
}

// ReferencingChapters returns the paths of chapters referencing the entity.
func (db *DB) ReferencingChapters(kind, entityID string) ([]string, error) {
	rows, err := db.conn.Query(
		`SELECT DISTINCT path FROM entity_refs WHERE kind = ? AND entity_id = ? ORDER BY path`,
		kind, entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("index: referencing chapters: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// AllPaths returns every indexed chapter path.
func (db *DB) AllPaths() (map[string]struct{}, error) {
	rows, err := db.conn.Query(`SELECT path FROM chapters`)
	if err != nil {
		return nil, fmt.Errorf("index: all paths: %w", err)
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out[p] = struct{}{}
	}
	return out, rows.Err()
}

// AllChecksums returns path -> checksum for every indexed chapter.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT path, checksum FROM chapters`)
	if err != nil {
		return nil, fmt.Errorf("index: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var p, cs string
		if err := rows.Scan(&p, &cs); err != nil {
			return nil, err
		}
		out[p] = cs
	}
	return out, rows.Err()
}
