//go:build !sqlite_fts5

package index

import (
	"database/sql"
	"fmt"
)

// Without FTS5 the chapters.body column is searched with LIKE.
func initFTS(_ *sql.DB) error { return nil }

func ftsUpsert(_ *sql.Tx, _, _, _ string, _ []string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) error { return nil }

// Search matches query as a substring of title, body or tags. Results come
// in manuscript order.
func (db *DB) Search(query string, limit int) ([]SearchResult, error) {
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT path, id, ord, title, body
		FROM chapters
		WHERE title LIKE ? OR body LIKE ? OR tags LIKE ?
		ORDER BY ord, path
		LIMIT ?
	`, like, like, like, searchLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("index: search: %w", err)
	}
	defer rows.Close()

	var out []SearchResult
	for rows.Next() {
		var (
			r    SearchResult
			body string
		)
		if err := rows.Scan(&r.Path, &r.ID, &r.Order, &r.Title, &body); err != nil {
			return nil, fmt.Errorf("index: scan search row: %w", err)
		}
		r.Snippet = snippet(body, query)
		out = append(out, r)
	}
	return out, rows.Err()
}
