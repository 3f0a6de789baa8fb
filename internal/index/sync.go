package index

import (
	"log/slog"
	"strings"
	"time"

	"github.com/starford/quillmark/internal/checksum"
	"github.com/starford/quillmark/internal/frontmatter"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/nodes"
	"github.com/starford/quillmark/internal/storage"
)

// Sync walks the chapters directory and brings the index up to date:
//   - new/changed chapters are parsed and upserted
//   - chapters removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List(models.ChaptersDir)
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexChapter(db, m.Path, data, logger); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteChapter(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexChapter parses a persisted chapter and upserts it. Malformed
// frontmatter is logged and indexed with default metadata.
func IndexChapter(db ChapterIndex, path string, data []byte, logger *slog.Logger) error {
	res := frontmatter.Parse(string(data))
	if res.Err != nil && logger != nil {
		logger.Warn("index: malformed frontmatter", slog.String("path", path), slog.String("error", res.Err.Error()))
	}
	meta, problems := frontmatter.ChapterMeta(res.Metadata)
	if len(problems) > 0 && logger != nil {
		logger.Warn("index: invalid chapter metadata", slog.String("path", path), slog.String("problems", strings.Join(problems, "; ")))
	}

	return db.UpsertChapter(ChapterRow{
		Path:         path,
		ID:           models.DocumentID(path),
		Order:        meta.Order,
		Title:        meta.Title,
		Checksum:     checksum.Sum(data),
		Tags:         meta.Tags,
		CharacterIDs: meta.CharacterIDs,
		Location:     meta.Location,
		WordCount:    nodes.WordCount(res.Body),
		UpdatedAt:    time.Now(),
	}, res.Body)
}
