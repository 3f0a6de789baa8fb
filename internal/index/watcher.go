package index

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/quillmark/internal/checksum"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/storage"
)

// Change kinds reported for chapter files.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

const defaultQuietPeriod = 150 * time.Millisecond

// Watcher keeps the index in step with chapter files edited outside the
// application and reports catalog files changed on disk.
//
// Events are coalesced per path until the project has been quiet for the
// quiet period, so an editor's write-rename-chmod burst is one change. A
// file whose content matches its indexed checksum produces no change; the
// application's own saves, indexed as they are written, stay silent.
type Watcher struct {
	db        *DB
	store     storage.Provider
	root      string
	logger    *slog.Logger
	quiet     time.Duration
	onChapter func(kind, path string)
	onCatalog func(path string)
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// OnChapter registers fn for chapter changes. path is relative to the
// project root.
func OnChapter(fn func(kind, path string)) WatchOption {
	return func(w *Watcher) { w.onChapter = fn }
}

// OnCatalog registers fn for changes to a character or location catalog file.
func OnCatalog(fn func(path string)) WatchOption {
	return func(w *Watcher) { w.onCatalog = fn }
}

// WithQuietPeriod overrides how long the watcher waits for events to settle.
func WithQuietPeriod(d time.Duration) WatchOption {
	return func(w *Watcher) { w.quiet = d }
}

// NewWatcher creates a watcher for the project rooted at root.
func NewWatcher(db *DB, store storage.Provider, root string, logger *slog.Logger, opts ...WatchOption) *Watcher {
	w := &Watcher{db: db, store: store, root: root, logger: logger, quiet: defaultQuietPeriod}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: %w", err)
	}
	defer fw.Close()

	for _, dir := range []string{models.ChaptersDir, models.CharactersDir, models.LocationsDir} {
		abs := filepath.Join(w.root, dir)
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return fmt.Errorf("watcher: %w", err)
		}
		if err := fw.Add(abs); err != nil {
			return fmt.Errorf("watcher: watch %s: %w", dir, err)
		}
	}
	w.logger.Info("watcher: started", slog.String("root", w.root))

	pending := make(map[string]struct{})
	settle := time.NewTimer(w.quiet)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watcher: stopped")
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			rel, ok := w.relevant(ev.Name)
			if !ok {
				continue
			}
			pending[rel] = struct{}{}
			settle.Reset(w.quiet)

		case <-settle.C:
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			clear(pending)
			slices.Sort(paths)
			w.flush(paths)

		case werr, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

// relevant maps an absolute event path to a project path the watcher
// handles: a chapter file directly under chapters/ or a catalog file.
func (w *Watcher) relevant(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	switch {
	case rel == models.CharacterCatalogFile, rel == models.LocationCatalogFile:
		return rel, true
	case models.IsChapterPath(rel) && path.Dir(rel) == models.ChaptersDir:
		return rel, true
	}
	return "", false
}

func (w *Watcher) flush(paths []string) {
	for _, p := range paths {
		if !models.IsChapterPath(p) {
			w.logger.Debug("watcher: catalog changed", slog.String("path", p))
			if w.onCatalog != nil {
				w.onCatalog(p)
			}
			continue
		}
		kind, err := w.syncChapter(p)
		if err != nil {
			w.logger.Warn("watcher: reindex failed", slog.String("path", p), slog.String("error", err.Error()))
			continue
		}
		if kind == "" {
			continue
		}
		w.logger.Debug("watcher: reindexed", slog.String("path", p), slog.String("change", kind))
		if w.onChapter != nil {
			w.onChapter(kind, p)
		}
	}
}

// syncChapter brings one chapter's index entry in line with the file on
// disk and returns the kind of change, or "" when nothing changed.
func (w *Watcher) syncChapter(p string) (string, error) {
	indexed, err := w.db.GetChecksum(p)
	if err != nil {
		return "", err
	}
	data, err := w.store.Read(p)
	if errors.Is(err, fs.ErrNotExist) {
		if indexed == "" {
			return "", nil
		}
		if err := w.db.DeleteChapter(p); err != nil {
			return "", err
		}
		return ChangeDeleted, nil
	}
	if err != nil {
		return "", err
	}
	if checksum.Sum(data) == indexed {
		return "", nil
	}
	if err := IndexChapter(w.db, p, data, w.logger); err != nil {
		return "", err
	}
	if indexed == "" {
		return ChangeCreated, nil
	}
	return ChangeUpdated, nil
}
