// Package project coordinates the project folder, the entity catalogs, and
// the chapter index.
package project

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/starford/quillmark/internal/entity"
	"github.com/starford/quillmark/internal/index"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/storage"
)

// Notifier receives change notifications. kind names the event and id the
// affected document or entity.
type Notifier func(kind, id string)

// Event kinds emitted by the project.
const (
	EventCatalogUpdated = "catalog.updated"
	EventChapterCreated = "chapter.created"
	EventChapterSaved   = "chapter.saved"
	EventChapterDeleted = "chapter.deleted"
	EventIdeaCreated    = "idea.created"
)

// Project is an open project folder.
type Project struct {
	store  storage.Provider
	db     index.ChapterIndex
	logger *slog.Logger
	notify Notifier

	// mu serialises catalog read-modify-write cycles and chapter writes;
	// readers use the snapshot pointer without locking.
	mu      sync.Mutex
	catalog atomic.Pointer[entity.Catalog]
}

// Option configures a Project.
type Option func(*Project)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Project) { p.logger = l }
}

// WithNotifier registers a change notifier.
func WithNotifier(n Notifier) Option {
	return func(p *Project) { p.notify = n }
}

// Open creates the project layout if needed and loads the catalogs.
func Open(store storage.Provider, db index.ChapterIndex, opts ...Option) (*Project, error) {
	p := &Project{store: store, db: db, logger: slog.Default()}
	for _, o := range opts {
		o(p)
	}
	if err := p.Init(); err != nil {
		return nil, err
	}
	if err := p.Load(); err != nil {
		return nil, err
	}
	return p, nil
}

// Init creates the project directories and empty catalog files.
func (p *Project) Init() error {
	for _, dir := range models.ProjectDirs {
		if err := p.store.CreateDirectory(dir); err != nil {
			return fmt.Errorf("project: create %s: %w", dir, err)
		}
	}
	if err := p.ensureFile(models.CharacterCatalogFile, func() ([]byte, error) { return entity.EncodeCharacters(nil) }); err != nil {
		return err
	}
	return p.ensureFile(models.LocationCatalogFile, func() ([]byte, error) { return entity.EncodeLocations(nil) })
}

func (p *Project) ensureFile(path string, empty func() ([]byte, error)) error {
	_, err := p.store.Read(path)
	if err == nil {
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("project: read %s: %w", path, err)
	}
	data, err := empty()
	if err != nil {
		return err
	}
	return p.store.Write(path, data)
}

// Load reads both catalog files and replaces the current snapshot. Missing
// files load as empty catalogs.
func (p *Project) Load() error {
	c, err := p.readCatalog()
	if err != nil {
		return err
	}
	p.catalog.Store(c)
	p.logger.Info("project loaded",
		slog.Int("characters", len(c.Characters())),
		slog.Int("locations", len(c.Locations())))
	return nil
}

// Reload rereads the catalog files after they changed on disk. It reports
// whether the catalog differs from the current snapshot and notifies
// observers when it does.
func (p *Project) Reload() (bool, error) {
	p.mu.Lock()
	next, err := p.readCatalog()
	if err != nil {
		p.mu.Unlock()
		return false, err
	}
	cur := p.catalog.Load()
	same, err := sameCatalog(cur, next)
	if err != nil || same {
		p.mu.Unlock()
		return false, err
	}
	p.catalog.Store(next)
	p.mu.Unlock()

	p.logger.Info("catalog reloaded",
		slog.Int("characters", len(next.Characters())),
		slog.Int("locations", len(next.Locations())))
	p.emit(EventCatalogUpdated, "")
	return true, nil
}

func (p *Project) readCatalog() (*entity.Catalog, error) {
	var (
		chars []models.Character
		locs  []models.Location
	)
	data, err := p.readOptional(models.CharacterCatalogFile)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if chars, err = entity.DecodeCharacters(data); err != nil {
			return nil, fmt.Errorf("project: %s: %w", models.CharacterCatalogFile, err)
		}
	}
	data, err = p.readOptional(models.LocationCatalogFile)
	if err != nil {
		return nil, err
	}
	if data != nil {
		if locs, err = entity.DecodeLocations(data); err != nil {
			return nil, fmt.Errorf("project: %s: %w", models.LocationCatalogFile, err)
		}
	}
	return entity.NewCatalog(chars, locs), nil
}

func (p *Project) readOptional(path string) ([]byte, error) {
	data, err := p.store.Read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("project: read %s: %w", path, err)
	}
	return data, nil
}

// Catalog returns the current catalog snapshot.
func (p *Project) Catalog() *entity.Catalog {
	return p.catalog.Load()
}

// Store exposes the underlying storage provider.
func (p *Project) Store() storage.Provider { return p.store }

func (p *Project) emit(kind, id string) {
	if p.notify != nil {
		p.notify(kind, id)
	}
}
