package project

import (
	"bytes"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/quillmark/internal/apperr"
	"github.com/starford/quillmark/internal/entity"
	"github.com/starford/quillmark/internal/models"
)

// Default display color for new entities.
const defaultColor = "#808080"

// AddCharacter stores a new character. An empty ID is generated.
func (p *Project) AddCharacter(ch models.Character) (models.Character, error) {
	if ch.ID == "" {
		ch.ID = uuid.NewString()
	}
	if err := ch.Validate(); err != nil {
		return models.Character{}, err
	}
	err := p.mutate(func(c *entity.Catalog) (*entity.Catalog, error) {
		if _, ok := c.Character(ch.ID); ok {
			return nil, fmt.Errorf("character %s: %w", ch.ID, apperr.ErrAlreadyExists)
		}
		return c.PutCharacter(ch), nil
	})
	if err != nil {
		return models.Character{}, err
	}
	p.emit(EventCatalogUpdated, ch.ID)
	return ch, nil
}

// UpdateCharacter replaces an existing character.
func (p *Project) UpdateCharacter(ch models.Character) error {
	if err := ch.Validate(); err != nil {
		return err
	}
	err := p.mutate(func(c *entity.Catalog) (*entity.Catalog, error) {
		if _, ok := c.Character(ch.ID); !ok {
			return nil, fmt.Errorf("character %s: %w", ch.ID, apperr.ErrNotFound)
		}
		return c.PutCharacter(ch), nil
	})
	if err != nil {
		return err
	}
	p.emit(EventCatalogUpdated, ch.ID)
	return nil
}

// DeleteCharacter removes a character that no chapter references.
func (p *Project) DeleteCharacter(id string) error {
	err := p.mutate(func(c *entity.Catalog) (*entity.Catalog, error) {
		if _, ok := c.Character(id); !ok {
			return nil, fmt.Errorf("character %s: %w", id, apperr.ErrNotFound)
		}
		if err := p.ensureUnreferenced(models.KindCharacter, id); err != nil {
			return nil, err
		}
		return c.RemoveCharacter(id), nil
	})
	if err != nil {
		return err
	}
	p.emit(EventCatalogUpdated, id)
	return nil
}

// AddLocation stores a new location. An empty ID is generated and an empty
// type defaults to indoor.
func (p *Project) AddLocation(loc models.Location) (models.Location, error) {
	if loc.ID == "" {
		loc.ID = uuid.NewString()
	}
	if loc.Type == "" {
		loc.Type = models.LocationIndoor
	}
	if loc.Color == "" {
		loc.Color = defaultColor
	}
	if err := loc.Validate(); err != nil {
		return models.Location{}, err
	}
	parent := loc.ParentLocation
	err := p.mutate(func(c *entity.Catalog) (*entity.Catalog, error) {
		if _, ok := c.Location(loc.ID); ok {
			return nil, fmt.Errorf("location %s: %w", loc.ID, apperr.ErrAlreadyExists)
		}
		next := c.PutLocation(loc)
		if parent == "" {
			return next, nil
		}
		return next.SetParent(loc.ID, parent)
	})
	if err != nil {
		return models.Location{}, err
	}
	p.emit(EventCatalogUpdated, loc.ID)
	out, _ := p.Catalog().Location(loc.ID)
	return out, nil
}

// UpdateLocation replaces an existing location's attributes. The hierarchy
// is changed only through SetParentLocation.
func (p *Project) UpdateLocation(loc models.Location) error {
	if err := loc.Validate(); err != nil {
		return err
	}
	err := p.mutate(func(c *entity.Catalog) (*entity.Catalog, error) {
		if _, ok := c.Location(loc.ID); !ok {
			return nil, fmt.Errorf("location %s: %w", loc.ID, apperr.ErrNotFound)
		}
		return c.PutLocation(loc), nil
	})
	if err != nil {
		return err
	}
	p.emit(EventCatalogUpdated, loc.ID)
	return nil
}

// DeleteLocation removes a location that no chapter references. Its
// children become roots.
func (p *Project) DeleteLocation(id string) error {
	err := p.mutate(func(c *entity.Catalog) (*entity.Catalog, error) {
		if _, ok := c.Location(id); !ok {
			return nil, fmt.Errorf("location %s: %w", id, apperr.ErrNotFound)
		}
		if err := p.ensureUnreferenced(models.KindLocation, id); err != nil {
			return nil, err
		}
		return c.RemoveLocation(id), nil
	})
	if err != nil {
		return err
	}
	p.emit(EventCatalogUpdated, id)
	return nil
}

// SetParentLocation moves a location in the hierarchy. An empty parentID
// makes it a root.
func (p *Project) SetParentLocation(id, parentID string) error {
	err := p.mutate(func(c *entity.Catalog) (*entity.Catalog, error) {
		return c.SetParent(id, parentID)
	})
	if err != nil {
		return err
	}
	p.emit(EventCatalogUpdated, id)
	return nil
}

// ReferencingChapters lists the ids of chapters that reference the entity.
func (p *Project) ReferencingChapters(kind models.EntityKind, id string) ([]string, error) {
	paths, err := p.db.ReferencingChapters(string(kind), id)
	if err != nil {
		return nil, fmt.Errorf("project: referencing chapters: %w", err)
	}
	ids := make([]string, len(paths))
	for i, path := range paths {
		ids[i] = models.DocumentID(path)
	}
	return ids, nil
}

// ensureUnreferenced must run under p.mu so that no chapter save can add a
// reference between the count and the removal.
func (p *Project) ensureUnreferenced(kind models.EntityKind, id string) error {
	n, err := p.db.CountReferences(string(kind), id)
	if err != nil {
		return fmt.Errorf("project: count references: %w", err)
	}
	if n > 0 {
		return &apperr.ReferencedError{Kind: string(kind), ID: id, Count: n}
	}
	return nil
}

// mutate applies fn to the current catalog, persists the result, and only
// then publishes it. A failed write leaves the snapshot unchanged.
func (p *Project) mutate(fn func(*entity.Catalog) (*entity.Catalog, error)) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	cur := p.catalog.Load()
	next, err := fn(cur)
	if err != nil {
		return err
	}
	if next == cur {
		return nil
	}
	if err := p.persist(cur, next); err != nil {
		return err
	}
	p.catalog.Store(next)
	return nil
}

// catalogFiles pairs each catalog file with its encoder.
var catalogFiles = []struct {
	path   string
	encode func(*entity.Catalog) ([]byte, error)
}{
	{models.CharacterCatalogFile, func(c *entity.Catalog) ([]byte, error) { return entity.EncodeCharacters(c.Characters()) }},
	{models.LocationCatalogFile, func(c *entity.Catalog) ([]byte, error) { return entity.EncodeLocations(c.Locations()) }},
}

func (p *Project) persist(prev, next *entity.Catalog) error {
	for _, f := range catalogFiles {
		before, err := f.encode(prev)
		if err != nil {
			return err
		}
		after, err := f.encode(next)
		if err != nil {
			return err
		}
		if bytes.Equal(before, after) {
			continue
		}
		if err := p.store.Write(f.path, after); err != nil {
			return fmt.Errorf("project: write %s: %w", f.path, err)
		}
	}
	return nil
}

func sameCatalog(a, b *entity.Catalog) (bool, error) {
	for _, f := range catalogFiles {
		x, err := f.encode(a)
		if err != nil {
			return false, err
		}
		y, err := f.encode(b)
		if err != nil {
			return false, err
		}
		if !bytes.Equal(x, y) {
			return false, nil
		}
	}
	return true, nil
}
