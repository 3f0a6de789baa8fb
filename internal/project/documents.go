package project

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/starford/quillmark/internal/apperr"
	"github.com/starford/quillmark/internal/models"
)

// ListIdeas returns the idea files.
func (p *Project) ListIdeas() ([]models.FileMetadata, error) {
	return p.store.List(models.IdeasDir)
}

// AddIdea creates an idea document headed by title.
func (p *Project) AddIdea(title string) (models.Document, error) {
	id, err := p.freeID(models.IdeasDir, Slugify(title))
	if err != nil {
		return models.Document{}, err
	}
	doc := models.Document{
		ID:          id,
		Name:        title,
		Kind:        models.TabIdea,
		StoragePath: path.Join(models.IdeasDir, id+".md"),
		Content:     "# " + title + "\n",
	}
	if err := p.store.Write(doc.StoragePath, []byte(doc.Content)); err != nil {
		return models.Document{}, err
	}
	p.emit(EventIdeaCreated, id)
	return doc, nil
}

// LoadDocument loads the document a tab of the given kind edits. Character
// and location tabs edit the entity's notes file, which may not exist yet.
func (p *Project) LoadDocument(kind models.TabKind, id string) (models.Document, error) {
	switch kind {
	case models.TabChapter:
		ch, err := p.LoadChapter(id)
		if err != nil {
			return models.Document{}, err
		}
		meta := ch.Meta
		return models.Document{
			ID: id, Name: meta.Title, Kind: kind,
			StoragePath: ch.Path, Content: ch.Body, Chapter: &meta,
		}, nil

	case models.TabIdea:
		sp := path.Join(models.IdeasDir, id+".md")
		data, err := p.store.Read(sp)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return models.Document{}, fmt.Errorf("idea %s: %w", id, apperr.ErrNotFound)
			}
			return models.Document{}, err
		}
		return models.Document{ID: id, Name: id, Kind: kind, StoragePath: sp, Content: string(data)}, nil

	case models.TabCharacter:
		ch, ok := p.Catalog().Character(id)
		if !ok {
			return models.Document{}, fmt.Errorf("character %s: %w", id, apperr.ErrNotFound)
		}
		return p.notesDocument(kind, id, ch.Name, models.CharactersDir)

	case models.TabLocation:
		loc, ok := p.Catalog().Location(id)
		if !ok {
			return models.Document{}, fmt.Errorf("location %s: %w", id, apperr.ErrNotFound)
		}
		return p.notesDocument(kind, id, loc.Name, models.LocationsDir)
	}
	return models.Document{}, fmt.Errorf("document kind %q: %w", kind, apperr.ErrNotFound)
}

func (p *Project) notesDocument(kind models.TabKind, id, name, dir string) (models.Document, error) {
	sp := path.Join(dir, id+".md")
	data, err := p.store.Read(sp)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return models.Document{}, err
	}
	return models.Document{ID: id, Name: name, Kind: kind, StoragePath: sp, Content: string(data)}, nil
}

// SaveDocument persists a document. Chapters go through the frontmatter
// codec and are reindexed; other kinds are written verbatim.
func (p *Project) SaveDocument(doc models.Document) error {
	if doc.Kind == models.TabChapter {
		meta := models.ChapterMeta{Title: doc.Name}
		if doc.Chapter != nil {
			meta = *doc.Chapter
		}
		return p.SaveChapter(models.DocumentID(doc.StoragePath), meta, doc.Content)
	}
	return p.store.Write(doc.StoragePath, []byte(doc.Content))
}
