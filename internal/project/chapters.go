package project

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"sort"
	"strconv"

	"github.com/sahilm/fuzzy"

	"github.com/starford/quillmark/internal/apperr"
	"github.com/starford/quillmark/internal/checksum"
	"github.com/starford/quillmark/internal/frontmatter"
	"github.com/starford/quillmark/internal/index"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/nodes"
)

// Chapter is a loaded chapter: its metadata, prose body, and the node
// sequence derived from the body.
type Chapter struct {
	ID       string             `json:"id"`
	Path     string             `json:"path"`
	Meta     models.ChapterMeta `json:"meta"`
	Body     string             `json:"body"`
	Nodes    nodes.Sequence     `json:"nodes"`
	Checksum string             `json:"checksum"`
}

// ChapterPath returns the storage path for a chapter id.
func ChapterPath(id string) string {
	return path.Join(models.ChaptersDir, id+".md")
}

// ListChapters returns all indexed chapters ordered by their order field.
func (p *Project) ListChapters() ([]models.ChapterSummary, error) {
	rows, err := p.db.ListChapters()
	if err != nil {
		return nil, err
	}
	out := make([]models.ChapterSummary, len(rows))
	for i, r := range rows {
		out[i] = summaryFromRow(r)
	}
	return out, nil
}

// TotalWords sums the word counts of all chapters.
func (p *Project) TotalWords() (int, error) {
	list, err := p.ListChapters()
	if err != nil {
		return 0, err
	}
	total := 0
	for _, c := range list {
		total += c.WordCount
	}
	return total, nil
}

// DuplicateOrders reports order values shared by more than one chapter,
// mapped to the ids sharing them.
func (p *Project) DuplicateOrders() (map[int][]string, error) {
	list, err := p.ListChapters()
	if err != nil {
		return nil, err
	}
	byOrder := make(map[int][]string)
	for _, c := range list {
		byOrder[c.Order] = append(byOrder[c.Order], c.ID)
	}
	for k, ids := range byOrder {
		if len(ids) < 2 {
			delete(byOrder, k)
		}
	}
	return byOrder, nil
}

// FindChapters fuzzy-matches query against chapter titles, best match
// first. An empty query returns every chapter in order.
func (p *Project) FindChapters(query string) ([]models.ChapterSummary, error) {
	list, err := p.ListChapters()
	if err != nil || query == "" {
		return list, err
	}
	titles := make([]string, len(list))
	for i, c := range list {
		titles[i] = c.Title
	}
	matches := fuzzy.Find(query, titles)
	out := make([]models.ChapterSummary, 0, len(matches))
	for _, m := range matches {
		out = append(out, list[m.Index])
	}
	return out, nil
}

// Search runs a full-text query over chapter bodies.
func (p *Project) Search(query string, limit int) ([]index.SearchResult, error) {
	return p.db.Search(query, limit)
}

// LoadChapter reads and parses a chapter.
func (p *Project) LoadChapter(id string) (*Chapter, error) {
	cp := ChapterPath(id)
	data, err := p.store.Read(cp)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("chapter %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	res := frontmatter.Parse(string(data))
	if res.Err != nil {
		p.logger.Warn("malformed chapter frontmatter", slog.String("path", cp), slog.String("error", res.Err.Error()))
	}
	meta, problems := frontmatter.ChapterMeta(res.Metadata)
	for _, prob := range problems {
		p.logger.Warn("chapter metadata", slog.String("path", cp), slog.String("problem", prob))
	}
	return &Chapter{
		ID:       id,
		Path:     cp,
		Meta:     meta,
		Body:     res.Body,
		Nodes:    nodes.FromProse(res.Body),
		Checksum: checksum.Sum(data),
	}, nil
}

// AddChapter creates a chapter ordered after every existing one and named
// NNN-slug.md.
func (p *Project) AddChapter(title string) (*Chapter, error) {
	list, err := p.ListChapters()
	if err != nil {
		return nil, err
	}
	order := 1
	for _, c := range list {
		if c.Order >= order {
			order = c.Order + 1
		}
	}
	if title == "" {
		title = frontmatter.DefaultTitle
	}

	id, err := p.freeID(models.ChaptersDir, fmt.Sprintf("%03d-%s", order, Slugify(title)))
	if err != nil {
		return nil, err
	}
	meta := models.ChapterMeta{Order: order, Title: title, Tags: []string{}, CharacterIDs: []string{}}
	if err := p.SaveChapter(id, meta, ""); err != nil {
		return nil, err
	}
	p.emit(EventChapterCreated, id)
	return p.LoadChapter(id)
}

// SaveChapter serialises meta and body to the chapter file and reindexes
// it. Once the file is written the save succeeds; an index failure is
// logged and repaired by the next sync.
func (p *Project) SaveChapter(id string, meta models.ChapterMeta, body string) error {
	text, err := frontmatter.Serialize(body, frontmatter.ChapterMetadata(meta))
	if err != nil {
		return err
	}
	cp := ChapterPath(id)

	p.mu.Lock()
	if err := p.store.Write(cp, []byte(text)); err != nil {
		p.mu.Unlock()
		return err
	}
	ierr := p.IndexChapter(cp, []byte(text))
	p.mu.Unlock()

	if ierr != nil {
		p.logger.Error("chapter saved but not indexed", slog.String("path", cp), slog.String("error", ierr.Error()))
	}
	p.emit(EventChapterSaved, id)
	return nil
}

// IndexChapter refreshes the index entry of a persisted chapter.
func (p *Project) IndexChapter(path string, data []byte) error {
	return index.IndexChapter(p.db, path, data, p.logger)
}

// DeleteChapter removes a chapter file and its index entry.
func (p *Project) DeleteChapter(id string) error {
	cp := ChapterPath(id)
	if err := p.store.Delete(cp); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("chapter %s: %w", id, apperr.ErrNotFound)
		}
		return err
	}
	if err := p.db.DeleteChapter(cp); err != nil {
		return err
	}
	p.emit(EventChapterDeleted, id)
	return nil
}

// Manuscript loads every chapter in reading order.
func (p *Project) Manuscript() ([]*Chapter, error) {
	list, err := p.ListChapters()
	if err != nil {
		return nil, err
	}
	out := make([]*Chapter, 0, len(list))
	for _, s := range list {
		ch, err := p.LoadChapter(s.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Meta.Order < out[j].Meta.Order })
	return out, nil
}

// freeID returns base, or base-2, base-3, ... when the file already exists.
func (p *Project) freeID(dir, base string) (string, error) {
	id := base
	for n := 2; ; n++ {
		_, err := p.store.Read(path.Join(dir, id+".md"))
		if errors.Is(err, fs.ErrNotExist) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
		id = base + "-" + strconv.Itoa(n)
	}
}

func summaryFromRow(r index.ChapterRow) models.ChapterSummary {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.ChapterSummary{
		ID:        r.ID,
		Path:      r.Path,
		Order:     r.Order,
		Title:     r.Title,
		Tags:      tags,
		WordCount: r.WordCount,
		Checksum:  r.Checksum,
		UpdatedAt: r.UpdatedAt,
	}
}
