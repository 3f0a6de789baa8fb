// Package session owns the open documents of an editing session: tabs, the
// active tab, cursor state, and the save path.
package session

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/starford/quillmark/internal/apperr"
	"github.com/starford/quillmark/internal/checksum"
	"github.com/starford/quillmark/internal/entity"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/nodes"
)

// Persister writes documents to the project.
type Persister interface {
	SaveDocument(doc models.Document) error
}

// CatalogSource yields the current entity catalog snapshot.
type CatalogSource interface {
	Catalog() *entity.Catalog
}

// Event kinds delivered to observers.
const (
	EventTabOpened    = "tab.opened"
	EventTabActivated = "tab.activated"
	EventTabChanged   = "tab.changed"
	EventTabClosed    = "tab.closed"
	EventTabSaved     = "tab.saved"
)

// Event describes a state change of a tab.
type Event struct {
	Type  string         `json:"type"`
	TabID string         `json:"tab_id"`
	Kind  models.TabKind `json:"kind"`
}

// Observer is notified after a state change, outside the session lock.
type Observer func(Event)

// Tab is a snapshot of an open document.
type Tab struct {
	ID          string              `json:"id"`
	DocumentID  string              `json:"document_id"`
	Name        string              `json:"name"`
	Kind        models.TabKind      `json:"kind"`
	StoragePath string              `json:"storage_path"`
	Content     string              `json:"content"`
	Modified    bool                `json:"modified"`
	Chapter     *models.ChapterMeta `json:"chapter,omitempty"`
	Nodes       nodes.Sequence      `json:"nodes,omitempty"`
	Cursor      nodes.Cursor        `json:"cursor"`
	Selection   *Selection          `json:"selection,omitempty"`
}

type tabState struct {
	tab      Tab
	savedSum string
	metaRev  int
	savedRev int
	saving   bool
}

func (t *tabState) refreshModified() {
	t.tab.Modified = !checksum.Matches(t.tab.Content, t.savedSum) || t.metaRev != t.savedRev
}

func (t *tabState) snapshot() Tab {
	out := t.tab
	if t.tab.Chapter != nil {
		meta := t.tab.Chapter.Clone()
		out.Chapter = &meta
	}
	if t.tab.Selection != nil {
		sel := *t.tab.Selection
		out.Selection = &sel
	}
	return out
}

// Session holds the open tabs. All methods are safe for concurrent use.
type Session struct {
	persist   Persister
	catalog   CatalogSource
	logger    *slog.Logger
	observers []Observer

	mu     sync.Mutex
	tabs   []*tabState
	active string
	queue  []Command
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Session) { s.logger = l }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(s *Session) { s.observers = append(s.observers, o) }
}

// New creates an empty session.
func New(p Persister, c CatalogSource, opts ...Option) *Session {
	s := &Session{persist: p, catalog: c, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// TabID returns the tab id for a document.
func TabID(kind models.TabKind, documentID string) string {
	return string(kind) + ":" + documentID
}

func (s *Session) emit(events ...Event) {
	for _, e := range events {
		for _, o := range s.observers {
			o(e)
		}
	}
}

func (s *Session) find(id string) (int, *tabState) {
	for i, t := range s.tabs {
		if t.tab.ID == id {
			return i, t
		}
	}
	return -1, nil
}

func (s *Session) activeTab() *tabState {
	_, t := s.find(s.active)
	return t
}

func (s *Session) resolver() nodes.NameResolver {
	if s.catalog == nil {
		return nil
	}
	if c := s.catalog.Catalog(); c != nil {
		return c
	}
	return nil
}

// OpenTab opens doc and makes it active. A document that is already open is
// activated with its live content; nothing is reloaded.
func (s *Session) OpenTab(doc models.Document) Tab {
	id := TabID(doc.Kind, doc.ID)

	s.mu.Lock()
	if _, t := s.find(id); t != nil {
		s.active = id
		snap := t.snapshot()
		s.mu.Unlock()
		s.emit(Event{Type: EventTabActivated, TabID: id, Kind: doc.Kind})
		return snap
	}

	t := &tabState{
		tab: Tab{
			ID:          id,
			DocumentID:  doc.ID,
			Name:        doc.Name,
			Kind:        doc.Kind,
			StoragePath: doc.StoragePath,
			Content:     doc.Content,
		},
		savedSum: checksum.String(doc.Content),
	}
	if doc.Kind == models.TabChapter {
		meta := models.ChapterMeta{Title: doc.Name}
		if doc.Chapter != nil {
			meta = doc.Chapter.Clone()
		}
		t.tab.Chapter = &meta
		t.tab.Nodes = nodes.FromProse(doc.Content)
		t.tab.Cursor = nodes.Cursor(len(t.tab.Nodes))
	}
	s.tabs = append(s.tabs, t)
	s.active = id
	snap := t.snapshot()
	s.mu.Unlock()

	s.logger.Debug("tab opened", slog.String("tab", id))
	s.emit(Event{Type: EventTabOpened, TabID: id, Kind: doc.Kind})
	return snap
}

// Tabs returns all open tabs in opening order.
func (s *Session) Tabs() []Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Tab, len(s.tabs))
	for i, t := range s.tabs {
		out[i] = t.snapshot()
	}
	return out
}

// Tab returns the tab with id.
func (s *Session) Tab(id string) (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, t := s.find(id); t != nil {
		return t.snapshot(), true
	}
	return Tab{}, false
}

// ActiveTab returns the active tab, if any.
func (s *Session) ActiveTab() (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t := s.activeTab(); t != nil {
		return t.snapshot(), true
	}
	return Tab{}, false
}

// Activate makes tab id the active one.
func (s *Session) Activate(id string) error {
	_, err := s.ActivateTab(id)
	return err
}

// ActivateTab makes tab id the active one and returns its state at that
// moment.
func (s *Session) ActivateTab(id string) (Tab, error) {
	s.mu.Lock()
	_, t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return Tab{}, fmt.Errorf("tab %s: %w", id, apperr.ErrNotFound)
	}
	s.active = id
	snap := t.snapshot()
	s.mu.Unlock()
	s.emit(Event{Type: EventTabActivated, TabID: id, Kind: snap.Kind})
	return snap, nil
}

// CloseTab discards a tab whether or not it has unsaved changes. When the
// active tab closes, the first remaining tab becomes active.
func (s *Session) CloseTab(id string) error {
	s.mu.Lock()
	i, t := s.find(id)
	if t == nil {
		s.mu.Unlock()
		return fmt.Errorf("tab %s: %w", id, apperr.ErrNotFound)
	}
	s.tabs = slices.Delete(s.tabs, i, i+1)
	events := []Event{{Type: EventTabClosed, TabID: id, Kind: t.tab.Kind}}
	if s.active == id {
		s.active = ""
		if len(s.tabs) > 0 {
			s.active = s.tabs[0].tab.ID
			events = append(events, Event{Type: EventTabActivated, TabID: s.active, Kind: s.tabs[0].tab.Kind})
		}
	}
	s.mu.Unlock()

	if t.tab.Modified {
		s.logger.Info("closed tab with unsaved changes", slog.String("tab", id))
	}
	s.emit(events...)
	return nil
}

// UpdateContent replaces the active tab's text. For chapters the node
// sequence is reconciled with the new prose: unchanged nodes keep their ids
// and references survive while their names are still in the text.
func (s *Session) UpdateContent(content string) error {
	s.mu.Lock()
	t := s.activeTab()
	if t == nil {
		s.mu.Unlock()
		return apperr.ErrNoActiveTab
	}
	t.tab.Content = content
	if t.tab.Selection != nil {
		sel := t.tab.Selection.normalize(content)
		t.tab.Selection = &sel
	}
	if t.tab.Kind == models.TabChapter {
		r := s.resolver()
		t.tab.Nodes = nodes.Reconcile(t.tab.Nodes, r, content)
		if t.tab.Selection != nil {
			t.tab.Cursor = cursorAt(t.tab.Nodes, r, t.tab.Selection.Start)
		} else {
			t.tab.Cursor = t.tab.Cursor.Clamp(len(t.tab.Nodes))
		}
	}
	t.refreshModified()
	e := Event{Type: EventTabChanged, TabID: t.tab.ID, Kind: t.tab.Kind}
	s.mu.Unlock()
	s.emit(e)
	return nil
}

// SetChapterMeta replaces the structured metadata of the active chapter.
func (s *Session) SetChapterMeta(meta models.ChapterMeta) error {
	s.mu.Lock()
	t := s.activeTab()
	if t == nil {
		s.mu.Unlock()
		return apperr.ErrNoActiveTab
	}
	if t.tab.Kind != models.TabChapter {
		s.mu.Unlock()
		return fmt.Errorf("tab %s is not a chapter: %w", t.tab.ID, apperr.ErrConflict)
	}
	meta = meta.Clone()
	t.tab.Chapter = &meta
	t.metaRev++
	t.refreshModified()
	e := Event{Type: EventTabChanged, TabID: t.tab.ID, Kind: t.tab.Kind}
	s.mu.Unlock()
	s.emit(e)
	return nil
}

// SetSelection records the caret or selected range of the active tab. For
// chapters the node cursor follows the start of the range.
func (s *Session) SetSelection(sel Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.activeTab()
	if t == nil {
		return apperr.ErrNoActiveTab
	}
	sel = sel.normalize(t.tab.Content)
	t.tab.Selection = &sel
	if t.tab.Kind == models.TabChapter {
		t.tab.Cursor = cursorAt(t.tab.Nodes, s.resolver(), sel.Start)
	}
	return nil
}

// SetCursor moves the node cursor of the active chapter. Out-of-range
// values are clamped.
func (s *Session) SetCursor(c nodes.Cursor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.activeTab()
	if t == nil {
		return apperr.ErrNoActiveTab
	}
	t.tab.Cursor = c.Clamp(len(t.tab.Nodes))
	caret := len(nodes.Render(t.tab.Nodes[:t.tab.Cursor], s.resolver()))
	t.tab.Selection = &Selection{Start: caret, End: caret}
	return nil
}

// RenderReferences re-renders every open chapter from its nodes so that
// renamed or removed entities show up in the tab text. Tabs whose text
// changed are reported as changed.
func (s *Session) RenderReferences() {
	s.mu.Lock()
	r := s.resolver()
	var events []Event
	for _, t := range s.tabs {
		if t.tab.Kind != models.TabChapter {
			continue
		}
		content := nodes.Render(t.tab.Nodes, r)
		if content == t.tab.Content {
			continue
		}
		t.tab.Content = content
		caret := len(nodes.Render(t.tab.Nodes[:t.tab.Cursor.Clamp(len(t.tab.Nodes))], r))
		t.tab.Selection = &Selection{Start: caret, End: caret}
		t.refreshModified()
		events = append(events, Event{Type: EventTabChanged, TabID: t.tab.ID, Kind: t.tab.Kind})
	}
	s.mu.Unlock()
	s.emit(events...)
}

// cursorAt returns the first node gap whose rendered prefix reaches offset.
func cursorAt(seq nodes.Sequence, r nodes.NameResolver, offset int) nodes.Cursor {
	n := 0
	for i, node := range seq {
		if n >= offset {
			return nodes.Cursor(i)
		}
		n += len(nodes.Render(nodes.Sequence{node}, r))
	}
	return nodes.Cursor(len(seq))
}
