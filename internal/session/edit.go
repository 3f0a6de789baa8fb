package session

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/starford/quillmark/internal/apperr"
	"github.com/starford/quillmark/internal/checksum"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/nodes"
)

// InsertCharacterRef inserts a character reference at the cursor of the
// active chapter and lists the character in the chapter metadata.
func (s *Session) InsertCharacterRef(characterID string, ctx models.RefContext) error {
	return s.insertNode(nodes.NewCharacterRef(characterID, ctx))
}

// InsertLocationRef inserts a location reference at the cursor of the
// active chapter. A chapter without a location adopts it.
func (s *Session) InsertLocationRef(locationID string) error {
	return s.insertNode(nodes.NewLocationRef(locationID))
}

// InsertText inserts a text node at the cursor of the active chapter.
func (s *Session) InsertText(text string) error {
	return s.insertNode(nodes.NewText(text))
}

func (s *Session) insertNode(n nodes.Node) error {
	s.mu.Lock()
	t := s.activeTab()
	if t == nil {
		s.mu.Unlock()
		return apperr.ErrNoActiveTab
	}
	if t.tab.Kind != models.TabChapter {
		s.mu.Unlock()
		return fmt.Errorf("tab %s does not hold nodes: %w", t.tab.ID, apperr.ErrConflict)
	}

	r := s.resolver()
	idx := int(t.tab.Cursor.Clamp(len(t.tab.Nodes)))
	t.tab.Nodes = nodes.InsertAt(t.tab.Nodes, idx, n)
	t.tab.Cursor = nodes.Cursor(idx).AfterInsert(idx)
	t.tab.Content = nodes.Render(t.tab.Nodes, r)
	caret := len(nodes.Render(t.tab.Nodes[:t.tab.Cursor], r))
	t.tab.Selection = &Selection{Start: caret, End: caret}

	if syncReferences(t.tab.Chapter, t.tab.Nodes) {
		t.metaRev++
	}
	t.refreshModified()
	e := Event{Type: EventTabChanged, TabID: t.tab.ID, Kind: t.tab.Kind}
	s.mu.Unlock()
	s.emit(e)
	return nil
}

// InsertDialogue inserts a dialogue line for speaker at the active tab's
// caret. Without a known caret the line is appended as a new paragraph. The
// nodes around the insertion keep their ids and references.
func (s *Session) InsertDialogue(speaker, text string) error {
	s.mu.Lock()
	t := s.activeTab()
	if t == nil {
		s.mu.Unlock()
		return apperr.ErrNoActiveTab
	}
	content, caret := InsertDialogue(t.tab.Content, t.tab.Selection, speaker, text)
	t.tab.Content = content
	t.tab.Selection = &Selection{Start: caret, End: caret}
	if t.tab.Kind == models.TabChapter {
		r := s.resolver()
		t.tab.Nodes = nodes.Reconcile(t.tab.Nodes, r, content)
		t.tab.Cursor = cursorAt(t.tab.Nodes, r, caret)
	}
	t.refreshModified()
	e := Event{Type: EventTabChanged, TabID: t.tab.ID, Kind: t.tab.Kind}
	s.mu.Unlock()
	s.emit(e)
	return nil
}

// SaveCurrentFile persists the active tab. Only one save per tab may be in
// flight; a second call fails with apperr.ErrSaveInProgress. A failed
// write leaves the tab modified.
func (s *Session) SaveCurrentFile() error {
	s.mu.Lock()
	t := s.activeTab()
	if t == nil {
		s.mu.Unlock()
		return apperr.ErrNoActiveTab
	}
	if t.saving {
		s.mu.Unlock()
		return fmt.Errorf("tab %s: %w", t.tab.ID, apperr.ErrSaveInProgress)
	}
	t.saving = true
	snap := t.snapshot()
	rev := t.metaRev
	s.mu.Unlock()

	err := s.persist.SaveDocument(models.Document{
		ID:          snap.DocumentID,
		Name:        snap.Name,
		Kind:        snap.Kind,
		StoragePath: snap.StoragePath,
		Content:     snap.Content,
		Chapter:     snap.Chapter,
	})

	s.mu.Lock()
	t.saving = false
	if err != nil {
		t.refreshModified()
		s.mu.Unlock()
		s.logger.Error("save failed", slog.String("tab", snap.ID), slog.String("error", err.Error()))
		return fmt.Errorf("session: save %s: %w", snap.StoragePath, err)
	}
	t.savedSum = checksum.String(snap.Content)
	t.savedRev = rev
	t.refreshModified()
	s.mu.Unlock()

	s.logger.Info("saved", slog.String("tab", snap.ID), slog.String("path", snap.StoragePath))
	s.emit(Event{Type: EventTabSaved, TabID: snap.ID, Kind: snap.Kind})
	return nil
}

// syncReferences adds every character referenced by seq to meta and fills an
// empty location from the first location reference. It reports a change.
func syncReferences(meta *models.ChapterMeta, seq nodes.Sequence) bool {
	chars, locs := seq.References()
	changed := false
	for _, id := range chars {
		if !slices.Contains(meta.CharacterIDs, id) {
			meta.CharacterIDs = append(slices.Clone(meta.CharacterIDs), id)
			changed = true
		}
	}
	if meta.Location == "" && len(locs) > 0 {
		meta.Location = locs[0]
		changed = true
	}
	return changed
}
