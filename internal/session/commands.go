package session

import (
	"errors"
	"log/slog"

	"github.com/starford/quillmark/internal/apperr"
	"github.com/starford/quillmark/internal/models"
	"github.com/starford/quillmark/internal/nodes"
)

// Command is an editing request queued for the active tab.
type Command interface {
	apply(s *Session) error
	name() string
}

// InsertDialogueCommand inserts a dialogue line spoken by a character.
type InsertDialogueCommand struct {
	CharacterID string `json:"characterId"`
	Text        string `json:"text"`
}

func (c InsertDialogueCommand) name() string { return "insert-dialogue" }

func (c InsertDialogueCommand) apply(s *Session) error {
	speaker := nodes.UnknownCharacter
	if r := s.resolver(); r != nil {
		if n, ok := r.CharacterName(c.CharacterID, models.ContextDialogue); ok {
			speaker = n
		}
	}
	return s.InsertDialogue(speaker, c.Text)
}

// InsertCharacterRefCommand inserts a character reference.
type InsertCharacterRefCommand struct {
	CharacterID string            `json:"characterId"`
	Context     models.RefContext `json:"context"`
}

func (c InsertCharacterRefCommand) name() string { return "insert-character-reference" }

func (c InsertCharacterRefCommand) apply(s *Session) error {
	return s.InsertCharacterRef(c.CharacterID, c.Context)
}

// InsertLocationRefCommand inserts a location reference.
type InsertLocationRefCommand struct {
	LocationID string `json:"locationId"`
}

func (c InsertLocationRefCommand) name() string { return "insert-location-reference" }

func (c InsertLocationRefCommand) apply(s *Session) error {
	return s.InsertLocationRef(c.LocationID)
}

// Enqueue appends commands to the queue. Nothing runs until Drain.
func (s *Session) Enqueue(cmds ...Command) {
	s.mu.Lock()
	s.queue = append(s.queue, cmds...)
	s.mu.Unlock()
}

// Drain runs queued commands in arrival order and returns how many were
// applied. Commands arriving with no active tab, or for a tab that cannot
// take them, are dropped.
func (s *Session) Drain() int {
	s.mu.Lock()
	queue := s.queue
	s.queue = nil
	s.mu.Unlock()

	applied := 0
	for _, c := range queue {
		err := c.apply(s)
		switch {
		case err == nil:
			applied++
		case errors.Is(err, apperr.ErrNoActiveTab):
			s.logger.Debug("command dropped: no active tab", slog.String("command", c.name()))
		default:
			s.logger.Warn("command failed", slog.String("command", c.name()), slog.String("error", err.Error()))
		}
	}
	return applied
}
