package entity

import (
	"encoding/json"
	"fmt"

	"github.com/starford/quillmark/internal/models"
)

type characterFile struct {
	Characters []models.Character `json:"characters"`
}

type locationFile struct {
	Locations []models.Location `json:"locations"`
}

// DecodeCharacters parses a `{"characters": [...]}` catalog file.
func DecodeCharacters(data []byte) ([]models.Character, error) {
	var f characterFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("entity: decode characters: %w", err)
	}
	return f.Characters, nil
}

// EncodeCharacters writes a `{"characters": [...]}` catalog file.
func EncodeCharacters(chars []models.Character) ([]byte, error) {
	if chars == nil {
		chars = []models.Character{}
	}
	return json.MarshalIndent(characterFile{Characters: chars}, "", "  ")
}

// DecodeLocations parses a `{"locations": [...]}` catalog file.
func DecodeLocations(data []byte) ([]models.Location, error) {
	var f locationFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("entity: decode locations: %w", err)
	}
	return f.Locations, nil
}

// EncodeLocations writes a `{"locations": [...]}` catalog file.
func EncodeLocations(locs []models.Location) ([]byte, error) {
	if locs == nil {
		locs = []models.Location{}
	}
	return json.MarshalIndent(locationFile{Locations: locs}, "", "  ")
}
