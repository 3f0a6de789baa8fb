package models

import (
	"path"
	"strings"
)

// Project directory layout.
const (
	CharactersDir = "characters"
	ChaptersDir   = "chapters"
	IdeasDir      = "ideas"
	LocationsDir  = "locations"

	CharacterCatalogFile = CharactersDir + "/characters.json"
	LocationCatalogFile  = LocationsDir + "/locations.json"
)

// ProjectDirs lists the subdirectories every project has.
var ProjectDirs = []string{CharactersDir, ChaptersDir, IdeasDir, LocationsDir}

// DocumentID derives a document id from its path: the file name without
// extension.
func DocumentID(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}

// IsChapterPath reports whether p is a chapter file.
func IsChapterPath(p string) bool {
	return strings.HasPrefix(p, ChaptersDir+"/") && strings.HasSuffix(p, ".md")
}
