// Package storage defines the project file-system abstraction.
package storage

import "github.com/starford/quillmark/internal/models"

// Provider is the interface for project file operations. Paths are relative
// to the project root and use forward slashes.
type Provider interface {
	// List returns metadata for every .md file under dir.
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path. Missing files yield an
	// error matching os.ErrNotExist.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// CreateDirectory creates dir and any missing parents.
	CreateDirectory(dir string) error
	// ReadDirectory returns the names of the entries directly inside dir,
	// sorted by name.
	ReadDirectory(dir string) ([]string, error)
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
}

// DirectorySelector picks a project directory. Canceled is true when the
// user dismissed the choice.
type DirectorySelector interface {
	SelectDirectory() (canceled bool, paths []string)
}

// StaticSelector always selects the configured path.
type StaticSelector string

// SelectDirectory implements DirectorySelector.
func (s StaticSelector) SelectDirectory() (bool, []string) {
	if s == "" {
		return true, nil
	}
	return false, []string{string(s)}
}
