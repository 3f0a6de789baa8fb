package storage

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/starford/quillmark/internal/checksum"
	"github.com/starford/quillmark/internal/models"
)

// tempPrefix marks in-flight writes; listings skip these files.
const tempPrefix = ".quillmark-tmp-"

// FS implements Provider on a project directory. Every path is resolved
// through an os.Root, so ".." segments and symlinks cannot leave the
// project.
type FS struct {
	dir  string // absolute project directory
	root *os.Root
}

// NewFS opens the project directory at dir, which must already exist.
func NewFS(dir string) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("storage: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("storage: root is not a directory: %s", abs)
	}
	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, fmt.Errorf("storage: open root: %w", err)
	}
	return &FS{dir: abs, root: root}, nil
}

// Close releases the project directory handle.
func (f *FS) Close() error {
	return f.root.Close()
}

// Root returns the absolute project directory.
func (f *FS) Root() string {
	return f.dir
}

// slashPath validates a project-relative, slash-separated path. The empty
// path names the project directory itself.
func slashPath(p string) (string, error) {
	if p == "" {
		return ".", nil
	}
	if path.IsAbs(p) || filepath.IsAbs(p) {
		return "", fmt.Errorf("storage: absolute paths not allowed: %s", p)
	}
	clean := path.Clean(p)
	if !fs.ValidPath(clean) {
		return "", fmt.Errorf("storage: path escapes project root: %s", p)
	}
	return clean, nil
}

func osPath(p string) (string, error) {
	clean, err := slashPath(p)
	if err != nil {
		return "", err
	}
	return filepath.FromSlash(clean), nil
}

// List walks dir and returns metadata for every .md file beneath it. A
// missing dir yields an empty list.
func (f *FS) List(dir string) ([]models.FileMetadata, error) {
	base, err := slashPath(dir)
	if err != nil {
		return nil, err
	}
	fsys := f.root.FS()
	if _, err := fs.Stat(fsys, base); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	var out []models.FileMetadata
	err = fs.WalkDir(fsys, base, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".md") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		out = append(out, models.FileMetadata{
			Path:      p,
			Checksum:  checksum.Sum(data),
			UpdatedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("storage: list %s: %w", dir, err)
	}
	return out, nil
}

// Read returns the raw bytes of a project file.
func (f *FS) Read(p string) ([]byte, error) {
	name, err := osPath(p)
	if err != nil {
		return nil, err
	}
	data, err := f.root.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", p, err)
	}
	return data, nil
}

// Write replaces a project file atomically: the content goes to a temp file
// in the same directory, is synced, and is renamed over the target.
// Missing parent directories are created.
func (f *FS) Write(p string, content []byte) (err error) {
	name, err := osPath(p)
	if err != nil {
		return err
	}
	dir := filepath.Dir(name)
	if err := f.root.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for %s: %w", p, err)
	}

	tmp := filepath.Join(dir, tempPrefix+rand.Text())
	file, err := f.root.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("storage: create temp for %s: %w", p, err)
	}
	defer func() {
		if err != nil {
			_ = file.Close()
			_ = f.root.Remove(tmp)
		}
	}()

	if _, err = file.Write(content); err != nil {
		return fmt.Errorf("storage: write %s: %w", p, err)
	}
	if err = file.Sync(); err != nil {
		return fmt.Errorf("storage: sync %s: %w", p, err)
	}
	if err = file.Close(); err != nil {
		return fmt.Errorf("storage: close %s: %w", p, err)
	}
	if err = f.root.Rename(tmp, name); err != nil {
		return fmt.Errorf("storage: replace %s: %w", p, err)
	}
	return nil
}

// CreateDirectory creates dir with any missing parents.
func (f *FS) CreateDirectory(dir string) error {
	name, err := osPath(dir)
	if err != nil {
		return err
	}
	if err := f.root.MkdirAll(name, 0o755); err != nil {
		return fmt.Errorf("storage: mkdir %s: %w", dir, err)
	}
	return nil
}

// ReadDirectory lists the entry names directly inside dir.
func (f *FS) ReadDirectory(dir string) ([]string, error) {
	base, err := slashPath(dir)
	if err != nil {
		return nil, err
	}
	entries, err := fs.ReadDir(f.root.FS(), base)
	if err != nil {
		return nil, fmt.Errorf("storage: read dir %s: %w", dir, err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), tempPrefix) {
			continue
		}
		out = append(out, e.Name())
	}
	return out, nil
}

// Delete removes a project file.
func (f *FS) Delete(p string) error {
	name, err := osPath(p)
	if err != nil {
		return err
	}
	if err := f.root.Remove(name); err != nil {
		return fmt.Errorf("storage: delete %s: %w", p, err)
	}
	return nil
}

// Move renames a project file, creating the destination directory.
func (f *FS) Move(oldPath, newPath string) error {
	from, err := osPath(oldPath)
	if err != nil {
		return err
	}
	to, err := osPath(newPath)
	if err != nil {
		return err
	}
	if err := f.root.MkdirAll(filepath.Dir(to), 0o755); err != nil {
		return fmt.Errorf("storage: mkdir for %s: %w", newPath, err)
	}
	if err := f.root.Rename(from, to); err != nil {
		return fmt.Errorf("storage: move %s: %w", oldPath, err)
	}
	return nil
}
