package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/quillmark/internal/checksum"
	"github.com/starford/quillmark/internal/models"
)

// ErrInjected is returned by Memory when a failure has been injected.
var ErrInjected = errors.New("storage: injected failure")

// Memory is an in-memory Provider for tests and ephemeral projects.
type Memory struct {
	mu    sync.Mutex
	files map[string]memFile
	dirs  map[string]struct{}

	// FailWrites makes Write and Delete return ErrInjected.
	FailWrites bool
	// WriteHook, when set, runs inside Write before the content is stored.
	WriteHook func(path string)
}

type memFile struct {
	data    []byte
	updated time.Time
}

// NewMemory returns an empty in-memory provider.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string]memFile),
		dirs:  map[string]struct{}{"": {}},
	}
}

func clean(p string) (string, error) {
	c := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	if strings.HasPrefix(p, "/") || strings.Contains(p, "..") {
		return "", fmt.Errorf("storage: path escapes project root: %s", p)
	}
	return strings.TrimPrefix(c, "/"), nil
}

func (m *Memory) addParents(p string) {
	for dir := path.Dir(p); dir != "." && dir != "/"; dir = path.Dir(dir) {
		m.dirs[dir] = struct{}{}
	}
}

// List returns metadata for every .md file under dir.
func (m *Memory) List(dir string) ([]models.FileMetadata, error) {
	d, err := clean(dir)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.FileMetadata
	for p, f := range m.files {
		if !strings.HasSuffix(p, ".md") {
			continue
		}
		if d != "" && !strings.HasPrefix(p, d+"/") {
			continue
		}
		out = append(out, models.FileMetadata{Path: p, Checksum: checksum.Sum(f.data), UpdatedAt: f.updated})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Read returns a copy of the stored bytes.
func (m *Memory) Read(p string) ([]byte, error) {
	c, err := clean(p)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[c]
	if !ok {
		return nil, fmt.Errorf("storage: read %s: %w", p, fs.ErrNotExist)
	}
	return append([]byte(nil), f.data...), nil
}

// Write stores a copy of content.
func (m *Memory) Write(p string, content []byte) error {
	c, err := clean(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	hook, fail := m.WriteHook, m.FailWrites
	m.mu.Unlock()
	if hook != nil {
		hook(c)
	}
	if fail {
		return fmt.Errorf("storage: write %s: %w", p, ErrInjected)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[c] = memFile{data: append([]byte(nil), content...), updated: time.Now()}
	m.addParents(c)
	return nil
}

// CreateDirectory records dir and its parents.
func (m *Memory) CreateDirectory(dir string) error {
	c, err := clean(dir)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs[c] = struct{}{}
	m.addParents(c)
	return nil
}

// ReadDirectory lists the direct children of dir.
func (m *Memory) ReadDirectory(dir string) ([]string, error) {
	d, err := clean(dir)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.dirs[d]; !ok {
		return nil, fmt.Errorf("storage: read dir %s: %w", dir, fs.ErrNotExist)
	}
	seen := map[string]struct{}{}
	collect := func(p string) {
		parent := path.Dir(p)
		if parent == "." {
			parent = ""
		}
		if parent == d {
			seen[path.Base(p)] = struct{}{}
		}
	}
	for p := range m.files {
		collect(p)
	}
	for p := range m.dirs {
		if p != "" {
			collect(p)
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// Delete removes a file.
func (m *Memory) Delete(p string) error {
	c, err := clean(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites {
		return fmt.Errorf("storage: delete %s: %w", p, ErrInjected)
	}
	if _, ok := m.files[c]; !ok {
		return fmt.Errorf("storage: delete %s: %w", p, fs.ErrNotExist)
	}
	delete(m.files, c)
	return nil
}

// Move renames a file.
func (m *Memory) Move(oldPath, newPath string) error {
	o, err := clean(oldPath)
	if err != nil {
		return err
	}
	n, err := clean(newPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[o]
	if !ok {
		return fmt.Errorf("storage: move %s: %w", oldPath, fs.ErrNotExist)
	}
	delete(m.files, o)
	m.files[n] = f
	m.addParents(n)
	return nil
}

// SetFailWrites toggles write failure injection.
func (m *Memory) SetFailWrites(fail bool) {
	m.mu.Lock()
	m.FailWrites = fail
	m.mu.Unlock()
}
