package storage

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-memory Provider used by engine tests.
type Memory struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		files: make(map[string][]byte),
		dirs:  map[string]struct{}{".": {}},
	}
}

func clean(p string) (string, error) {
	c := path.Clean(strings.ReplaceAll(p, `\`, "/"))
	if strings.HasPrefix(c, "/") || c == ".." || strings.HasPrefix(c, "../") {
		return "", fmt.Errorf("storage: path escapes root: %s", p)
	}
	return c, nil
}

func (m *Memory) addParents(p string) {
	for d := path.Dir(p); ; d = path.Dir(d) {
		m.dirs[d] = struct{}{}
		if d == "." {
			return
		}
	}
}

// Read returns a copy of the stored bytes.
func (m *Memory) Read(p string) ([]byte, error) {
	c, err := clean(p)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[c]
	if !ok {
		return nil, fmt.Errorf("storage: read %s: %w", p, os.ErrNotExist)
	}
	return append([]byte(nil), data...), nil
}

// Write stores a copy of content.
func (m *Memory) Write(p string, content []byte) error {
	c, err := clean(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[c] = append([]byte(nil), content...)
	m.addParents(c)
	return nil
}

// Delete removes p.
func (m *Memory) Delete(p string) error {
	c, err := clean(p)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.files[c]; !ok {
		return fmt.Errorf("storage: delete %s: %w", p, os.ErrNotExist)
	}
	delete(m.files, c)
	return nil
}

// List returns file names directly under dir.
func (m *Memory) List(dir string) ([]string, error) {
	c, err := clean(dir)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.dirs[c]; !ok {
		return nil, fmt.Errorf("storage: list %s: %w", dir, os.ErrNotExist)
	}
	var out []string
	for p := range m.files {
		if path.Dir(p) == c {
			out = append(out, path.Base(p))
		}
	}
	sort.Strings(out)
	return out, nil
}

// EnsureDir records dir and its parents.
func (m *Memory) EnsureDir(dir string) error {
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

// Exists reports whether p is a stored file or known directory.
func (m *Memory) Exists(p string) (bool, error) {
	c, err := clean(p)
	if err != nil {
		return false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.files[c]; ok {
		return true, nil
	}
	_, ok := m.dirs[c]
	return ok, nil
}

// Move renames oldPath to newPath.
func (m *Memory) Move(oldPath, newPath string) error {
	from, err := clean(oldPath)
	if err != nil {
		return err
	}
	to, err := clean(newPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[from]
	if !ok {
		return fmt.Errorf("storage: move %s: %w", oldPath, os.ErrNotExist)
	}
	delete(m.files, from)
	m.files[to] = data
	m.addParents(to)
	return nil
}
