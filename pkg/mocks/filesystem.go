package mocks

import (
	"fmt"
	"sort"
	"sync"

	"github.com/user/asciivideo/pkg/ports"
)

// FileSystem is an in-memory ports.FileSystem that remembers every artifact
// written during a run.
type FileSystem struct {
	mu    sync.Mutex
	files map[string][]byte
	dirs  map[string]bool

	// WriteFileFunc, when set, replaces the in-memory write.
	WriteFileFunc func(path string, data []byte) error
}

// NewFileSystem creates an empty FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
	}
}

func (m *FileSystem) ReadFile(path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	if !ok {
		return nil, fmt.Errorf("mock fs: %s not written", path)
	}
	return data, nil
}

func (m *FileSystem) WriteFile(path string, data []byte) error {
	if m.WriteFileFunc != nil {
		return m.WriteFileFunc(path, data)
	}
	m.mu.Lock()
	m.files[path] = append([]byte(nil), data...)
	m.mu.Unlock()
	return nil
}

func (m *FileSystem) MkdirAll(path string) error {
	m.mu.Lock()
	m.dirs[path] = true
	m.mu.Unlock()
	return nil
}

// GetFile returns what was written to path.
func (m *FileSystem) GetFile(path string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[path]
	return data, ok
}

// HasDir reports whether MkdirAll was called for path.
func (m *FileSystem) HasDir(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirs[path]
}

// Paths lists every written file in sorted order.
func (m *FileSystem) Paths() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	paths := make([]string, 0, len(m.files))
	for p := range m.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

var _ ports.FileSystem = (*FileSystem)(nil)
