// internal/params/medium.go
package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Medium is the non-volatile backing for the parameter record.
// Read and Write always move a whole record.
type Medium interface {
	Read() ([]byte, error)
	Write(record []byte) error
}

// ---- file medium ----

// FileMedium keeps the record in a single file.
// Writes go to a temp file in the same directory and are renamed over the
// target, so a reader never observes a partial record.
type FileMedium struct {
	path string
}

func NewFileMedium(path string) (*FileMedium, error) {
	if path == "" {
		return nil, errors.New("params file: path required")
	}
	return &FileMedium{path: path}, nil
}

func (m *FileMedium) Read() ([]byte, error) {
	b, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("params file: read: %w", err)
	}
	return b, nil
}

func (m *FileMedium) Write(record []byte) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("params file: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(m.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("params file: create temp: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(record); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("params file: write: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("params file: sync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("params file: close: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("params file: rename: %w", err)
	}
	return nil
}

// ---- memory medium ----

// MemoryMedium holds the record in RAM. Used for dry runs and tests.
type MemoryMedium struct {
	mu     sync.Mutex
	record []byte
	writes int
}

func (m *MemoryMedium) Read() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.record == nil {
		return nil, errors.New("params memory: empty")
	}
	out := make([]byte, len(m.record))
	copy(out, m.record)
	return out, nil
}

func (m *MemoryMedium) Write(record []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.record = append(m.record[:0], record...)
	m.writes++
	return nil
}

// Writes returns the number of completed writes.
func (m *MemoryMedium) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
