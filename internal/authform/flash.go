package authform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"
)

// Flash is a form error that must outlive one reload of the page.
type Flash struct {
	Message string            `yaml:"message,omitempty"`
	Fields  map[string]string `yaml:"fields,omitempty"`
}

// FlashStore persists at most one Flash. Take returns it once and
// forgets it.
type FlashStore interface {
	Save(f Flash) error
	Take() (Flash, bool, error)
}

type FileFlash struct {
	path string
	mu   sync.Mutex
}

func NewFileFlash(path string) *FileFlash {
	return &FileFlash{path: path}
}

func (s *FileFlash) Save(f Flash) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := yaml.Marshal(f)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create flash dir: %w", err)
	}
	return os.WriteFile(s.path, raw, 0o600)
}

func (s *FileFlash) Take() (Flash, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var f Flash
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return f, false, nil
	}
	if err != nil {
		return f, false, fmt.Errorf("read flash: %w", err)
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return f, false, fmt.Errorf("clear flash: %w", err)
	}
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return Flash{}, false, fmt.Errorf("decode flash: %w", err)
	}
	return f, true, nil
}
