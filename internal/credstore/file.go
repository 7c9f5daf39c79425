package credstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/BuzzLyutic/taskdesk/internal/model"
)

// FileStore persists tokens in a YAML file so that they survive between
// process runs. Every call goes to disk; nothing is cached.
type FileStore struct {
	path string
	mu   sync.Mutex
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (f *FileStore) Get(_ context.Context, kind Kind) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens, err := f.read()
	if err != nil {
		return "", err
	}
	return tokens[kind], nil
}

func (f *FileStore) Set(_ context.Context, kind Kind, value string) error {
	return f.update(func(tokens map[Kind]string) {
		tokens[kind] = value
	})
}

func (f *FileStore) SetPair(_ context.Context, pair model.TokenPair) error {
	return f.update(func(tokens map[Kind]string) {
		tokens[Access] = pair.Access
		tokens[Refresh] = pair.Refresh
	})
}

func (f *FileStore) Clear(_ context.Context, kind Kind) error {
	return f.update(func(tokens map[Kind]string) {
		delete(tokens, kind)
	})
}

func (f *FileStore) ClearAll(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (f *FileStore) update(fn func(map[Kind]string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tokens, err := f.read()
	if err != nil {
		return err
	}
	fn(tokens)
	return f.write(tokens)
}

func (f *FileStore) read() (map[Kind]string, error) {
	tokens := make(map[Kind]string, 2)
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return tokens, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &tokens); err != nil {
		return nil, fmt.Errorf("decode session file: %w", err)
	}
	return tokens, nil
}

// write replaces the file via rename so readers never see half a pair.
func (f *FileStore) write(tokens map[Kind]string) error {
	raw, err := yaml.Marshal(tokens)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*")
	if err != nil {
		return fmt.Errorf("create temp session file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("write session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
