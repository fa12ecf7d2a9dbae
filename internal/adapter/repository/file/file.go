// Package file implements a key-value slot backed by one file per key.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/vadimbarashkov/shortlinks/internal/entity"
)

// ErrInvalidKey is returned for keys that cannot be used as a file name.
var ErrInvalidKey = errors.New("invalid slot key")

// Slot stores each key in <dir>/<key>.json. Writes go to a temporary file that
// is renamed over the target, so readers never observe a partial value.
type Slot struct {
	dir string
}

// NewSlot creates dir when missing and returns a Slot rooted at it.
func NewSlot(dir string) (*Slot, error) {
	const op = "adapter.repository.file.NewSlot"

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: failed to create slot directory: %w", op, err)
	}

	return &Slot{dir: dir}, nil
}

func (s *Slot) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.dir, key+".json"), nil
}

func (s *Slot) Get(_ context.Context, key string) ([]byte, error) {
	const op = "adapter.repository.file.Slot.Get"

	p, err := s.path(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrSlotEmpty)
		}

		return nil, fmt.Errorf("%s: failed to read slot file: %w", op, err)
	}

	return data, nil
}

func (s *Slot) Set(_ context.Context, key string, value []byte) error {
	const op = "adapter.repository.file.Slot.Set"

	p, err := s.path(key)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: failed to create temp file: %w", op, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: failed to write temp file: %w", op, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: failed to sync temp file: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: failed to close temp file: %w", op, err)
	}

	if err := os.Rename(tmp.Name(), p); err != nil {
		return fmt.Errorf("%s: failed to replace slot file: %w", op, err)
	}

	return nil
}
