package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/director/internal/core/state"
)

const slotExt = ".yaml"

// FileStore writes each slot to <dir>/<slot>.yaml. Writes go to a temporary
// file that is renamed into place, so a crash never leaves a partial slot.
type FileStore struct {
	dir   string
	mu    sync.Mutex
	stats Statistics
}

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(slot string) string {
	return filepath.Join(s.dir, slot+slotExt)
}

func (s *FileStore) Save(ctx context.Context, slot string, snap state.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := state.ValidateSlot(slot); err != nil {
		return err
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode slot %s: %w", slot, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, slot+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", slot, err)
	}
	defer os.Remove(tmp.Name())

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write slot %s: %w", slot, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close slot %s: %w", slot, err)
	}
	if err = os.Rename(tmp.Name(), s.path(slot)); err != nil {
		return fmt.Errorf("rename slot %s: %w", slot, err)
	}
	s.stats.Writes++
	return nil
}

func (s *FileStore) Load(ctx context.Context, slot string) (state.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return state.Snapshot{}, err
	}
	if err := state.ValidateSlot(slot); err != nil {
		return state.Snapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return state.Snapshot{}, fmt.Errorf("%w: %s", state.ErrSlotNotFound, slot)
	}
	if err != nil {
		return state.Snapshot{}, fmt.Errorf("read slot %s: %w", slot, err)
	}

	var snap state.Snapshot
	if err = yaml.Unmarshal(data, &snap); err != nil {
		return state.Snapshot{}, fmt.Errorf("decode slot %s: %w", slot, err)
	}
	s.stats.Reads++
	return snap, nil
}

func (s *FileStore) Delete(ctx context.Context, slot string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := state.ValidateSlot(slot); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(slot))
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", state.ErrSlotNotFound, slot)
	}
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", slot, err)
	}
	s.stats.Deletes++
	return nil
}

func (s *FileStore) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.dir, err)
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, slotExt) {
			continue
		}
		out = append(out, strings.TrimSuffix(name, slotExt))
	}
	return out, nil
}

func (s *FileStore) Statistics() Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
