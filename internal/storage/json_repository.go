package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 25 * time.Millisecond

// JSONFileRepository keeps the snapshot in a single indented JSON document.
// Writes go to a sibling temp file that is renamed over the target, under an
// advisory lock on <path>.lock.
type JSONFileRepository struct {
	path string
	flk  *flock.Flock
	now  func() time.Time
}

func NewJSONFileRepository(path string) (*JSONFileRepository, error) {
	if path == "" {
		return nil, errors.New("storage: empty data file path")
	}
	return &JSONFileRepository{
		path: path,
		flk:  flock.New(path + ".lock"),
		now:  time.Now,
	}, nil
}

func (r *JSONFileRepository) Path() string {
	return r.path
}

func (r *JSONFileRepository) Load(ctx context.Context) (*Snapshot, error) {
	raw, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, _, err := Decode(raw, r.now().UTC())
	if err != nil {
		return nil, err
	}
	return snap, nil
}

func (r *JSONFileRepository) Save(ctx context.Context, snap Snapshot) error {
	payload, err := Encode(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	dir := filepath.Dir(r.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	locked, err := r.flk.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("lock data file: %w", err)
	}
	if !locked {
		return fmt.Errorf("lock data file: %s is held by another process", r.flk.Path())
	}
	defer func() { _ = r.flk.Unlock() }()

	tmp, err := os.CreateTemp(dir, filepath.Base(r.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace data file: %w", err)
	}
	return nil
}

func (r *JSONFileRepository) Close() error {
	return r.flk.Close()
}
