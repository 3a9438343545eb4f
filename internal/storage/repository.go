package storage

import (
	"context"
	"errors"
)

var (
	ErrNotFound        = errors.New("storage: not found")
	ErrCorruptSnapshot = errors.New("storage: corrupt snapshot")
	ErrWriterClosed    = errors.New("storage: writer closed")
)

// Repository persists the whole application state as one snapshot blob.
// Load returns (nil, nil) when nothing has been saved yet.
type Repository interface {
	Load(ctx context.Context) (*Snapshot, error)
	Save(ctx context.Context, snap Snapshot) error
	Close() error
}
