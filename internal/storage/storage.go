// Package storage persists the most recent index snapshot so queries can be
// answered without re-indexing the project.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/modelindex/internal/models"
)

// ErrNotFound is returned when nothing has been stored for the requested key.
var ErrNotFound = errors.New("not found")

// Storage defines snapshot persistence operations.
type Storage interface {
	// SaveSnapshot replaces the stored snapshot with snap.
	SaveSnapshot(ctx context.Context, snap *models.Snapshot) error
	// LoadSnapshot returns the stored snapshot, or ErrNotFound.
	LoadSnapshot(ctx context.Context) (*models.Snapshot, error)

	// Stats of the stored snapshot, reported by the status endpoints.
	CountEntries(ctx context.Context) (int64, error)
	CountFailures(ctx context.Context) (int64, error)

	Close() error
}
