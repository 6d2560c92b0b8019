// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/amirphl/crud-project/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id int64) (*T, error)
	ByFilter(ctx context.Context, filter F) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// SequenceCounterRepository hands out strictly increasing values per counter name.
// Implementations must perform the increment as a single atomic server-side step.
type SequenceCounterRepository interface {
	// Next creates the counter at 0 if absent, increments it and returns the new value.
	Next(ctx context.Context, name string) (int64, error)
	// Current returns the last issued value, 0 when the counter does not exist.
	Current(ctx context.Context, name string) (int64, error)
}

// DemoRepository defines operations for demos
type DemoRepository interface {
	Repository[models.Demo, models.DemoFilter]
	// Update applies fields according to mode. Returns nil, nil when id does not exist.
	Update(ctx context.Context, id int64, fields models.DemoFields, mode models.UpdateMode) (*models.Demo, error)
	// Delete removes and returns the demo. Returns nil, nil when id does not exist.
	Delete(ctx context.Context, id int64) (*models.Demo, error)
	// DeleteByIDs removes every demo whose id is in ids and returns how many were removed.
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
}
