// Package repository stores classification results.
package repository

import (
	"context"

	"github.com/dzhang123/DynaCard/internal/domain/model"
)

// Store provides read/write access to classification results.
type Store interface {
	// Save inserts or replaces the result with the same id.
	Save(ctx context.Context, r model.Result) error

	// Get returns the result for id.
	// Returns ErrNotFound if the id is unknown.
	Get(ctx context.Context, id string) (model.Result, error)

	// ListByWell returns up to limit results for a well, most recently
	// classified first. A limit below 1 returns ErrInvalidLimit.
	ListByWell(ctx context.Context, wellID string, limit int) ([]model.Result, error)

	// Count returns the number of stored results.
	Count(ctx context.Context) (int, error)

	// Close releases the resources held by the store.
	Close() error
}
