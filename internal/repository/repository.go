package repository

import (
	"context"

	"checksmtp/internal/domain"
)

// RunStore defines the interface for run history access
type RunStore interface {
	// SaveRun stores a finished run; saving the same run twice replaces it
	SaveRun(ctx context.Context, run *domain.RunResult) error

	// GetRun returns a stored run, or nil if the ID is unknown
	GetRun(ctx context.Context, id string) (*domain.RunRecord, error)

	// RecentRuns returns up to limit runs, newest first
	RecentRuns(ctx context.Context, limit int) ([]domain.RunRecord, error)

	// CountRuns returns the number of stored runs
	CountRuns(ctx context.Context) (int, error)

	// Close releases resources
	Close() error
}
