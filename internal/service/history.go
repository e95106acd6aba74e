package service

import (
	"context"
	"fmt"

	"checksmtp/internal/domain"
	"checksmtp/internal/repository"
)

// HistoryService provides read access to stored runs
type HistoryService struct {
	store repository.RunStore
}

// NewHistoryService creates a new history service
func NewHistoryService(store repository.RunStore) *HistoryService {
	return &HistoryService{store: store}
}

// Recent returns up to limit stored runs, newest first
func (s *HistoryService) Recent(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit < 0 {
		return nil, fmt.Errorf("invalid history limit %d", limit)
	}
	return s.store.RecentRuns(ctx, limit)
}

// Get returns one stored run
func (s *HistoryService) Get(ctx context.Context, id string) (*domain.RunRecord, error) {
	rec, err := s.store.GetRun(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("run %s not found", id)
	}
	return rec, nil
}
