package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/telhawk-systems/runbridge/internal/models"
)

// InMemoryRepository keeps downstream runs in process memory.
type InMemoryRepository struct {
	runs map[string]*models.DownstreamRun
	mu   sync.RWMutex
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		runs: make(map[string]*models.DownstreamRun),
	}
}

func (r *InMemoryRepository) CreateRun(ctx context.Context, run *models.DownstreamRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if _, exists := r.runs[run.ID]; exists {
		return ErrRunExists
	}

	r.runs[run.ID] = copyRun(run)
	return nil
}

func (r *InMemoryRepository) GetRun(ctx context.Context, id string) (*models.DownstreamRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, exists := r.runs[id]
	if !exists {
		return nil, ErrRunNotFound
	}
	return copyRun(run), nil
}

func (r *InMemoryRepository) FindRuns(ctx context.Context, tags map[string]string, limit int) ([]*models.DownstreamRun, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matches := make([]*models.DownstreamRun, 0)
	for _, run := range r.runs {
		if hasTags(run.Tags, tags) {
			matches = append(matches, copyRun(run))
		}
	}

	sort.Slice(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID < matches[j].ID
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (r *InMemoryRepository) Close() error {
	return nil
}

func hasTags(have, want map[string]string) bool {
	for k, v := range want {
		if got, ok := have[k]; !ok || got != v {
			return false
		}
	}
	return true
}

func copyRun(run *models.DownstreamRun) *models.DownstreamRun {
	out := *run
	out.Tags = make(map[string]string, len(run.Tags))
	for k, v := range run.Tags {
		out.Tags[k] = v
	}
	return &out
}
