// Package memory provides map-backed repositories used by tests and by
// hosts that do not need durable opt-out history.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/goliatone/go-optout/pkg/interfaces/store"
	"github.com/google/uuid"
)

// AttemptRepository keeps opt-out history in memory.
type AttemptRepository struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.OptOutAttempt
}

var _ store.AttemptRepository = (*AttemptRepository)(nil)

// NewAttemptRepository returns an empty in-memory repository.
func NewAttemptRepository() *AttemptRepository {
	return &AttemptRepository{
		records: make(map[uuid.UUID]domain.OptOutAttempt),
	}
}

func (r *AttemptRepository) Create(ctx context.Context, record *domain.OptOutAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record.EnsureID()
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	r.records[record.ID] = *record
	return nil
}

func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OptOutAttempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	record, ok := r.records[id]
	if !ok || !record.DeletedAt.IsZero() {
		return nil, store.ErrNotFound
	}
	copy := record
	return &copy, nil
}

func (r *AttemptRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.OptOutAttempt], error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var filtered []domain.OptOutAttempt
	for _, record := range r.records {
		if !opts.IncludeSoftDeleted && !record.DeletedAt.IsZero() {
			continue
		}
		if !opts.Since.IsZero() && record.CreatedAt.Before(opts.Since) {
			continue
		}
		if !opts.Until.IsZero() && record.CreatedAt.After(opts.Until) {
			continue
		}
		filtered = append(filtered, record)
	}

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].CreatedAt.Before(filtered[j].CreatedAt)
	})

	total := len(filtered)
	start := opts.Offset
	if start > total {
		start = total
	}
	end := total
	if opts.Limit > 0 && start+opts.Limit < end {
		end = start + opts.Limit
	}

	return store.ListResult[domain.OptOutAttempt]{
		Items: filtered[start:end],
		Total: total,
	}, nil
}

func (r *AttemptRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.OptOutAttempt, error) {
	result, err := r.List(ctx, store.ListOptions{})
	if err != nil {
		return nil, err
	}
	var matched []domain.OptOutAttempt
	for _, record := range result.Items {
		if record.MessageID == messageID {
			matched = append(matched, record)
		}
	}
	return matched, nil
}

func (r *AttemptRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[domain.Status]int)
	for _, record := range r.records {
		if !record.DeletedAt.IsZero() {
			continue
		}
		counts[record.Status]++
	}
	return counts, nil
}

func (r *AttemptRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[id]
	if !ok {
		return store.ErrNotFound
	}
	record.DeletedAt = time.Now().UTC()
	r.records[id] = record
	return nil
}
