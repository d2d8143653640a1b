package store

import (
	"context"
	"errors"
	"time"

	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/google/uuid"
)

// ErrNotFound is returned when a record cannot be located.
var ErrNotFound = errors.New("store: not found")

// ListOptions capture pagination and filtering knobs common to repositories.
type ListOptions struct {
	Limit              int
	Offset             int
	Since              time.Time
	Until              time.Time
	IncludeSoftDeleted bool
}

// ListResult bundles records and totals.
type ListResult[T any] struct {
	Items []T
	Total int
}

// AttemptRepository persists opt-out attempt history. Implementations must
// never influence pipeline behavior; writes are best-effort from the
// manager's point of view.
type AttemptRepository interface {
	Create(ctx context.Context, record *domain.OptOutAttempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.OptOutAttempt, error)
	List(ctx context.Context, opts ListOptions) (ListResult[domain.OptOutAttempt], error)
	ListByMessage(ctx context.Context, messageID string) ([]domain.OptOutAttempt, error)
	CountByStatus(ctx context.Context) (map[domain.Status]int, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
}

// NopAttemptRepository discards every write. Useful for hosts that keep
// their own history.
type NopAttemptRepository struct{}

var _ AttemptRepository = (*NopAttemptRepository)(nil)

func (n *NopAttemptRepository) Create(ctx context.Context, record *domain.OptOutAttempt) error {
	return nil
}

func (n *NopAttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OptOutAttempt, error) {
	return nil, ErrNotFound
}

func (n *NopAttemptRepository) List(ctx context.Context, opts ListOptions) (ListResult[domain.OptOutAttempt], error) {
	return ListResult[domain.OptOutAttempt]{}, nil
}

func (n *NopAttemptRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.OptOutAttempt, error) {
	return nil, nil
}

func (n *NopAttemptRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	return map[domain.Status]int{}, nil
}

func (n *NopAttemptRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return nil
}
