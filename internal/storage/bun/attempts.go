// Package bunrepo provides the durable attempt-history repository on top of
// go-repository-bun.
package bunrepo

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/goliatone/go-optout/pkg/interfaces/store"
)

// AttemptRepository persists opt-out attempts through bun.
type AttemptRepository struct {
	repo repository.Repository[*domain.OptOutAttempt]
	db   *bun.DB
}

var _ store.AttemptRepository = (*AttemptRepository)(nil)

// NewAttemptRepository wires the bun-backed repository.
func NewAttemptRepository(db *bun.DB) *AttemptRepository {
	handlers := repository.ModelHandlers[*domain.OptOutAttempt]{
		NewRecord:          func() *domain.OptOutAttempt { return &domain.OptOutAttempt{} },
		GetID:              func(a *domain.OptOutAttempt) uuid.UUID { return a.ID },
		SetID:              func(a *domain.OptOutAttempt, id uuid.UUID) { a.ID = id },
		GetIdentifier:      func() string { return "id" },
		GetIdentifierValue: func(a *domain.OptOutAttempt) string { return a.ID.String() },
	}
	return &AttemptRepository{
		repo: repository.MustNewRepository[*domain.OptOutAttempt](db, handlers),
		db:   db,
	}
}

func (r *AttemptRepository) Create(ctx context.Context, record *domain.OptOutAttempt) error {
	record.EnsureID()
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	_, err := r.repo.Create(ctx, record)
	return mapError(err)
}

func (r *AttemptRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.OptOutAttempt, error) {
	record, err := r.repo.Get(ctx, withID(id), withoutDeleted())
	if err != nil {
		return nil, mapError(err)
	}
	return record, nil
}

func (r *AttemptRepository) List(ctx context.Context, opts store.ListOptions) (store.ListResult[domain.OptOutAttempt], error) {
	records, total, err := r.repo.List(ctx, withListOptions(opts))
	if err != nil {
		return store.ListResult[domain.OptOutAttempt]{}, mapError(err)
	}
	items := make([]domain.OptOutAttempt, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return store.ListResult[domain.OptOutAttempt]{Items: items, Total: total}, nil
}

func (r *AttemptRepository) ListByMessage(ctx context.Context, messageID string) ([]domain.OptOutAttempt, error) {
	records, _, err := r.repo.List(ctx, withMessageID(messageID), withoutDeleted(), orderByCreated())
	if err != nil {
		return nil, mapError(err)
	}
	items := make([]domain.OptOutAttempt, len(records))
	for i, rec := range records {
		items[i] = *rec
	}
	return items, nil
}

func (r *AttemptRepository) CountByStatus(ctx context.Context) (map[domain.Status]int, error) {
	var rows []struct {
		Status domain.Status `bun:"status"`
		Count  int           `bun:"count"`
	}
	err := r.db.NewSelect().
		Model((*domain.OptOutAttempt)(nil)).
		ColumnExpr("status").
		ColumnExpr("count(*) AS count").
		Where("deleted_at IS NULL").
		Group("status").
		Scan(ctx, &rows)
	if err != nil {
		return nil, mapError(err)
	}
	counts := make(map[domain.Status]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *AttemptRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	record, err := r.repo.Get(ctx, withID(id))
	if err != nil {
		return mapError(err)
	}
	record.DeletedAt = time.Now().UTC()
	_, err = r.repo.Update(ctx, record)
	return mapError(err)
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) {
		return store.ErrNotFound
	}
	return err
}
