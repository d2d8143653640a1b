// Package storage wires the attempt-history repositories for hosts: an
// in-memory provider for tests and ephemeral use, and a bun/sqlite provider
// for durable history.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	bunrepo "github.com/goliatone/go-optout/internal/storage/bun"
	"github.com/goliatone/go-optout/internal/storage/memory"
	"github.com/goliatone/go-optout/pkg/domain"
	"github.com/goliatone/go-optout/pkg/interfaces/store"
)

// Providers exposes the repositories needed by services.
type Providers struct {
	Attempts store.AttemptRepository
}

// NewMemoryProviders returns repositories backed by in-memory maps.
func NewMemoryProviders() Providers {
	return Providers{
		Attempts: memory.NewAttemptRepository(),
	}
}

// NewBunProviders wires bun-backed repositories. The caller owns the *bun.DB
// lifecycle (potentially via go-persistence-bun).
func NewBunProviders(db *bun.DB) Providers {
	if db == nil {
		panic("storage: bun DB is required")
	}

	// Register models so go-persistence-bun migrations can pick them up.
	persistence.RegisterModel(
		(*domain.OptOutAttempt)(nil),
	)

	return Providers{
		Attempts: bunrepo.NewAttemptRepository(db),
	}
}

// OpenSQLite opens a sqlite-backed bun.DB using the pure-Go shim driver.
func OpenSQLite(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// EnsureSchema creates the history table when it does not exist yet.
func EnsureSchema(ctx context.Context, db *bun.DB) error {
	_, err := db.NewCreateTable().
		Model((*domain.OptOutAttempt)(nil)).
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("storage: create schema: %w", err)
	}
	return nil
}
