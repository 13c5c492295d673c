package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/tbaxter/workshift/internal/domain"
)

// ShiftRepository defines the interface for shift row operations.
// WithTx rebinds the repository to a transaction so callers can compose
// multiple operations into one atomic unit.
type ShiftRepository interface {
	WithTx(tx pgx.Tx) ShiftRepository
	Get(ctx context.Context, date string) (domain.Shift, error)
	Upsert(ctx context.Context, shift domain.Shift) (domain.Shift, error)
	Delete(ctx context.Context, date string) (bool, error)
	ListRange(ctx context.Context, from, to string) ([]domain.Shift, error)
}

// HistoryRepository defines the interface for the append-only change log.
type HistoryRepository interface {
	WithTx(tx pgx.Tx) HistoryRepository
	Append(ctx context.Context, entry domain.HistoryEntry) (int64, error)
	MostRecent(ctx context.Context) (domain.HistoryEntry, error)
	Remove(ctx context.Context, id int64) (bool, error)
	List(ctx context.Context, limit int) ([]domain.HistoryEntry, error)
}
