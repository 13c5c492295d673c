package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tbaxter/workshift/internal/domain"
)

// historyRepository implements HistoryRepository over postgres.
type historyRepository struct {
	q querier
}

// NewHistoryRepository creates a change log repository backed by pgxpool.
func NewHistoryRepository(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepository{q: pool}
}

// WithTx rebinds the repository to an open transaction.
func (r *historyRepository) WithTx(tx pgx.Tx) HistoryRepository {
	return &historyRepository{q: tx}
}

// Append inserts a change log entry and returns its serial id. The entry is
// visible to MostRecent and List as soon as the enclosing transaction
// commits.
func (r *historyRepository) Append(ctx context.Context, entry domain.HistoryEntry) (int64, error) {
	var id int64
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO history (created_at, date, change, description)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		entry.Timestamp, entry.Date, entry.Change, entry.Description,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to append history entry: %w", err)
	}
	return id, nil
}

// MostRecent returns the highest-id entry, or domain.ErrNoHistory when the
// log is empty.
func (r *historyRepository) MostRecent(ctx context.Context) (domain.HistoryEntry, error) {
	row := r.q.QueryRow(
		ctx,
		`SELECT id, created_at, date, change, description
		 FROM history
		 ORDER BY id DESC
		 LIMIT 1`,
	)

	entry, err := scanHistoryEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.HistoryEntry{}, domain.ErrNoHistory
		}
		return domain.HistoryEntry{}, fmt.Errorf("failed to get last history entry: %w", err)
	}
	return entry, nil
}

// Remove deletes a consumed entry by id. Returns true iff the entry existed.
func (r *historyRepository) Remove(ctx context.Context, id int64) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM history WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to remove history entry: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// List returns up to limit entries, newest first.
func (r *historyRepository) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.q.Query(
		ctx,
		`SELECT id, created_at, date, change, description
		 FROM history
		 ORDER BY id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	entries := []domain.HistoryEntry{}
	for rows.Next() {
		entry, scanErr := scanHistoryEntry(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", scanErr)
		}
		entries = append(entries, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate history: %w", rowsErr)
	}

	return entries, nil
}

func scanHistoryEntry(row pgx.Row) (domain.HistoryEntry, error) {
	var (
		entry       domain.HistoryEntry
		createdAt   pgtype.Timestamptz
		description pgtype.Text
	)
	if err := row.Scan(&entry.ID, &createdAt, &entry.Date, &entry.Change, &description); err != nil {
		return domain.HistoryEntry{}, err
	}

	if createdAt.Valid {
		entry.Timestamp = createdAt.Time
	}
	if description.Valid {
		entry.Description = description.String
	}

	snapshot, err := domain.DecodeSnapshot(entry.Change)
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("corrupt change record for entry %d: %w", entry.ID, err)
	}
	entry.Snapshot = snapshot

	return entry, nil
}
