package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tbaxter/workshift/internal/domain"
)

// querier is the subset of pgx satisfied by both pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// shiftRepository implements ShiftRepository over postgres.
type shiftRepository struct {
	q querier
}

// NewShiftRepository creates a shift repository backed by pgxpool.
func NewShiftRepository(pool *pgxpool.Pool) ShiftRepository {
	return &shiftRepository{q: pool}
}

// WithTx rebinds the repository to an open transaction.
func (r *shiftRepository) WithTx(tx pgx.Tx) ShiftRepository {
	return &shiftRepository{q: tx}
}

// Get retrieves the shift on a date, or domain.ErrShiftNotFound.
func (r *shiftRepository) Get(ctx context.Context, date string) (domain.Shift, error) {
	var shift domain.Shift
	err := r.q.QueryRow(
		ctx,
		`SELECT date, shift_type, start_time, end_time FROM shifts WHERE date = $1`,
		date,
	).Scan(&shift.Date, &shift.Type, &shift.Start, &shift.End)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Shift{}, domain.ErrShiftNotFound
		}
		return domain.Shift{}, fmt.Errorf("failed to get shift: %w", err)
	}
	return shift, nil
}

// Upsert inserts or overwrites the shift row for its date.
func (r *shiftRepository) Upsert(ctx context.Context, shift domain.Shift) (domain.Shift, error) {
	var saved domain.Shift
	err := r.q.QueryRow(
		ctx,
		`INSERT INTO shifts (date, shift_type, start_time, end_time)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (date) DO UPDATE
		 SET shift_type = EXCLUDED.shift_type,
		     start_time = EXCLUDED.start_time,
		     end_time   = EXCLUDED.end_time
		 RETURNING date, shift_type, start_time, end_time`,
		shift.Date, shift.Type, shift.Start, shift.End,
	).Scan(&saved.Date, &saved.Type, &saved.Start, &saved.End)
	if err != nil {
		return domain.Shift{}, fmt.Errorf("failed to upsert shift: %w", err)
	}
	return saved, nil
}

// Delete removes the shift row for a date. Returns true iff a row existed.
func (r *shiftRepository) Delete(ctx context.Context, date string) (bool, error) {
	tag, err := r.q.Exec(ctx, `DELETE FROM shifts WHERE date = $1`, date)
	if err != nil {
		return false, fmt.Errorf("failed to delete shift: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// ListRange returns shifts between two dates inclusive, ascending by date.
func (r *shiftRepository) ListRange(ctx context.Context, from, to string) ([]domain.Shift, error) {
	rows, err := r.q.Query(
		ctx,
		`SELECT date, shift_type, start_time, end_time
		 FROM shifts
		 WHERE date >= $1 AND date <= $2
		 ORDER BY date`,
		from, to,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list shifts: %w", err)
	}
	defer rows.Close()

	shifts := []domain.Shift{}
	for rows.Next() {
		var shift domain.Shift
		if scanErr := rows.Scan(&shift.Date, &shift.Type, &shift.Start, &shift.End); scanErr != nil {
			return nil, fmt.Errorf("failed to scan shift: %w", scanErr)
		}
		shifts = append(shifts, shift)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, fmt.Errorf("failed to iterate shifts: %w", rowsErr)
	}

	return shifts, nil
}
