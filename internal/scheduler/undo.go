package scheduler

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/tbaxter/workshift/internal/domain"
)

// UndoResult reports what an undo restored.
type UndoResult struct {
	Message      string `json:"message"`
	RestoredDate string `json:"restored_date"`
}

// UndoLast reverts the most recent change log entry: the entry's embedded
// snapshot is written back over the affected date (or the row is deleted
// when the date had no shift before the change), then the consumed entry is
// removed so the next call walks one step further back. The whole reversal
// is one transaction. An empty log returns domain.ErrNoHistory.
//
// Undo order is strictly by entry id descending, regardless of which dates
// the entries touch. Consumed entries are gone for good; there is no redo.
func (s *Service) UndoLast(ctx context.Context) (UndoResult, error) {
	var result UndoResult
	err := s.db.WithTx(ctx, func(tx pgx.Tx) error {
		shifts := s.shifts.WithTx(tx)
		history := s.history.WithTx(tx)

		entry, err := history.MostRecent(ctx)
		if err != nil {
			return err
		}

		if entry.Snapshot != nil && entry.Snapshot.Type != "" {
			_, err = shifts.Upsert(ctx, domain.Shift{
				Date:  entry.Date,
				Type:  entry.Snapshot.Type,
				Start: entry.Snapshot.Start,
				End:   entry.Snapshot.End,
			})
			if err != nil {
				return err
			}
			result.Message = fmt.Sprintf("Undone → %s restored to %s", entry.Date, entry.Snapshot.Type)
		} else {
			if _, err := shifts.Delete(ctx, entry.Date); err != nil {
				return err
			}
			result.Message = fmt.Sprintf("Undone → %s cleared", entry.Date)
		}
		result.RestoredDate = entry.Date

		if _, err := history.Remove(ctx, entry.ID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return UndoResult{}, err
	}

	return result, nil
}
