// Package scheduler implements the shift mutation service and the
// snapshot-based undo engine over the change log.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tbaxter/workshift/internal/catalog"
	"github.com/tbaxter/workshift/internal/domain"
	"github.com/tbaxter/workshift/internal/repository"
)

// nextShiftHorizonDays bounds the forward scan of the next-shift projection.
const nextShiftHorizonDays = 90

// TxRunner executes a function within one database transaction.
// db.Connection satisfies it.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(pgx.Tx) error) error
}

// Service orchestrates shift mutations. Every mutation runs its
// read-modify-append sequence inside a single transaction so the appended
// history entry's snapshot always matches the immediately-prior row state.
type Service struct {
	db      TxRunner
	shifts  repository.ShiftRepository
	history repository.HistoryRepository
	now     func() time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a new scheduler service.
func NewService(db TxRunner, shifts repository.ShiftRepository, history repository.HistoryRepository, opts ...Option) *Service {
	s := &Service{
		db:      db,
		shifts:  shifts,
		history: history,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AssignShift assigns shiftType to date, overwriting any existing shift.
// Start and end come from the catalog. The prior state of the date is
// captured into a change log entry before the write becomes visible.
func (s *Service) AssignShift(ctx context.Context, date, shiftType string) (domain.Shift, error) {
	start, end, err := catalog.TimesFor(shiftType)
	if err != nil {
		return domain.Shift{}, err
	}

	var saved domain.Shift
	err = s.db.WithTx(ctx, func(tx pgx.Tx) error {
		shifts := s.shifts.WithTx(tx)
		history := s.history.WithTx(tx)

		prior, err := priorState(ctx, shifts, date)
		if err != nil {
			return err
		}

		saved, err = shifts.Upsert(ctx, domain.Shift{
			Date:  date,
			Type:  shiftType,
			Start: start,
			End:   end,
		})
		if err != nil {
			return err
		}

		change, err := domain.EncodeChangeRecord(prior, &saved)
		if err != nil {
			return err
		}

		_, err = history.Append(ctx, domain.HistoryEntry{
			Timestamp:   s.now().UTC(),
			Date:        date,
			Change:      change,
			Description: describeAssign(date, prior, shiftType),
		})
		return err
	})
	if err != nil {
		return domain.Shift{}, err
	}

	return saved, nil
}

// RemoveShift deletes the shift on date and records the deletion. An absent
// date is a defined no-op: it returns domain.ErrShiftNotFound and appends no
// history entry.
func (s *Service) RemoveShift(ctx context.Context, date string) error {
	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		shifts := s.shifts.WithTx(tx)
		history := s.history.WithTx(tx)

		prior, err := shifts.Get(ctx, date)
		if err != nil {
			return err
		}

		if _, err := shifts.Delete(ctx, date); err != nil {
			return err
		}

		change, err := domain.EncodeChangeRecord(&prior, nil)
		if err != nil {
			return err
		}

		_, err = history.Append(ctx, domain.HistoryEntry{
			Timestamp:   s.now().UTC(),
			Date:        date,
			Change:      change,
			Description: fmt.Sprintf("Removed %s from %s", prior.Type, date),
		})
		return err
	})
}

// GetShift returns the shift on date, or domain.ErrShiftNotFound.
func (s *Service) GetShift(ctx context.Context, date string) (domain.Shift, error) {
	return s.shifts.Get(ctx, date)
}

// ListShifts returns shifts between from and to inclusive, ascending.
func (s *Service) ListShifts(ctx context.Context, from, to string) ([]domain.Shift, error) {
	return s.shifts.ListRange(ctx, from, to)
}

// ListHistory returns up to limit change log entries, newest first.
func (s *Service) ListHistory(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	return s.history.List(ctx, limit)
}

// NextShift describes the earliest upcoming shift.
type NextShift struct {
	Date     string `json:"date"`
	DateTime string `json:"datetime"`
	Type     string `json:"type"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

// UpcomingShift returns the first shift whose start instant is strictly
// after now, scanning a bounded horizon. Returns domain.ErrNoUpcomingShift
// when the horizon holds none.
func (s *Service) UpcomingShift(ctx context.Context) (NextShift, error) {
	now := s.now().UTC()
	today := now.Truncate(24 * time.Hour)

	from := today.Format("2006-01-02")
	to := today.AddDate(0, 0, nextShiftHorizonDays).Format("2006-01-02")

	shifts, err := s.shifts.ListRange(ctx, from, to)
	if err != nil {
		return NextShift{}, err
	}

	for _, shift := range shifts {
		startAt, err := shiftStart(shift)
		if err != nil {
			return NextShift{}, err
		}
		if startAt.After(now) {
			return NextShift{
				Date:     shift.Date,
				DateTime: startAt.Format("2006-01-02T15:04"),
				Type:     shift.Type,
				Start:    shift.Start,
				End:      shift.End,
			}, nil
		}
	}

	return NextShift{}, domain.ErrNoUpcomingShift
}

func shiftStart(shift domain.Shift) (time.Time, error) {
	startAt, err := time.Parse("2006-01-02 15:04", shift.Date+" "+shift.Start)
	if err != nil {
		return time.Time{}, fmt.Errorf("malformed shift on %s: %w", shift.Date, err)
	}
	return startAt, nil
}

// priorState reads the current shift on date, mapping "no row" to nil.
func priorState(ctx context.Context, shifts repository.ShiftRepository, date string) (*domain.Shift, error) {
	current, err := shifts.Get(ctx, date)
	if err != nil {
		if errors.Is(err, domain.ErrShiftNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &current, nil
}

func describeAssign(date string, prior *domain.Shift, newType string) string {
	if prior == nil {
		return fmt.Sprintf("Set %s → %s", date, newType)
	}
	return fmt.Sprintf("%s: %s → %s", date, prior.Type, newType)
}
