package scheduler

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5"

	"github.com/tbaxter/workshift/internal/domain"
	"github.com/tbaxter/workshift/internal/repository"
)

// stubStore is an in-memory stand-in for the persistent store. WithTx
// snapshots state up front and restores it when the function fails, so
// service tests exercise the same all-or-nothing behavior the database
// transaction provides.
type stubStore struct {
	shifts  map[string]domain.Shift
	entries []domain.HistoryEntry
	nextID  int64

	upsertErr error
	appendErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		shifts: map[string]domain.Shift{},
		nextID: 1,
	}
}

func (s *stubStore) WithTx(ctx context.Context, fn func(pgx.Tx) error) error {
	shiftsBefore := make(map[string]domain.Shift, len(s.shifts))
	for date, shift := range s.shifts {
		shiftsBefore[date] = shift
	}
	entriesBefore := make([]domain.HistoryEntry, len(s.entries))
	copy(entriesBefore, s.entries)
	idBefore := s.nextID

	if err := fn(nil); err != nil {
		s.shifts = shiftsBefore
		s.entries = entriesBefore
		s.nextID = idBefore
		return err
	}
	return nil
}

type stubShiftRepo struct {
	store *stubStore
}

func (r *stubShiftRepo) WithTx(tx pgx.Tx) repository.ShiftRepository { return r }

func (r *stubShiftRepo) Get(ctx context.Context, date string) (domain.Shift, error) {
	shift, ok := r.store.shifts[date]
	if !ok {
		return domain.Shift{}, domain.ErrShiftNotFound
	}
	return shift, nil
}

func (r *stubShiftRepo) Upsert(ctx context.Context, shift domain.Shift) (domain.Shift, error) {
	if r.store.upsertErr != nil {
		return domain.Shift{}, r.store.upsertErr
	}
	r.store.shifts[shift.Date] = shift
	return shift, nil
}

func (r *stubShiftRepo) Delete(ctx context.Context, date string) (bool, error) {
	_, ok := r.store.shifts[date]
	delete(r.store.shifts, date)
	return ok, nil
}

func (r *stubShiftRepo) ListRange(ctx context.Context, from, to string) ([]domain.Shift, error) {
	shifts := []domain.Shift{}
	for date, shift := range r.store.shifts {
		if date >= from && date <= to {
			shifts = append(shifts, shift)
		}
	}
	sort.Slice(shifts, func(i, j int) bool { return shifts[i].Date < shifts[j].Date })
	return shifts, nil
}

type stubHistoryRepo struct {
	store *stubStore
}

func (r *stubHistoryRepo) WithTx(tx pgx.Tx) repository.HistoryRepository { return r }

func (r *stubHistoryRepo) Append(ctx context.Context, entry domain.HistoryEntry) (int64, error) {
	if r.store.appendErr != nil {
		return 0, r.store.appendErr
	}

	entry.ID = r.store.nextID
	r.store.nextID++

	snapshot, err := domain.DecodeSnapshot(entry.Change)
	if err != nil {
		return 0, err
	}
	entry.Snapshot = snapshot

	r.store.entries = append(r.store.entries, entry)
	return entry.ID, nil
}

func (r *stubHistoryRepo) MostRecent(ctx context.Context) (domain.HistoryEntry, error) {
	if len(r.store.entries) == 0 {
		return domain.HistoryEntry{}, domain.ErrNoHistory
	}
	return r.store.entries[len(r.store.entries)-1], nil
}

func (r *stubHistoryRepo) Remove(ctx context.Context, id int64) (bool, error) {
	for i, entry := range r.store.entries {
		if entry.ID == id {
			r.store.entries = append(r.store.entries[:i], r.store.entries[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *stubHistoryRepo) List(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	entries := []domain.HistoryEntry{}
	for i := len(r.store.entries) - 1; i >= 0 && len(entries) < limit; i-- {
		entries = append(entries, r.store.entries[i])
	}
	return entries, nil
}

// newTestService wires a Service over a fresh stub store.
func newTestService(opts ...Option) (*Service, *stubStore) {
	store := newStubStore()
	service := NewService(store, &stubShiftRepo{store: store}, &stubHistoryRepo{store: store}, opts...)
	return service, store
}
