// Package export renders the schedule and its change history as downloadable
// spreadsheets.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/tbaxter/workshift/internal/repository"
)

const (
	scheduleSheet = "Schedule"
	historySheet  = "History"
)

// Service builds schedule exports from the repositories.
type Service struct {
	shifts  repository.ShiftRepository
	history repository.HistoryRepository
}

// NewService creates a new export service.
func NewService(shifts repository.ShiftRepository, history repository.HistoryRepository) *Service {
	return &Service{shifts: shifts, history: history}
}

// BuildWorkbook produces an xlsx workbook with a Schedule sheet covering
// [from, to] and a History sheet with the newest historyLimit entries.
// The caller owns closing the returned file.
func (s *Service) BuildWorkbook(ctx context.Context, from, to string, historyLimit int) (*excelize.File, error) {
	shifts, err := s.shifts.ListRange(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load shifts for export: %w", err)
	}
	entries, err := s.history.List(ctx, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load history for export: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", scheduleSheet); err != nil {
		return nil, fmt.Errorf("failed to name schedule sheet: %w", err)
	}

	if err := f.SetSheetRow(scheduleSheet, "A1", &[]any{"Date", "Type", "Start", "End"}); err != nil {
		return nil, fmt.Errorf("failed to write schedule header: %w", err)
	}
	for i, shift := range shifts {
		cell := "A" + strconv.Itoa(i+2)
		row := []any{shift.Date, shift.Type, shift.Start, shift.End}
		if err := f.SetSheetRow(scheduleSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write schedule row: %w", err)
		}
	}

	if _, err := f.NewSheet(historySheet); err != nil {
		return nil, fmt.Errorf("failed to create history sheet: %w", err)
	}
	if err := f.SetSheetRow(historySheet, "A1", &[]any{"ID", "Timestamp", "Date", "Change"}); err != nil {
		return nil, fmt.Errorf("failed to write history header: %w", err)
	}
	for i, entry := range entries {
		cell := "A" + strconv.Itoa(i+2)
		row := []any{entry.ID, entry.Timestamp.UTC().Format(time.RFC3339), entry.Date, entry.Description}
		if err := f.SetSheetRow(historySheet, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write history row: %w", err)
		}
	}

	return f, nil
}

// WriteScheduleCSV streams the [from, to] schedule as CSV.
func (s *Service) WriteScheduleCSV(ctx context.Context, w io.Writer, from, to string) error {
	shifts, err := s.shifts.ListRange(ctx, from, to)
	if err != nil {
		return fmt.Errorf("failed to load shifts for export: %w", err)
	}

	csvWriter := csv.NewWriter(w)
	if err := csvWriter.Write([]string{"date", "type", "start", "end"}); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, shift := range shifts {
		if err := csvWriter.Write([]string{shift.Date, shift.Type, shift.Start, shift.End}); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}
