// Package catalog holds the closed table of shift types. Adding a type is a
// code change, not configuration.
package catalog

import (
	"fmt"

	"github.com/tbaxter/workshift/internal/domain"
)

// Times holds the wall-clock bounds of a shift type.
type Times struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

var shiftTypes = map[string]Times{
	"day8":    {Start: "07:00", End: "15:00"},
	"day12":   {Start: "07:00", End: "19:00"},
	"night12": {Start: "19:00", End: "07:00"},
}

// IsValidType reports whether shiftType is a known catalog key.
func IsValidType(shiftType string) bool {
	_, ok := shiftTypes[shiftType]
	return ok
}

// TimesFor resolves the start and end times for a shift type.
func TimesFor(shiftType string) (start, end string, err error) {
	times, ok := shiftTypes[shiftType]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", domain.ErrUnknownShiftType, shiftType)
	}
	return times.Start, times.End, nil
}

// Types returns a copy of the catalog for read-only display.
func Types() map[string]Times {
	out := make(map[string]Times, len(shiftTypes))
	for name, times := range shiftTypes {
		out[name] = times
	}
	return out
}
