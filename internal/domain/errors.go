package domain

import "errors"

var (
	// ErrUnknownShiftType is returned when a caller supplies a type
	// outside the closed shift catalog.
	ErrUnknownShiftType = errors.New("unknown shift type")

	// ErrShiftNotFound signals that no shift exists on the requested date.
	ErrShiftNotFound = errors.New("shift not found")

	// ErrNoHistory signals an empty change log; there is nothing to undo.
	ErrNoHistory = errors.New("nothing to undo")

	// ErrNoUpcomingShift signals that no shift starts within the
	// projection horizon.
	ErrNoUpcomingShift = errors.New("no upcoming shift")
)
