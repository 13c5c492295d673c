package domain

// Shift is a single work-day entry, keyed by calendar date.
// Start and End always mirror the catalog values for Type; they are
// never settable independently.
type Shift struct {
	Date  string `json:"date"`  // YYYY-MM-DD
	Type  string `json:"type"`  // day8 | day12 | night12
	Start string `json:"start"` // HH:MM
	End   string `json:"end"`   // HH:MM
}
