package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// HistoryEntry captures one committed schedule mutation. Change holds the
// persisted change record text; Snapshot is the prior state of the affected
// date decoded from it, nil when the date had no shift before the change.
// Entries are totally ordered by ID, which is also insertion order; the
// highest ID is the next undo target.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Date        string    `json:"date"`
	Change      string    `json:"change"`
	Snapshot    *Shift    `json:"snapshot,omitempty"`
	Description string    `json:"description"`
}

// changeOp is one structural diff step in the persisted change record.
type changeOp struct {
	Op    string `json:"op"`
	Path  string `json:"path"`
	Value string `json:"value,omitempty"`
}

type snapshotMarker struct {
	Snapshot map[string]string `json:"_snapshot"`
}

// EncodeChangeRecord serializes a mutation into the stored change record: a
// JSON array whose first element carries the prior-state snapshot, followed
// by the field-level diff between prior and current state. Only the snapshot
// is read back for undo; the trailing ops exist for audit display.
func EncodeChangeRecord(prior, current *Shift) (string, error) {
	elems := []any{snapshotMarker{Snapshot: shiftFields(prior)}}
	for _, op := range diffShifts(prior, current) {
		elems = append(elems, op)
	}

	data, err := json.Marshal(elems)
	if err != nil {
		return "", fmt.Errorf("failed to encode change record: %w", err)
	}
	return string(data), nil
}

// DecodeSnapshot extracts the prior-state snapshot from a stored change
// record. It returns nil (and no error) when the record carries an empty
// snapshot, meaning the date had no shift before the change.
func DecodeSnapshot(record string) (*Shift, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(record), &elems); err != nil {
		return nil, fmt.Errorf("failed to decode change record: %w", err)
	}
	if len(elems) == 0 {
		return nil, nil
	}

	var marker snapshotMarker
	if err := json.Unmarshal(elems[0], &marker); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot marker: %w", err)
	}
	if marker.Snapshot == nil || marker.Snapshot["type"] == "" {
		return nil, nil
	}

	return &Shift{
		Date:  marker.Snapshot["date"],
		Type:  marker.Snapshot["type"],
		Start: marker.Snapshot["start"],
		End:   marker.Snapshot["end"],
	}, nil
}

func shiftFields(s *Shift) map[string]string {
	if s == nil {
		return map[string]string{}
	}
	return map[string]string{
		"date":  s.Date,
		"type":  s.Type,
		"start": s.Start,
		"end":   s.End,
	}
}

// diffShifts produces the field-level ops between two states. Field order is
// fixed so the record text is stable for identical inputs.
func diffShifts(prior, current *Shift) []changeOp {
	old := shiftFields(prior)
	next := shiftFields(current)

	var ops []changeOp
	for _, field := range []string{"date", "type", "start", "end"} {
		oldVal, hadOld := old[field]
		newVal, hasNew := next[field]

		switch {
		case !hadOld && hasNew:
			ops = append(ops, changeOp{Op: "add", Path: "/" + field, Value: newVal})
		case hadOld && !hasNew:
			ops = append(ops, changeOp{Op: "remove", Path: "/" + field})
		case hadOld && hasNew && oldVal != newVal:
			ops = append(ops, changeOp{Op: "replace", Path: "/" + field, Value: newVal})
		}
	}
	return ops
}
