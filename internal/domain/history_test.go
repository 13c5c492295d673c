package domain

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestChangeRecordRoundTripWithPriorState(t *testing.T) {
	prior := &Shift{Date: "2026-05-01", Type: "day8", Start: "07:00", End: "15:00"}
	current := &Shift{Date: "2026-05-01", Type: "night12", Start: "19:00", End: "07:00"}

	record, err := EncodeChangeRecord(prior, current)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	snapshot, err := DecodeSnapshot(record)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if snapshot == nil {
		t.Fatalf("expected a snapshot")
	}
	if *snapshot != *prior {
		t.Fatalf("snapshot does not round-trip: %+v", snapshot)
	}
}

func TestChangeRecordEmptySnapshotForFreshDate(t *testing.T) {
	current := &Shift{Date: "2026-05-01", Type: "day8", Start: "07:00", End: "15:00"}

	record, err := EncodeChangeRecord(nil, current)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	snapshot, err := DecodeSnapshot(record)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("expected nil snapshot for a fresh date, got %+v", snapshot)
	}
}

func TestChangeRecordSnapshotIsFirstElement(t *testing.T) {
	prior := &Shift{Date: "2026-05-01", Type: "day8", Start: "07:00", End: "15:00"}

	record, err := EncodeChangeRecord(prior, nil)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	var elems []map[string]any
	if err := json.Unmarshal([]byte(record), &elems); err != nil {
		t.Fatalf("record is not a JSON array: %v", err)
	}
	if len(elems) == 0 {
		t.Fatalf("record is empty")
	}
	if _, ok := elems[0]["_snapshot"]; !ok {
		t.Fatalf("first element must carry the snapshot marker: %v", elems[0])
	}

	// The trailing elements describe the deletion.
	if len(elems) < 2 {
		t.Fatalf("expected diff ops after the snapshot")
	}
	if elems[1]["op"] != "remove" {
		t.Fatalf("expected remove ops for a deletion, got %v", elems[1])
	}
}

func TestChangeRecordDiffOpsOnUpdate(t *testing.T) {
	prior := &Shift{Date: "2026-05-01", Type: "day8", Start: "07:00", End: "15:00"}
	current := &Shift{Date: "2026-05-01", Type: "day12", Start: "07:00", End: "19:00"}

	record, err := EncodeChangeRecord(prior, current)
	if err != nil {
		t.Fatalf("encode returned error: %v", err)
	}

	if !strings.Contains(record, `"op":"replace"`) {
		t.Fatalf("expected replace ops in record: %s", record)
	}
	// Unchanged fields produce no ops.
	if strings.Contains(record, `"path":"/date"`) {
		t.Fatalf("unchanged date must not appear in diff: %s", record)
	}
	if !strings.Contains(record, `"path":"/end"`) {
		t.Fatalf("changed end must appear in diff: %s", record)
	}
}

func TestDecodeSnapshotToleratesForeignRecords(t *testing.T) {
	// A record without the marker decodes to an empty snapshot.
	snapshot, err := DecodeSnapshot(`[{"op":"add","path":"/type","value":"day8"}]`)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("expected nil snapshot, got %+v", snapshot)
	}

	// An empty array likewise.
	snapshot, err = DecodeSnapshot(`[]`)
	if err != nil {
		t.Fatalf("decode returned error: %v", err)
	}
	if snapshot != nil {
		t.Fatalf("expected nil snapshot, got %+v", snapshot)
	}
}

func TestDecodeSnapshotRejectsMalformedRecords(t *testing.T) {
	if _, err := DecodeSnapshot(`{"not":"an array"}`); err == nil {
		t.Fatalf("expected error for a non-array record")
	}
	if _, err := DecodeSnapshot(`garbage`); err == nil {
		t.Fatalf("expected error for garbage input")
	}
}
