package workout

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"backend-fittrack/internal/workoutlog"
)

var errBoom = errors.New("boom")

func testDraft() Draft {
	return Draft{
		Exercise: workoutlog.Exercise{
			Category:       "Legs",
			WorkoutName:    "Squat",
			Sets:           5,
			Reps:           15,
			Weight:         30,
			Duration:       10,
			CaloriesBurned: 66,
		},
		Title: TextTitle("Legs", "Squat"),
		Level: DefaultLevel,
		Date:  time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC),
	}
}

func TestCoordinatorCreateWritesBothRecords(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	c := NewCoordinator(structured, legacy, nil)

	pair, sw, lw, err := c.Create(context.Background(), "user-1", testDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if pair.XrefID == "" || pair.StructuredID != sw.ID || pair.LegacyID != lw.ID {
		t.Fatalf("unexpected pair %+v", pair)
	}
	if sw.XrefID != lw.XrefID {
		t.Fatalf("xref mismatch: %s vs %s", sw.XrefID, lw.XrefID)
	}

	stored := structured.rows[sw.ID]
	if stored.SyncStatus != SyncSynced {
		t.Fatalf("expected synced, got %s", stored.SyncStatus)
	}
	mirror := legacy.rows[lw.ID]
	if stored.Duration != mirror.Duration || stored.Focus != mirror.Category || !stored.ScheduledDate.Equal(mirror.Date) {
		t.Fatalf("records disagree: %+v vs %+v", stored, mirror)
	}
	if mirror.Sets != 5 || mirror.Reps != 15 || mirror.Weight != 30 || mirror.WorkoutName != "Squat" {
		t.Fatalf("unexpected mirror %+v", mirror)
	}
}

func TestCoordinatorStructuredInsertFails(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	structured.insertErr = errBoom
	c := NewCoordinator(structured, legacy, nil)

	_, _, _, err := c.Create(context.Background(), "user-1", testDraft())
	var dw *DualWriteError
	if !errors.As(err, &dw) || dw.Kind != NoWrite {
		t.Fatalf("expected no-write dual write error, got %v", err)
	}
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected cause to unwrap")
	}
	if structured.count() != 0 || legacy.count() != 0 {
		t.Fatalf("expected nothing stored")
	}
}

func TestCoordinatorLegacyInsertFailsIsCompensated(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	legacy.insertErr = errBoom
	var logs bytes.Buffer
	c := NewCoordinator(structured, legacy, slog.New(slog.NewJSONHandler(&logs, nil)))

	_, _, _, err := c.Create(context.Background(), "user-1", testDraft())
	var dw *DualWriteError
	if !errors.As(err, &dw) || dw.Kind != Compensated {
		t.Fatalf("expected compensated error, got %v", err)
	}
	if dw.NeedsOperator() {
		t.Fatalf("compensated write should not need an operator")
	}
	if structured.count() != 0 || legacy.count() != 0 {
		t.Fatalf("expected no orphan records")
	}
	if !strings.Contains(logs.String(), "compensated") {
		t.Fatalf("expected compensation warning, got %s", logs.String())
	}
}

func TestCoordinatorUncompensatedNeedsOperator(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	legacy.insertErr = errBoom
	structured.deleteXrefErr = errors.New("connection reset")
	var logs bytes.Buffer
	c := NewCoordinator(structured, legacy, slog.New(slog.NewJSONHandler(&logs, nil)))

	_, _, _, err := c.Create(context.Background(), "user-1", testDraft())
	var dw *DualWriteError
	if !errors.As(err, &dw) || dw.Kind != Uncompensated {
		t.Fatalf("expected uncompensated error, got %v", err)
	}
	if !dw.NeedsOperator() || dw.StructuredID == "" {
		t.Fatalf("expected operator flag and structured id, got %+v", dw)
	}
	if !errors.Is(err, errBoom) || !errors.Is(err, structured.deleteXrefErr) {
		t.Fatalf("expected both cause and compensation error in chain")
	}
	if !strings.Contains(logs.String(), `"operator_attention":true`) || !strings.Contains(logs.String(), `"level":"ERROR"`) {
		t.Fatalf("expected error log for operator, got %s", logs.String())
	}
}

func TestCoordinatorMarkSyncedFailsRemovesBoth(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	structured.markErr = errBoom
	c := NewCoordinator(structured, legacy, nil)

	_, _, _, err := c.Create(context.Background(), "user-1", testDraft())
	var dw *DualWriteError
	if !errors.As(err, &dw) || dw.Kind != Compensated || dw.LegacyID == "" {
		t.Fatalf("expected compensated error with legacy id, got %v", err)
	}
	if structured.count() != 0 || legacy.count() != 0 {
		t.Fatalf("expected both records removed")
	}
}

func TestCoordinatorConcurrentDeleteLeavesNoOrphan(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	deleter := NewDeleter(structured, legacy, nil)
	structured.beforeMarkSync = func(id string) {
		if err := deleter.Delete(context.Background(), "user-1", id); err != nil {
			t.Errorf("concurrent delete: %v", err)
		}
	}
	c := NewCoordinator(structured, legacy, nil)

	_, _, _, err := c.Create(context.Background(), "user-1", testDraft())
	if !errors.Is(err, ErrConcurrentDelete) {
		t.Fatalf("expected concurrent delete, got %v", err)
	}
	var dw *DualWriteError
	if !errors.As(err, &dw) || dw.Kind != Compensated {
		t.Fatalf("expected compensated, got %v", err)
	}
	if structured.count() != 0 || legacy.count() != 0 {
		t.Fatalf("expected no orphan records, got %d/%d", structured.count(), legacy.count())
	}
}

func TestCoordinatorRollback(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	c := NewCoordinator(structured, legacy, nil)

	pair, _, _, err := c.Create(context.Background(), "user-1", testDraft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := c.Rollback(context.Background(), "user-1", pair); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if structured.count() != 0 || legacy.count() != 0 {
		t.Fatalf("expected rollback to remove both")
	}
}

func TestDualWriteKindString(t *testing.T) {
	cases := map[DualWriteKind]string{
		NoWrite:           "no_write",
		Compensated:       "compensated",
		Uncompensated:     "uncompensated",
		DualWriteKind(42): "unknown",
	}
	for kind, want := range cases {
		if kind.String() != want {
			t.Fatalf("%d: expected %s, got %s", kind, want, kind.String())
		}
	}
}
