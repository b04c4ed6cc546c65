package workout

import (
	"context"
	"reflect"
	"testing"
	"time"
)

func TestMergeDeduplicatesByXref(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	structured := []Workout{{
		ID: "s-1", XrefID: "x-1", OwnerID: "u", Title: "Legs - Squat", Duration: 20,
		Level: "Beginner", Focus: "Legs", Calories: 5000, ScheduledDate: day, SyncStatus: SyncSynced,
	}}
	legacy := []LegacyWorkout{
		{ID: "l-1", XrefID: "x-1", OwnerID: "u", Category: "Legs", WorkoutName: "Squat", Sets: 5, Reps: 15, Weight: 50, Duration: 20, Date: day},
		{ID: "l-2", OwnerID: "u", Category: "Core", WorkoutName: "Plank", Sets: 3, Duration: 10, Date: day.Add(time.Hour)},
	}

	entries := Merge(structured, legacy)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	historic := entries[0]
	if historic.ID != "l-2" || historic.Level != DefaultLevel || historic.Calories != 66 {
		t.Fatalf("unexpected legacy-only entry %+v", historic)
	}

	paired := entries[1]
	if paired.ID != "s-1" || paired.LegacyID != "l-1" {
		t.Fatalf("expected structured id to win, got %+v", paired)
	}
	if paired.WorkoutName != "Squat" || paired.Sets != 5 || paired.Reps != 15 || paired.Weight != 50 {
		t.Fatalf("expected enrichment from mirror, got %+v", paired)
	}
	if paired.Calories != 5000 {
		t.Fatalf("expected stored calories kept, got %v", paired.Calories)
	}
	if TotalCalories(entries) != 5066 {
		t.Fatalf("unexpected total %v", TotalCalories(entries))
	}
}

func TestMergeIsIdempotentAndOrdered(t *testing.T) {
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	structured := []Workout{
		{ID: "b", XrefID: "x-b", ScheduledDate: day},
		{ID: "a", XrefID: "x-a", ScheduledDate: day},
	}
	legacy := []LegacyWorkout{
		{ID: "c", Date: day.Add(-time.Hour)},
		{ID: "m-a", XrefID: "x-a", Date: day},
	}

	first := Merge(structured, legacy)
	second := Merge(structured, legacy)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("merge not deterministic")
	}

	var ids []string
	for _, e := range first {
		ids = append(ids, e.ID)
	}
	if !reflect.DeepEqual(ids, []string{"b", "a", "c"}) {
		t.Fatalf("unexpected order %v", ids)
	}
}

func TestMergerListReadsBothStores(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	c := NewCoordinator(structured, legacy, nil)
	if _, _, _, err := c.Create(context.Background(), "user-1", testDraft()); err != nil {
		t.Fatalf("create: %v", err)
	}
	legacy.rows["old"] = LegacyWorkout{ID: "old", OwnerID: "user-1", Category: "Back", WorkoutName: "Row", Duration: 15, Date: testDraft().Date}
	legacy.rows["other"] = LegacyWorkout{ID: "other", OwnerID: "user-2", Date: testDraft().Date}

	entries, err := NewMerger(structured, legacy).List(context.Background(), Day("user-1", testDraft().Date))
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 logical workouts, got %d", len(entries))
	}
}

func TestMergerListError(t *testing.T) {
	structured, legacy := newMemStructured(), newMemLegacy()
	structured.listErr = errBoom

	if _, err := NewMerger(structured, legacy).List(context.Background(), Filter{OwnerID: "u"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDayFilter(t *testing.T) {
	f := Day("u", time.Date(2024, 1, 15, 18, 30, 0, 0, time.UTC))
	if !f.From.Equal(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)) || !f.To.Equal(time.Date(2024, 1, 16, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected day bounds %v - %v", f.From, f.To)
	}
}
