package workout

import (
	"context"
	"sort"

	"backend-fittrack/internal/workoutlog"

	"golang.org/x/sync/errgroup"
)

// Merger reads both stores and returns one entry per logical workout.
type Merger struct {
	structured StructuredStore
	legacy     LegacyStore
}

func NewMerger(structured StructuredStore, legacy LegacyStore) *Merger {
	return &Merger{structured: structured, legacy: legacy}
}

// List returns f's workouts newest first. Records sharing an xref id are
// collapsed into one entry keyed by the structured id.
func (m *Merger) List(ctx context.Context, f Filter) ([]Entry, error) {
	var (
		structured []Workout
		legacy     []LegacyWorkout
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		structured, err = m.structured.List(gctx, f)
		return err
	})
	g.Go(func() error {
		var err error
		legacy, err = m.legacy.List(gctx, f)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return Merge(structured, legacy), nil
}

// Merge normalises and deduplicates already loaded records.
func Merge(structured []Workout, legacy []LegacyWorkout) []Entry {
	mirrors := make(map[string]LegacyWorkout, len(legacy))
	for _, lw := range legacy {
		if lw.XrefID != "" {
			mirrors[lw.XrefID] = lw
		}
	}

	entries := make([]Entry, 0, len(structured)+len(legacy))
	paired := make(map[string]bool, len(structured))
	for _, w := range structured {
		e := Entry{
			ID:          w.ID,
			XrefID:      w.XrefID,
			OwnerID:     w.OwnerID,
			Title:       w.Title,
			Category:    w.Focus,
			WorkoutName: w.Title,
			Duration:    w.Duration,
			Level:       w.Level,
			Calories:    w.Calories,
			Date:        w.ScheduledDate,
			SyncStatus:  w.SyncStatus,
		}
		if lw, ok := mirrors[w.XrefID]; ok && w.XrefID != "" {
			paired[w.XrefID] = true
			e.LegacyID = lw.ID
			e.WorkoutName = lw.WorkoutName
			e.Sets = lw.Sets
			e.Reps = lw.Reps
			e.Weight = lw.Weight
		}
		entries = append(entries, e)
	}

	for _, lw := range legacy {
		if lw.XrefID != "" && paired[lw.XrefID] {
			continue
		}
		entries = append(entries, Entry{
			ID:          lw.ID,
			LegacyID:    lw.ID,
			XrefID:      lw.XrefID,
			OwnerID:     lw.OwnerID,
			Title:       lw.WorkoutName,
			Category:    lw.Category,
			WorkoutName: lw.WorkoutName,
			Sets:        lw.Sets,
			Reps:        lw.Reps,
			Weight:      lw.Weight,
			Duration:    lw.Duration,
			Level:       DefaultLevel,
			Calories:    workoutlog.StructuredFormula(lw.Duration, lw.Weight),
			Date:        lw.Date,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if !entries[i].Date.Equal(entries[j].Date) {
			return entries[i].Date.After(entries[j].Date)
		}
		return entries[i].ID > entries[j].ID
	})
	return entries
}

// TotalCalories sums Calories over entries.
func TotalCalories(entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Calories
	}
	return total
}
