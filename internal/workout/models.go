package workout

import (
	"time"

	"backend-fittrack/internal/workoutlog"
)

const (
	SyncPending = "pending"
	SyncSynced  = "synced"

	DefaultLevel = "Beginner"
)

var (
	Levels = []string{"Beginner", "Intermediate", "Advanced"}
	Focus  = []string{"Full Body", "Upper Body", "Lower Body", "Core", "Cardio", "Flexibility"}
)

// Workout is the structured record, stored in the workouts table.
type Workout struct {
	ID            string    `json:"_id"`
	XrefID        string    `json:"xrefId"`
	OwnerID       string    `json:"userId"`
	Title         string    `json:"title"`
	Duration      float64   `json:"duration"`
	Level         string    `json:"level"`
	Focus         string    `json:"focus"`
	Calories      float64   `json:"calories"`
	ScheduledDate time.Time `json:"scheduledDate"`
	SyncStatus    string    `json:"syncStatus"`
	CreatedAt     time.Time `json:"createdAt"`
}

// LegacyWorkout is the flat historical record, stored in legacy_workouts.
// XrefID is empty for rows written before the cross-reference existed.
type LegacyWorkout struct {
	ID          string    `json:"_id"`
	XrefID      string    `json:"xrefId,omitempty"`
	OwnerID     string    `json:"user"`
	Category    string    `json:"category"`
	WorkoutName string    `json:"workoutName"`
	Sets        int       `json:"sets"`
	Reps        int       `json:"reps"`
	Weight      float64   `json:"weight"`
	Duration    float64   `json:"duration"`
	Date        time.Time `json:"date"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Pair identifies both physical records of one logical workout.
type Pair struct {
	StructuredID string `json:"structuredId"`
	LegacyID     string `json:"legacyId"`
	XrefID       string `json:"xrefId"`
}

// Entry is one logical workout after merging both stores.
type Entry struct {
	ID          string
	LegacyID    string
	XrefID      string
	OwnerID     string
	Title       string
	Category    string
	WorkoutName string
	Sets        int
	Reps        int
	Weight      float64
	Duration    float64
	Level       string
	Calories    float64
	Date        time.Time
	SyncStatus  string
}

// StructuredView is an Entry in the structured record's field names.
type StructuredView struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Duration      float64   `json:"duration"`
	Level         string    `json:"level"`
	Focus         string    `json:"focus"`
	Calories      float64   `json:"calories"`
	ScheduledDate time.Time `json:"scheduledDate"`
	SyncStatus    string    `json:"syncStatus,omitempty"`
}

// LegacyView is an Entry in the legacy record's field names.
type LegacyView struct {
	ID             string    `json:"_id"`
	Category       string    `json:"category"`
	WorkoutName    string    `json:"workoutName"`
	Sets           int       `json:"sets"`
	Reps           int       `json:"reps"`
	Weight         float64   `json:"weight"`
	Duration       float64   `json:"duration"`
	Date           time.Time `json:"date"`
	CaloriesBurned float64   `json:"caloriesBurned"`
}

func (e Entry) Structured() StructuredView {
	return StructuredView{
		ID:            e.ID,
		Title:         e.Title,
		Duration:      e.Duration,
		Level:         e.Level,
		Focus:         e.Category,
		Calories:      e.Calories,
		ScheduledDate: e.Date,
		SyncStatus:    e.SyncStatus,
	}
}

func (e Entry) Legacy() LegacyView {
	return LegacyView{
		ID:             e.ID,
		Category:       e.Category,
		WorkoutName:    e.WorkoutName,
		Sets:           e.Sets,
		Reps:           e.Reps,
		Weight:         e.Weight,
		Duration:       e.Duration,
		Date:           e.Date,
		CaloriesBurned: e.Calories,
	}
}

// Filter selects one owner's workouts. Zero From/To leave that side open;
// To is exclusive.
type Filter struct {
	OwnerID string
	From    time.Time
	To      time.Time
}

// Day returns a filter covering the calendar day of d in d's location.
func Day(ownerID string, d time.Time) Filter {
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
	return Filter{OwnerID: ownerID, From: start, To: start.AddDate(0, 0, 1)}
}

// CreateRequest is the structured create body.
type CreateRequest struct {
	Title         string    `json:"title"`
	Duration      float64   `json:"duration"`
	Level         string    `json:"level"`
	Focus         string    `json:"focus"`
	ScheduledDate time.Time `json:"scheduledDate"`
}

// TextRequest is the body of both text ingestion routes.
type TextRequest struct {
	WorkoutString string    `json:"workoutString"`
	Date          time.Time `json:"date"`
}

// BulkResult is returned by bulk ingestion.
type BulkResult struct {
	Workouts []workoutlog.Exercise `json:"workouts"`
	Pairs    []Pair                `json:"pairs"`
}

// Draft is the logical workout handed to the coordinator; both physical
// records are projected from it.
type Draft struct {
	Exercise workoutlog.Exercise
	Title    string
	Level    string
	Date     time.Time
}

func (d Draft) structured(ownerID, xref string) Workout {
	return Workout{
		XrefID:        xref,
		OwnerID:       ownerID,
		Title:         d.Title,
		Duration:      d.Exercise.Duration,
		Level:         d.Level,
		Focus:         d.Exercise.Category,
		Calories:      d.Exercise.CaloriesBurned,
		ScheduledDate: d.Date,
		SyncStatus:    SyncPending,
	}
}

func (d Draft) legacy(ownerID, xref string) LegacyWorkout {
	return LegacyWorkout{
		XrefID:      xref,
		OwnerID:     ownerID,
		Category:    d.Exercise.Category,
		WorkoutName: d.Exercise.WorkoutName,
		Sets:        d.Exercise.Sets,
		Reps:        d.Exercise.Reps,
		Weight:      d.Exercise.Weight,
		Duration:    d.Exercise.Duration,
		Date:        d.Date,
	}
}

// TextTitle is the title given to text-ingested workouts.
func TextTitle(category, workoutName string) string {
	return category + " - " + workoutName
}
