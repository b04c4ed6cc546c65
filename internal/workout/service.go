package workout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"backend-fittrack/internal/workoutlog"
)

// Publisher receives workout events for an owner.
type Publisher interface {
	Broadcast(ownerID string, payload []byte)
}

// Event is what Publisher receives, JSON encoded.
type Event struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	XrefID string `json:"xrefId,omitempty"`
}

const (
	EventCreated = "workout.created"
	EventDeleted = "workout.deleted"
)

// DayLog is the legacy-shaped view of one day.
type DayLog struct {
	TodaysWorkouts     []LegacyView `json:"todaysWorkouts"`
	TotalWorkouts      int          `json:"totalWorkouts"`
	TotalCaloriesBurnt float64      `json:"totalCaloriesBurnt"`
}

type Dashboard struct {
	TodaysWorkouts []StructuredView `json:"todaysWorkouts"`
	TotalWorkouts  int              `json:"totalWorkouts"`
}

type Service struct {
	coordinator *Coordinator
	merger      *Merger
	deleter     *Deleter
	idempotency IdempotencyStore
	events      Publisher
	log         *slog.Logger
	now         func() time.Time
}

// NewService wires the workout use cases. idem and events may be nil.
func NewService(structured StructuredStore, legacy LegacyStore, idem IdempotencyStore, events Publisher, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "workout")
	return &Service{
		coordinator: NewCoordinator(structured, legacy, log),
		merger:      NewMerger(structured, legacy),
		deleter:     NewDeleter(structured, legacy, log),
		idempotency: idem,
		events:      events,
		log:         log,
		now:         time.Now,
	}
}

// IngestBulk parses a multi-block workout string and stores every exercise.
// Either all exercises are stored or none are. The bool reports a replayed
// idempotent response.
func (s *Service) IngestBulk(ctx context.Context, ownerID, key string, req TextRequest) (BulkResult, bool, error) {
	exercises, err := workoutlog.Parse(req.WorkoutString, workoutlog.BulkEncoding, workoutlog.FormulaFor(workoutlog.EntryBulk))
	if err != nil {
		return BulkResult{}, false, err
	}
	date := s.dateOrNow(req.Date)

	return once(ctx, s.idempotency, s.log, ownerID, key, func() (BulkResult, error) {
		pairs := make([]Pair, 0, len(exercises))
		for _, ex := range exercises {
			pair, _, _, err := s.coordinator.Create(ctx, ownerID, Draft{
				Exercise: ex,
				Title:    TextTitle(ex.Category, ex.WorkoutName),
				Level:    DefaultLevel,
				Date:     date,
			})
			if err != nil {
				s.rollback(ctx, ownerID, pairs)
				return BulkResult{}, err
			}
			pairs = append(pairs, pair)
		}
		for _, p := range pairs {
			s.publish(ownerID, EventCreated, p)
		}
		return BulkResult{Workouts: exercises, Pairs: pairs}, nil
	})
}

// QuickAdd stores a single exercise written in the quick-add format and
// returns it in the legacy shape.
func (s *Service) QuickAdd(ctx context.Context, ownerID, key string, req TextRequest) (LegacyView, bool, error) {
	exercises, err := workoutlog.Parse(req.WorkoutString, workoutlog.QuickAddEncoding, workoutlog.FormulaFor(workoutlog.EntryQuickAdd))
	if err != nil {
		return LegacyView{}, false, err
	}
	ex := exercises[0]
	date := s.dateOrNow(req.Date)

	return once(ctx, s.idempotency, s.log, ownerID, key, func() (LegacyView, error) {
		pair, _, lw, err := s.coordinator.Create(ctx, ownerID, Draft{
			Exercise: ex,
			Title:    TextTitle(ex.Category, ex.WorkoutName),
			Level:    DefaultLevel,
			Date:     date,
		})
		if err != nil {
			return LegacyView{}, err
		}
		s.publish(ownerID, EventCreated, pair)
		return LegacyView{
			ID:             lw.ID,
			Category:       lw.Category,
			WorkoutName:    lw.WorkoutName,
			Sets:           lw.Sets,
			Reps:           lw.Reps,
			Weight:         lw.Weight,
			Duration:       lw.Duration,
			Date:           lw.Date,
			CaloriesBurned: ex.CaloriesBurned,
		}, nil
	})
}

// CreateStructured stores a workout submitted as structured fields.
func (s *Service) CreateStructured(ctx context.Context, ownerID, key string, req CreateRequest) (StructuredView, bool, error) {
	req, err := normalizeCreate(req)
	if err != nil {
		return StructuredView{}, false, err
	}
	ex := workoutlog.Exercise{
		Category:    req.Focus,
		WorkoutName: req.Title,
		Duration:    req.Duration,
	}
	ex.CaloriesBurned = workoutlog.FormulaFor(workoutlog.EntryStructured)(ex.Duration, ex.Weight)
	date := s.dateOrNow(req.ScheduledDate)

	return once(ctx, s.idempotency, s.log, ownerID, key, func() (StructuredView, error) {
		pair, sw, _, err := s.coordinator.Create(ctx, ownerID, Draft{
			Exercise: ex,
			Title:    req.Title,
			Level:    req.Level,
			Date:     date,
		})
		if err != nil {
			return StructuredView{}, err
		}
		s.publish(ownerID, EventCreated, pair)
		return StructuredView{
			ID:            sw.ID,
			Title:         sw.Title,
			Duration:      sw.Duration,
			Level:         sw.Level,
			Focus:         sw.Focus,
			Calories:      sw.Calories,
			ScheduledDate: sw.ScheduledDate,
			SyncStatus:    sw.SyncStatus,
		}, nil
	})
}

// List returns the merged workouts matching f in the structured shape.
func (s *Service) List(ctx context.Context, f Filter) ([]StructuredView, error) {
	entries, err := s.merger.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]StructuredView, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Structured())
	}
	return out, nil
}

// WorkoutsByDate returns the owner's workouts for the day of date in the
// legacy shape, with the day's calorie total.
func (s *Service) WorkoutsByDate(ctx context.Context, ownerID string, date time.Time) (DayLog, error) {
	entries, err := s.merger.List(ctx, Day(ownerID, s.dateOrNow(date)))
	if err != nil {
		return DayLog{}, err
	}
	views := make([]LegacyView, 0, len(entries))
	for _, e := range entries {
		views = append(views, e.Legacy())
	}
	return DayLog{
		TodaysWorkouts:     views,
		TotalWorkouts:      len(entries),
		TotalCaloriesBurnt: TotalCalories(entries),
	}, nil
}

// Dashboard returns today's workouts and the owner's all-time workout count.
func (s *Service) Dashboard(ctx context.Context, ownerID string) (Dashboard, error) {
	all, err := s.merger.List(ctx, Filter{OwnerID: ownerID})
	if err != nil {
		return Dashboard{}, err
	}
	today := Day(ownerID, s.now())
	todays := []StructuredView{}
	for _, e := range all {
		if !e.Date.Before(today.From) && e.Date.Before(today.To) {
			todays = append(todays, e.Structured())
		}
	}
	return Dashboard{TodaysWorkouts: todays, TotalWorkouts: len(all)}, nil
}

// Delete removes the logical workout identified by either of its record ids.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.deleter.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.publish(ownerID, EventDeleted, Pair{StructuredID: id})
	return nil
}

func (s *Service) rollback(ctx context.Context, ownerID string, pairs []Pair) {
	for _, p := range pairs {
		if err := s.coordinator.Rollback(ctx, ownerID, p); err != nil {
			s.log.Error("bulk rollback failed",
				"operator_attention", true,
				"owner_id", ownerID,
				"xref_id", p.XrefID,
				"error", err,
			)
		}
	}
}

func (s *Service) publish(ownerID, kind string, p Pair) {
	if s.events == nil {
		return
	}
	payload, err := json.Marshal(Event{Type: kind, ID: p.StructuredID, XrefID: p.XrefID})
	if err != nil {
		s.log.Warn("encode event", "error", err)
		return
	}
	s.events.Broadcast(ownerID, payload)
}

func (s *Service) dateOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return s.now()
	}
	return t
}

func normalizeCreate(req CreateRequest) (CreateRequest, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Focus = strings.TrimSpace(req.Focus)
	req.Level = strings.TrimSpace(req.Level)
	if req.Title == "" {
		return req, fmt.Errorf("%w: title required", ErrInvalidInput)
	}
	if req.Duration <= 0 {
		return req, fmt.Errorf("%w: duration must be positive", ErrInvalidInput)
	}
	if req.Level == "" {
		req.Level = DefaultLevel
	}
	if !slices.Contains(Levels, req.Level) {
		return req, fmt.Errorf("%w: level must be one of %s", ErrInvalidInput, strings.Join(Levels, ", "))
	}
	if !slices.Contains(Focus, req.Focus) {
		return req, fmt.Errorf("%w: focus must be one of %s", ErrInvalidInput, strings.Join(Focus, ", "))
	}
	return req, nil
}

