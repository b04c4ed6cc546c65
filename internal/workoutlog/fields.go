package workoutlog

import (
	"math"
	"strconv"
	"strings"
)

const (
	unitSets     = "sets"
	unitSetsAlt  = "X"
	unitReps     = "reps"
	unitDuration = "duration"
	unitWeight   = "kg"
	unitMinutes  = "min"
)

// Extract converts the detail lines of b into an Exercise. CaloriesBurned is
// left at zero; see Parse. Numbers must be finite and not negative.
func Extract(b Block) (Exercise, error) {
	if len(b.Lines) < requiredLines-1 {
		return Exercise{}, &ParseError{Code: CodeInsufficientFields, Block: b.Index}
	}
	ex := Exercise{
		Category:    b.Category,
		WorkoutName: stripMarker(b.Lines[0]),
	}

	var err error
	if ex.Sets, ex.Reps, ex.Timed, err = extractSetsReps(b.Index, b.Lines[1]); err != nil {
		return Exercise{}, err
	}
	if ex.Weight, err = extractFloat(b.Index, "weight", b.Lines[2], unitWeight); err != nil {
		return Exercise{}, err
	}
	if ex.Duration, err = extractFloat(b.Index, "duration", b.Lines[3], unitMinutes); err != nil {
		return Exercise{}, err
	}
	return ex, nil
}

func extractSetsReps(block int, line string) (sets, reps int, timed bool, err error) {
	body := stripMarker(line)

	setsText, rest, found := strings.Cut(body, unitSets)
	if !found {
		// quick add historically wrote "3X10 reps"
		setsText, rest, found = strings.Cut(body, unitSetsAlt)
	}
	if sets, err = atoi(block, "sets", setsText, line); err != nil {
		return 0, 0, false, err
	}
	if !found {
		return 0, 0, false, nonNumeric(block, "reps", line)
	}

	repsText, _, isReps := strings.Cut(rest, unitReps)
	if !isReps {
		var isTimed bool
		repsText, _, isTimed = strings.Cut(rest, unitDuration)
		timed = isTimed
	}
	if reps, err = atoi(block, "reps", repsText, line); err != nil {
		return 0, 0, false, err
	}
	return sets, reps, timed, nil
}

func extractFloat(block int, field, line, unit string) (float64, error) {
	text, _, _ := strings.Cut(stripMarker(line), unit)
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, nonNumeric(block, field, line)
	}
	return v, nil
}

func atoi(block int, field, text, line string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || v < 0 {
		return 0, nonNumeric(block, field, line)
	}
	return v, nil
}

func stripMarker(line string) string {
	return strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), detailMarker))
}

func nonNumeric(block int, field, raw string) error {
	return &ParseError{Code: CodeNonNumericField, Block: block, Field: field, Raw: raw}
}
