package workoutlog

import "math"

// Formula estimates calories burned from duration in minutes and weight in kg.
type Formula func(durationMin, weightKg float64) float64

// EntryPoint names the path a workout entered the system through.
type EntryPoint string

const (
	EntryBulk       EntryPoint = "bulk"
	EntryQuickAdd   EntryPoint = "quick-add"
	EntryStructured EntryPoint = "structured"
)

const (
	legacyKcalPerKgMinute = 5
	structuredKcalPerMin  = 6.67
)

// LegacyFormula is the bulk import estimate: duration * weight * 5.
func LegacyFormula(durationMin, weightKg float64) float64 {
	return durationMin * weightKg * legacyKcalPerKgMinute
}

// StructuredFormula ignores weight: floor(duration * 6.67).
func StructuredFormula(durationMin, _ float64) float64 {
	return math.Floor(durationMin * structuredKcalPerMin)
}

// FormulaFor returns the estimate used by an entry point. The two formulas
// are known to disagree and are kept apart until product picks one. Unknown
// entry points get the structured one.
func FormulaFor(entry EntryPoint) Formula {
	if entry == EntryBulk {
		return LegacyFormula
	}
	return StructuredFormula
}
