// Package workoutlog parses the text workout log grammar into exercises and
// estimates their calorie burn.
//
// A log is a sequence of blocks. Each block starts with a category marker
// line and carries four detail lines in fixed order:
//
//	#Legs
//	-Squat
//	-3 sets 10 reps
//	-50kg
//	-20min
package workoutlog

// Encoding selects the lexical front-end used to split raw text into blocks.
type Encoding int

const (
	// BulkEncoding splits on ';' and line breaks and starts a block at
	// every '#' line.
	BulkEncoding Encoding = iota
	// QuickAddEncoding splits on line breaks only and yields one block.
	QuickAddEncoding
)

func (e Encoding) String() string {
	switch e {
	case BulkEncoding:
		return "bulk"
	case QuickAddEncoding:
		return "quick-add"
	}
	return "unknown"
}

// Block is one category section before field extraction.
type Block struct {
	Index    int
	Category string
	Lines    []string
}

// Exercise is one parsed exercise entry. When Timed is set the second number
// of the sets line was a per-set duration and Reps carries that value.
type Exercise struct {
	Category       string  `json:"category"`
	WorkoutName    string  `json:"workoutName"`
	Sets           int     `json:"sets"`
	Reps           int     `json:"reps"`
	Timed          bool    `json:"timed,omitempty"`
	Weight         float64 `json:"weight"`
	Duration       float64 `json:"duration"`
	CaloriesBurned float64 `json:"caloriesBurned"`
}
