package workoutlog

import (
	"strings"
)

const (
	categoryMarker = "#"
	detailMarker   = "-"

	// marker line plus name, sets/reps, weight and duration
	requiredLines = 5
)

// Split runs the lexical front-end for enc and groups the result into blocks.
// It validates block structure only; field values are checked by Extract.
func Split(raw string, enc Encoding) ([]Block, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrEmptyInput
	}

	var lines []string
	switch enc {
	case QuickAddEncoding:
		lines = splitLines(raw, "\n")
	default:
		lines = splitLines(raw, ";\n")
	}
	if len(lines) == 0 {
		return nil, ErrEmptyInput
	}

	var blocks []Block
	if enc == QuickAddEncoding {
		b, err := buildBlock(1, lines)
		if err != nil {
			return nil, err
		}
		return []Block{b}, nil
	}

	start := 0
	for i := 1; i <= len(lines); i++ {
		if i < len(lines) && !strings.HasPrefix(lines[i], categoryMarker) {
			continue
		}
		b, err := buildBlock(len(blocks)+1, lines[start:i])
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
		start = i
	}
	return blocks, nil
}

// Parse splits raw, extracts fields from every block and applies formula.
// Exercises are returned in block order.
func Parse(raw string, enc Encoding, formula Formula) ([]Exercise, error) {
	blocks, err := Split(raw, enc)
	if err != nil {
		return nil, err
	}

	exercises := make([]Exercise, 0, len(blocks))
	for _, b := range blocks {
		ex, err := Extract(b)
		if err != nil {
			return nil, err
		}
		if formula != nil {
			ex.CaloriesBurned = formula(ex.Duration, ex.Weight)
		}
		exercises = append(exercises, ex)
	}
	return exercises, nil
}

func splitLines(raw, seps string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
	lines := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			lines = append(lines, f)
		}
	}
	return lines
}

func buildBlock(index int, lines []string) (Block, error) {
	if len(lines) == 0 || !strings.HasPrefix(lines[0], categoryMarker) {
		return Block{}, &ParseError{Code: CodeMissingCategoryMarker, Block: index}
	}
	category := strings.TrimSpace(strings.TrimPrefix(lines[0], categoryMarker))
	if category == "" {
		return Block{}, &ParseError{Code: CodeMissingCategoryMarker, Block: index, Raw: lines[0]}
	}

	details := make([]string, 0, len(lines)-1)
	for _, l := range lines[1:] {
		if strings.HasPrefix(l, detailMarker) {
			details = append(details, l)
		}
	}
	if len(details)+1 < requiredLines {
		return Block{}, &ParseError{Code: CodeInsufficientFields, Block: index}
	}
	return Block{Index: index, Category: category, Lines: details[:requiredLines-1]}, nil
}
