package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"backend-fittrack/internal/workoutlog"

	"github.com/spf13/cobra"
)

var (
	parseFormat string
	parseEntry  string
)

var parseCmd = &cobra.Command{
	Use:   "parse [file]",
	Short: "Parse a workout string and print the exercises as JSON",
	Long: `Parses workout text the same way the API does and prints the resulting
exercises with their calorie estimate. Reads stdin when no file is given or
the file is "-".`,
	Args: cobra.MaximumNArgs(1),
	RunE: runParse,
}

func init() {
	parseCmd.Flags().StringVarP(&parseFormat, "format", "f", "bulk", "input format: bulk or quick")
	parseCmd.Flags().StringVarP(&parseEntry, "entry", "e", "", "calorie formula by entry point: bulk, quick-add or structured (default follows --format)")
	rootCmd.AddCommand(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	enc, defaultEntry, err := encodingFor(parseFormat)
	if err != nil {
		return err
	}
	entry := workoutlog.EntryPoint(parseEntry)
	if entry == "" {
		entry = defaultEntry
	}
	switch entry {
	case workoutlog.EntryBulk, workoutlog.EntryQuickAdd, workoutlog.EntryStructured:
	default:
		return fmt.Errorf("unknown entry point %q", parseEntry)
	}

	raw, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	exercises, err := workoutlog.Parse(string(raw), enc, workoutlog.FormulaFor(entry))
	if err != nil {
		var pe *workoutlog.ParseError
		if errors.As(err, &pe) {
			return fmt.Errorf("%s: %w", pe.Code, err)
		}
		return err
	}

	data, err := json.MarshalIndent(exercises, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal exercises: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func encodingFor(format string) (workoutlog.Encoding, workoutlog.EntryPoint, error) {
	switch format {
	case "bulk":
		return workoutlog.BulkEncoding, workoutlog.EntryBulk, nil
	case "quick", "quick-add":
		return workoutlog.QuickAddEncoding, workoutlog.EntryQuickAdd, nil
	}
	return 0, "", fmt.Errorf("unknown format %q (want bulk or quick)", format)
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}
