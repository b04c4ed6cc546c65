// Package cli implements the workoutlog operator command.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "workoutlog",
	Short: "Workout log tooling",
	Long: `Offline tools for the workout ingestion service: check workout text
against the ingestion grammar, mint development tokens, and list records left
pending by failed dual writes.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
