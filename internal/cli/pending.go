package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"backend-fittrack/internal/db"
	"backend-fittrack/internal/workout"

	"github.com/spf13/cobra"
)

var (
	pendingOlderThan time.Duration
	pendingJSON      bool
)

type pendingLister interface {
	ListPending(ctx context.Context, olderThan time.Duration) ([]workout.Workout, error)
}

// openPending connects to postgres; the returned func releases the pool.
var openPending = func() (pendingLister, func(), error) {
	pool, err := db.ConnectPostgres(loadConfig())
	if err != nil {
		return nil, nil, err
	}
	return workout.NewStructuredStore(pool), pool.Close, nil
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List workouts left pending by failed dual writes",
	Long: `Lists structured workout records whose legacy mirror was never confirmed.
Each one needs an operator to delete it or to re-create its mirror.`,
	Args: cobra.NoArgs,
	RunE: runPending,
}

func init() {
	pendingCmd.Flags().DurationVar(&pendingOlderThan, "older-than", 10*time.Minute, "only list records pending for longer than this")
	pendingCmd.Flags().BoolVar(&pendingJSON, "json", false, "output records as JSON")
	rootCmd.AddCommand(pendingCmd)
}

func runPending(cmd *cobra.Command, _ []string) error {
	store, closeFn, err := openPending()
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workouts, err := store.ListPending(ctx, pendingOlderThan)
	if err != nil {
		return fmt.Errorf("list pending: %w", err)
	}

	if pendingJSON {
		data, err := json.MarshalIndent(workouts, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal workouts: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(workouts) == 0 {
		cmd.Println("No pending workouts.")
		return nil
	}
	for _, w := range workouts {
		cmd.Printf("%s  owner=%s  xref=%s  created=%s  %s\n", w.ID, w.OwnerID, w.XrefID, w.CreatedAt.Format(time.RFC3339), w.Title)
	}
	return nil
}
