package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ciciliostudio/revisit/internal/actions"
	"github.com/ciciliostudio/revisit/internal/journal"
	"github.com/ciciliostudio/revisit/internal/logging"
)

var replayAttach bool

// replayCmd restores a session and runs its recorded actions
var replayCmd = &cobra.Command{
	Use:   "replay <name>",
	Short: "Restore a session and replay its recorded actions",
	Long: `Replay restores a saved session and then executes its recorded actions
in order. Replay is fail-fast: the first action that cannot be executed
stops the run and reports the failing step.`,
	Args: cobra.ExactArgs(1),
	Run:  runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)

	replayCmd.Flags().BoolVar(&replayAttach, "attach", false, "attach to a running Chrome instead of launching one")
}

func runReplay(cmd *cobra.Command, args []string) {
	name := args[0]
	started := time.Now()

	store := sessionStore()
	if _, err := os.Stat(store.Path(name)); err != nil {
		fmt.Printf("❌ No session named %q. Run 'revisit sessions list'.\n", name)
		os.Exit(1)
	}
	rec := store.LoadOrCreate(name)

	if len(rec.RecordedActions) == 0 {
		fmt.Printf("❌ Session %q has no recorded actions.\n", name)
		os.Exit(1)
	}

	j := openJournal()
	if j != nil {
		defer j.Close()
	}

	remoteURL := ""
	if replayAttach {
		var err error
		remoteURL, err = attachTarget()
		if err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	}

	stack, err := startBrowser(remoteURL)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		recordRun(j, name, journal.KindReplay, false, err.Error(), started)
		os.Exit(1)
	}
	defer stack.Close()

	fmt.Printf("🔄 Restoring session %q...\n", name)
	if err := stack.Restorer.Apply(rec); err != nil {
		fmt.Printf("❌ Restore failed: %v\n", err)
		recordRun(j, name, journal.KindReplay, false, err.Error(), started)
		os.Exit(1)
	}

	fmt.Printf("▶️  Replaying %d action(s)...\n", len(rec.RecordedActions))
	if err := stack.Replayer.ExecuteSequence(rec); err != nil {
		var stepErr *actions.StepError
		if errors.As(err, &stepErr) {
			fmt.Printf("❌ Step %d (%s %s) failed: %v\n",
				stepErr.Index+1, stepErr.Action.Type, stepErr.Action.Selector, stepErr.Err)
		} else {
			fmt.Printf("❌ Replay failed: %v\n", err)
		}
		recordRun(j, name, journal.KindReplay, false, err.Error(), started)
		os.Exit(1)
	}

	logging.Info("Replayed session %q (%d actions)", name, len(rec.RecordedActions))
	recordRun(j, name, journal.KindReplay, true, fmt.Sprintf("%d actions", len(rec.RecordedActions)), started)
	fmt.Printf("✅ All %d action(s) replayed.\n", len(rec.RecordedActions))
}
