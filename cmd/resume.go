package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ciciliostudio/revisit/internal/journal"
	"github.com/ciciliostudio/revisit/internal/logging"
)

var (
	resumeAttach bool
	resumeHold   bool
	resumeReplay bool
)

// resumeCmd restores a saved session into a browser
var resumeCmd = &cobra.Command{
	Use:   "resume <name>",
	Short: "Restore a saved session into a browser",
	Long: `Resume loads a saved session, navigates to its URL, waits until the
page is ready, and pushes the captured state back in: cookies before
navigation, then storage, form fields, scroll positions and focus.

With --replay the session's recorded actions are executed after the state
is restored. With --hold the browser stays open until interrupted.`,
	Args: cobra.ExactArgs(1),
	Run:  runResume,
}

func init() {
	rootCmd.AddCommand(resumeCmd)

	resumeCmd.Flags().BoolVar(&resumeAttach, "attach", false, "attach to a running Chrome instead of launching one")
	resumeCmd.Flags().BoolVar(&resumeHold, "hold", false, "keep the browser open until Ctrl+C")
	resumeCmd.Flags().BoolVar(&resumeReplay, "replay", false, "replay the session's recorded actions after restoring")
}

func runResume(cmd *cobra.Command, args []string) {
	name := args[0]
	started := time.Now()

	store := sessionStore()
	if _, err := os.Stat(store.Path(name)); err != nil {
		fmt.Printf("❌ No session named %q. Run 'revisit sessions list'.\n", name)
		os.Exit(1)
	}
	rec := store.LoadOrCreate(name)

	j := openJournal()
	if j != nil {
		defer j.Close()
	}

	remoteURL := ""
	if resumeAttach {
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
		recordRun(j, name, journal.KindResume, false, err.Error(), started)
		os.Exit(1)
	}
	defer stack.Close()

	fmt.Printf("🔄 Restoring session %q (%s)...\n", name, rec.CurrentURL)
	if err := stack.Restorer.Apply(rec); err != nil {
		fmt.Printf("❌ Restore failed: %v\n", err)
		recordRun(j, name, journal.KindResume, false, err.Error(), started)
		os.Exit(1)
	}

	if resumeReplay && len(rec.RecordedActions) > 0 {
		fmt.Printf("▶️  Replaying %d recorded action(s)...\n", len(rec.RecordedActions))
		if err := stack.Replayer.ExecuteSequence(rec); err != nil {
			fmt.Printf("❌ Replay failed: %v\n", err)
			recordRun(j, name, journal.KindResume, false, err.Error(), started)
			os.Exit(1)
		}
	}

	if err := store.Save(rec); err != nil {
		logging.Warn("Failed to update session after resume: %v", err)
	}

	logging.Info("Resumed session %q", name)
	recordRun(j, name, journal.KindResume, true, rec.CurrentURL, started)
	fmt.Printf("✅ Session %q restored.\n", name)

	if resumeHold {
		fmt.Println("   Browser stays open. Press Ctrl+C to exit.")
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan
	}
}
