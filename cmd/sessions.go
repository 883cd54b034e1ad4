package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ciciliostudio/revisit/internal/logging"
)

// sessionsCmd groups session management subcommands
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List, inspect and delete saved sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all saved sessions",
	Run:   runSessionsList,
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the captured state of one session",
	Args:  cobra.ExactArgs(1),
	Run:   runSessionsShow,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved session",
	Args:  cobra.ExactArgs(1),
	Run:   runSessionsDelete,
}

var historyLimit int

var sessionsHistoryCmd = &cobra.Command{
	Use:   "history [name]",
	Short: "Show the capture/resume/replay history of a session",
	Args:  cobra.MaximumNArgs(1),
	Run:   runSessionsHistory,
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionsListCmd)
	sessionsCmd.AddCommand(sessionsShowCmd)
	sessionsCmd.AddCommand(sessionsDeleteCmd)
	sessionsCmd.AddCommand(sessionsHistoryCmd)

	sessionsHistoryCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
}

func runSessionsList(cmd *cobra.Command, args []string) {
	store := sessionStore()

	summaries, err := store.List()
	if err != nil {
		fmt.Printf("❌ Failed to list sessions: %v\n", err)
		os.Exit(1)
	}

	if len(summaries) == 0 {
		fmt.Println("No saved sessions. Run 'revisit capture <name> --url <url>' first.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tURL\tLAST USED\tSIZE")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d B\n", s.Name, s.URL, s.LastAccessed, s.Size)
	}
	w.Flush()
}

func runSessionsShow(cmd *cobra.Command, args []string) {
	name := args[0]
	store := sessionStore()

	if _, err := os.Stat(store.Path(name)); err != nil {
		fmt.Printf("❌ No session named %q.\n", name)
		os.Exit(1)
	}
	rec := store.LoadOrCreate(name)

	fmt.Printf("Session: %s (schema v%d)\n", rec.Name, rec.Version)
	fmt.Printf("URL:     %s\n", rec.CurrentURL)
	if rec.LastAccessed > 0 {
		fmt.Printf("Used:    %s\n", time.Unix(rec.LastAccessed, 0).Format("2006-01-02 15:04:05"))
	}

	if len(rec.History) > 0 {
		fmt.Printf("\nHistory (%d entries, at %d):\n", len(rec.History), rec.HistoryIndex)
		for i, url := range rec.History {
			marker := "  "
			if i == rec.HistoryIndex {
				marker = "→ "
			}
			fmt.Printf("  %s%s\n", marker, url)
		}
	}

	fmt.Printf("\nCookies:          %d\n", len(rec.Cookies))
	fmt.Printf("Local storage:    %d\n", len(rec.LocalStorage))
	fmt.Printf("Session storage:  %d\n", len(rec.SessionStorage))
	fmt.Printf("Form fields:      %d\n", len(rec.FormFields))
	fmt.Printf("Scroll positions: %d\n", len(rec.ScrollPosition))
	fmt.Printf("Recorded actions: %d\n", len(rec.RecordedActions))

	if len(rec.ReadyConditions) > 0 {
		fmt.Println("\nReady conditions:")
		for _, cond := range rec.ReadyConditions {
			fmt.Printf("  %s: %s\n", cond.Kind, cond.Value)
		}
	}
	if len(rec.ExtractedState) > 0 {
		fmt.Println("\nExtracted state:")
		for name := range rec.ExtractedState {
			fmt.Printf("  %s\n", name)
		}
	}
	if rec.PageHash != "" {
		fmt.Printf("\nPage hash: %s\n", rec.PageHash)
	}
}

func runSessionsDelete(cmd *cobra.Command, args []string) {
	name := args[0]
	store := sessionStore()

	if _, err := os.Stat(store.Path(name)); err != nil {
		fmt.Printf("❌ No session named %q.\n", name)
		os.Exit(1)
	}

	if err := store.Delete(name); err != nil {
		fmt.Printf("❌ Failed to delete session: %v\n", err)
		os.Exit(1)
	}

	if j := openJournal(); j != nil {
		if err := j.Purge(name); err != nil {
			logging.Warn("Failed to purge journal for %q: %v", name, err)
		}
		j.Close()
	}

	fmt.Printf("✅ Session %q deleted.\n", name)
}

func runSessionsHistory(cmd *cobra.Command, args []string) {
	name := ""
	if len(args) > 0 {
		name = args[0]
	}

	j := openJournal()
	if j == nil {
		fmt.Println("❌ Journal is disabled in the configuration.")
		os.Exit(1)
	}
	defer j.Close()

	runs, err := j.History(name, historyLimit)
	if err != nil {
		fmt.Printf("❌ Failed to read history: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No recorded runs.")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tSESSION\tKIND\tRESULT\tDURATION\tDETAIL")
	for _, run := range runs {
		result := "ok"
		if !run.OK {
			result = "failed"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%dms\t%s\n",
			run.CreatedAt.Format("2006-01-02 15:04:05"),
			run.Session, run.Kind, result, run.DurationMs, run.Detail)
	}
	w.Flush()
}
