package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/ciciliostudio/revisit/internal/logging"
	"github.com/ciciliostudio/revisit/internal/ui"
	"github.com/ciciliostudio/revisit/internal/watcher"
)

// tuiCmd opens the interactive session picker
var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Pick a saved session interactively and resume it",
	Long: `Tui shows the saved sessions in an interactive list. Choosing one
resumes it in a browser. The list refreshes automatically when sessions
are captured or deleted by other revisit invocations.`,
	Run: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println("❌ The interactive picker needs a terminal.")
		fmt.Println("   Use 'revisit sessions list' in scripts instead.")
		os.Exit(1)
	}

	store := sessionStore()
	summaries, err := store.List()
	if err != nil {
		fmt.Printf("❌ Failed to list sessions: %v\n", err)
		os.Exit(1)
	}

	model := ui.NewPickerModel("Revisit - resume a session", summaries)
	program := tea.NewProgram(*model, tea.WithAltScreen())

	// Refresh the picker when sessions change under it
	watchCtx, stopWatch := context.WithCancel(context.Background())
	defer stopWatch()

	if sw, err := watcher.New(store.Dir(), 0); err == nil {
		sw.SetChangeCallback(func(sessions []string) error {
			fresh, err := store.List()
			if err != nil {
				return err
			}
			program.Send(ui.SessionsReloadedMsg{Sessions: fresh})
			return nil
		})
		go func() {
			if err := sw.Start(watchCtx); err != nil && !errors.Is(err, context.Canceled) {
				logging.Warn("Session watcher stopped: %v", err)
			}
		}()
	} else {
		logging.Warn("Session watcher unavailable: %v", err)
	}

	result, err := program.Run()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		os.Exit(1)
	}
	stopWatch()

	final := result.(ui.PickerModel)
	if final.IsCancelled() || final.Selected() == "" {
		return
	}

	runResume(cmd, []string{final.Selected()})
}
