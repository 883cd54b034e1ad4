package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ciciliostudio/revisit/internal/journal"
	"github.com/ciciliostudio/revisit/internal/logging"
	"github.com/ciciliostudio/revisit/internal/session"
	"github.com/ciciliostudio/revisit/internal/state"
)

var (
	captureURL       string
	captureAttach    bool
	captureSelectors []string
	captureTrack     []string
)

// captureCmd saves the current state of a page as a named session
var captureCmd = &cobra.Command{
	Use:   "capture <name>",
	Short: "Capture a browser page into a named session",
	Long: `Capture navigates to a URL (or attaches to an already-running Chrome),
waits for the page to settle, and saves its state (URL, cookies, storage,
form fields, scroll positions) as a named session under .revisit/sessions.

Examples:
  revisit capture login --url https://app.example.com/login
  revisit capture dashboard --attach
  revisit capture checkout --url https://shop.example.com --ready-selector "#cart"`,
	Args: cobra.ExactArgs(1),
	Run:  runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)

	captureCmd.Flags().StringVar(&captureURL, "url", "", "URL to capture (required unless --attach)")
	captureCmd.Flags().BoolVar(&captureAttach, "attach", false, "attach to a running Chrome instead of launching one")
	captureCmd.Flags().StringSliceVar(&captureSelectors, "ready-selector", nil, "CSS selector that must exist before the session is considered ready")
	captureCmd.Flags().StringSliceVar(&captureTrack, "track", nil, "CSS selector of an element whose scroll position should be tracked")
}

func runCapture(cmd *cobra.Command, args []string) {
	name := args[0]
	started := time.Now()

	if captureURL == "" && !captureAttach {
		fmt.Println("❌ Either --url or --attach is required.")
		os.Exit(1)
	}
	if captureURL != "" {
		if err := state.ValidateURL(captureURL); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
	}

	j := openJournal()
	if j != nil {
		defer j.Close()
	}

	remoteURL := ""
	if captureAttach {
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
		recordRun(j, name, journal.KindCapture, false, err.Error(), started)
		os.Exit(1)
	}
	defer stack.Close()

	store := sessionStore()
	rec := store.LoadOrCreate(name)

	for _, sel := range captureSelectors {
		if err := state.ValidateSelector(sel); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		rec.AddReadyCondition(session.ConditionSelector, sel, 0)
	}
	for _, sel := range captureTrack {
		if err := state.ValidateSelector(sel); err != nil {
			fmt.Printf("❌ %v\n", err)
			os.Exit(1)
		}
		// Seeding the entry makes captureScroll refresh its offsets
		rec.SetScroll(sel, 0, 0)
	}

	if captureURL != "" {
		fmt.Printf("🌐 Navigating to %s...\n", captureURL)
		if err := stack.Browser.Navigate(captureURL); err != nil {
			fmt.Printf("❌ %v\n", err)
			recordRun(j, name, journal.KindCapture, false, err.Error(), started)
			os.Exit(1)
		}
		stack.Ready.WaitForPageReady(rec)
	}

	fmt.Println("📸 Capturing page state...")
	if err := stack.Extractor.Capture(rec); err != nil {
		fmt.Printf("❌ Capture failed: %v\n", err)
		recordRun(j, name, journal.KindCapture, false, err.Error(), started)
		os.Exit(1)
	}

	if err := store.Save(rec); err != nil {
		fmt.Printf("❌ Failed to save session: %v\n", err)
		recordRun(j, name, journal.KindCapture, false, err.Error(), started)
		os.Exit(1)
	}

	logging.Info("Captured session %q at %s", name, rec.CurrentURL)
	recordRun(j, name, journal.KindCapture, true, rec.CurrentURL, started)

	fmt.Printf("✅ Session %q saved (%s)\n", name, rec.CurrentURL)
	fmt.Printf("   %d cookie(s), %d form field(s), %d scroll position(s)\n",
		len(rec.Cookies), len(rec.FormFields), len(rec.ScrollPosition))
}
