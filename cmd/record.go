package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ciciliostudio/revisit/internal/actions"
	"github.com/ciciliostudio/revisit/internal/session"
)

var recordAttach bool

// recordCmd restores a session and records actions onto it
var recordCmd = &cobra.Command{
	Use:   "record <name> <action>...",
	Short: "Execute actions against a session and record them for replay",
	Long: `Record restores a saved session, executes the given actions in order
while recording them, and saves the session so 'revisit replay' can run
them again later. Actions are recorded as invoked, so a failed step is
still part of the recording.

Actions are written as type:selector[:value]:
  click:#submit
  type:#email:user@example.com
  select:#country:DE
  check:#terms
  wait:#spinner-done
  wait-nav

Example:
  revisit record login type:#email:user@example.com type:#password:hunter2 click:#submit wait-nav`,
	Args: cobra.MinimumNArgs(2),
	Run:  runRecord,
}

func init() {
	rootCmd.AddCommand(recordCmd)

	recordCmd.Flags().BoolVar(&recordAttach, "attach", false, "attach to a running Chrome instead of launching one")
}

// parseActionSpec turns a type:selector[:value] argument into an action
func parseActionSpec(spec string) (session.Action, error) {
	parts := strings.SplitN(spec, ":", 3)

	kind, ok := actions.ParseKind(parts[0])
	if !ok {
		return session.Action{}, fmt.Errorf("unrecognized action type %q", parts[0])
	}

	a := session.Action{Type: string(kind)}
	if len(parts) > 1 {
		a.Selector = parts[1]
	}
	if len(parts) > 2 {
		a.Value = parts[2]
	}
	return a, nil
}

func runRecord(cmd *cobra.Command, args []string) {
	name := args[0]

	var list []session.Action
	for _, spec := range args[1:] {
		a, err := parseActionSpec(spec)
		if err != nil {
			fmt.Printf("❌ Invalid action %q: %v\n", spec, err)
			os.Exit(1)
		}
		list = append(list, a)
	}

	store := sessionStore()
	if _, err := os.Stat(store.Path(name)); err != nil {
		fmt.Printf("❌ No session named %q. Capture it first.\n", name)
		os.Exit(1)
	}
	rec := store.LoadOrCreate(name)

	remoteURL := ""
	if recordAttach {
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
		os.Exit(1)
	}
	defer stack.Close()

	fmt.Printf("🔄 Restoring session %q...\n", name)
	if err := stack.Restorer.Apply(rec); err != nil {
		fmt.Printf("❌ Restore failed: %v\n", err)
		os.Exit(1)
	}

	recorder := stack.Recorder(rec)
	recorder.Start()

	var firstErr error
	for i, a := range list {
		fmt.Printf("⏺  [%d/%d] %s %s\n", i+1, len(list), a.Type, a.Selector)
		if err := recorder.Do(a); err != nil {
			firstErr = err
			fmt.Printf("⚠️  Step failed (still recorded): %v\n", err)
		}
		// Give the page a beat between actions, like a human would
		time.Sleep(stack.Bridge.PollInterval())
	}

	recorder.Stop()

	if err := store.Save(rec); err != nil {
		fmt.Printf("❌ Failed to save session: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ %d action(s) recorded onto session %q.\n", len(list), name)
	if firstErr != nil {
		fmt.Println("⚠️  Some steps failed during recording; review before replaying.")
	}
}
