package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ciciliostudio/revisit/internal/engine"
)

// attachCmd lists running Chrome debugger targets
var attachCmd = &cobra.Command{
	Use:   "attach",
	Short: "List running Chrome instances revisit can attach to",
	Long: `Attach scans the common Chrome remote-debugging ports (9222-9225, 9229)
and lists the live page targets found there. Capture, resume and replay
accept --attach to use the first live target instead of launching a new
browser.

Start Chrome with remote debugging enabled first:
  chrome --remote-debugging-port=9222`,
	Run: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) {
	results, err := engine.ScanForDebugger()
	if err != nil || len(results) == 0 {
		fmt.Println("❌ No running Chrome debugger found.")
		fmt.Println("   Start Chrome with: chrome --remote-debugging-port=9222")
		os.Exit(1)
	}

	for _, result := range results {
		fmt.Printf("Port %d:\n", result.Port)
		for _, target := range result.Targets {
			if target.Type != "" && target.Type != "page" {
				continue
			}
			status := "live"
			if err := engine.ProbeTarget(target); err != nil {
				status = "stale"
			}
			title := target.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  [%s] %s\n        %s\n", status, title, target.URL)
		}
	}
}

// attachTarget finds the websocket URL of the first live debugger target
func attachTarget() (string, error) {
	return engine.FindAttachableTarget()
}
