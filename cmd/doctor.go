package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ciciliostudio/revisit/internal/engine"
	"github.com/ciciliostudio/revisit/internal/journal"
)

// doctorCmd represents the doctor command
var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Verify the revisit environment",
	Long: `Doctor runs health checks on the revisit environment.

This command will:
• Validate the configuration
• Check that a Chrome binary can be found
• Check that the session directory is writable
• Check that the journal database can be opened
• Scan for attachable Chrome debugger instances

Example:
  revisit doctor`,
	Run: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

// runDoctor executes the doctor command
func runDoctor(cmd *cobra.Command, args []string) {
	fmt.Println("🏥 Revisit Health Check")
	fmt.Println("=======================")
	fmt.Println()

	allPassed := true

	// Check 1: Configuration
	fmt.Print("🔍 Validating configuration... ")
	if err := revisitConfig.Validate(); err != nil {
		fmt.Println("❌ FAILED")
		fmt.Printf("   %v\n", err)
		allPassed = false
	} else {
		fmt.Println("✅ PASSED")
	}

	// Check 2: Chrome binary
	fmt.Print("🌐 Locating Chrome... ")
	chromePath := revisitConfig.Browser.ChromePath
	if chromePath == "" {
		var err error
		chromePath, err = engine.FindChrome()
		if err != nil {
			fmt.Println("❌ FAILED")
			fmt.Printf("   %v\n", err)
			fmt.Println("   Install Chrome or set browser.chrome_path in .revisit/config.yaml.")
			allPassed = false
			chromePath = ""
		}
	}
	if chromePath != "" {
		fmt.Println("✅ PASSED")
		fmt.Printf("   %s\n", chromePath)
	}

	// Check 3: Session directory writable
	fmt.Print("📁 Checking session directory... ")
	store := sessionStore()
	if err := os.MkdirAll(store.Dir(), 0755); err != nil {
		fmt.Println("❌ FAILED")
		fmt.Printf("   Cannot create %s: %v\n", store.Dir(), err)
		allPassed = false
	} else {
		probe := filepath.Join(store.Dir(), ".doctor-probe")
		if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
			fmt.Println("❌ FAILED")
			fmt.Printf("   %s is not writable: %v\n", store.Dir(), err)
			allPassed = false
		} else {
			os.Remove(probe)
			fmt.Println("✅ PASSED")
			fmt.Printf("   %s\n", store.Dir())
		}
	}

	// Check 4: Journal database
	fmt.Print("🗄️  Checking journal database... ")
	if !revisitConfig.Journal.Enabled {
		fmt.Println("⏭️  SKIPPED (disabled)")
	} else {
		path := revisitConfig.Journal.Path
		if path == "" {
			path = filepath.Join(".revisit", "journal.db")
		}
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectDir(), path)
		}
		j, err := journal.Open(path)
		if err != nil {
			fmt.Println("❌ FAILED")
			fmt.Printf("   %v\n", err)
			allPassed = false
		} else {
			j.Close()
			fmt.Println("✅ PASSED")
			fmt.Printf("   %s\n", path)
		}
	}

	// Check 5: Attachable debugger instances (informational)
	fmt.Print("🔌 Scanning for Chrome debugger instances... ")
	results, err := engine.ScanForDebugger()
	if err != nil || len(results) == 0 {
		fmt.Println("ℹ️  NONE")
		fmt.Println("   Start Chrome with --remote-debugging-port=9222 to use --attach.")
	} else {
		total := 0
		for _, result := range results {
			total += len(result.Targets)
		}
		fmt.Printf("✅ FOUND %d target(s) on %d port(s)\n", total, len(results))
	}

	fmt.Println()
	if allPassed {
		fmt.Println("✅ All checks passed.")
	} else {
		fmt.Println("❌ Some checks failed. Fix the issues above and re-run 'revisit doctor'.")
		os.Exit(1)
	}
}
