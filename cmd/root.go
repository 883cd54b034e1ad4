package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ciciliostudio/revisit/internal/config"
	"github.com/ciciliostudio/revisit/internal/logging"
)

var cfgFile string
var revisitConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "revisit",
	Short: "Revisit - resumable browser sessions",
	Long: `Revisit captures the live state of a browser page (URL, history,
cookies, storage, form fields, scroll positions) into a named session
file, and later restores the page to that state, waiting until the page
is genuinely ready before touching it.

Run 'revisit capture <name> --url <url>' to save a session, then
'revisit resume <name>' to bring it back. 'revisit tui' opens an
interactive picker over saved sessions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Assigned here rather than in the composite literal to avoid an
	// initialization cycle (runTUI transitively reads rootCmd's flags).
	rootCmd.Run = func(cmd *cobra.Command, args []string) {
		runTUI(cmd, args)
	}

	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .revisit/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "V", false, "verbose output")
	rootCmd.PersistentFlags().StringP("project", "p", ".", "project directory")
}

// initConfig reads in config file and ENV variables.
func initConfig() {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")
	projectDir, _ := rootCmd.PersistentFlags().GetString("project")

	// Initialize logging first
	if err := logging.Initialize(projectDir); err != nil {
		// Fall back to stderr if logging fails to initialize
		fmt.Fprintf(os.Stderr, "Warning: Failed to initialize logging: %v\n", err)
	} else {
		// Redirect standard log to our file logger
		logging.RedirectStandardLog()
	}

	loader := config.NewLoader(projectDir)

	var err error
	revisitConfig, err = loader.LoadOrDefault()
	if err != nil {
		logging.Warn("Failed to load config, using defaults: %v", err)
		revisitConfig = config.DefaultConfig()
	}

	if verbose {
		logging.SetLevel(logging.LevelDebug)
	} else {
		logging.SetLevel(logging.ParseLevel(revisitConfig.Log.Level))
	}
}

// projectDir returns the project directory from the global flag
func projectDir() string {
	dir, _ := rootCmd.PersistentFlags().GetString("project")
	if dir == "" {
		dir = "."
	}
	return dir
}
