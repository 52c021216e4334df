// spacerunner is a terminal arcade runner with a quiz after every segment.
//
// Usage:
//
//	spacerunner play              - Play in the terminal
//	spacerunner serve             - Start SSH server for remote play
//	spacerunner subjects          - List subjects and question providers
//	spacerunner stats [player]    - Browse lifetime stats and achievements
//	spacerunner history [player]  - Print recent sessions
//
// Global flags:
//
//	--fps <rate>       - Set tick rate (default: 60)
//	--seed <value>     - Set RNG seed for reproducible runs
//	--db <path>        - Set database path (default: ~/.spacerunner/runner.db)
//	--config <path>    - Custom game config YAML
//	--log-file <path>  - Write logs to a file
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	// Import providers to register them
	_ "github.com/vovakirdan/space-runner/internal/questions"
)

var (
	// Global flags
	flagFPS     int
	flagSeed    int64
	flagDBPath  string
	flagConfig  string
	flagLogFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "spacerunner",
	Short: "Space Runner - dodge, collect, answer",
	Long: `Space Runner is a terminal arcade runner. Every 30 second flight
segment ends with a quiz question; correct answers and collected stars
add up to your score, and every five correct answers earn an auto-win token.

Available commands:
  play      - Play in this terminal
  serve     - Start SSH server for remote play
  subjects  - List subjects and question providers
  stats     - Browse lifetime stats and achievements
  history   - Print recent sessions

Examples:
  spacerunner play --subject Physics --grade 10
  spacerunner play --provider gemini --redis localhost:6379
  spacerunner serve --ssh :2222
  spacerunner stats alice`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// .env is optional; real environment variables win.
		//nolint:errcheck // Missing .env is fine
		godotenv.Load()
	},
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().IntVar(&flagFPS, "fps", 60, "Tick rate (frames per second)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random based on time)")
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", "~/.spacerunner/runner.db", "Path to results database")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom game config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Write logs to this file")

	// Add subcommands
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(subjectsCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(historyCmd)
}
