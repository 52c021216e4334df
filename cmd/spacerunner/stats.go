package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/space-runner/internal/platform/tui"
	"github.com/vovakirdan/space-runner/internal/storage"
)

var flagLimit int

var statsCmd = &cobra.Command{
	Use:   "stats [player]",
	Short: "Browse lifetime stats and achievements",
	Long: `Open the stats board: recent sessions, achievements and the leaderboard.

Examples:
  spacerunner stats
  spacerunner stats alice`,
	Args: cobra.MaximumNArgs(1),
	Run:  runStats,
}

var historyCmd = &cobra.Command{
	Use:   "history [player]",
	Short: "Print recent sessions",
	Long: `Print a player's lifetime totals and most recent sessions.

Examples:
  spacerunner history
  spacerunner history alice --limit 20`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	historyCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of sessions to show")
}

func playerArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return defaultPlayer()
}

func mustOpenStore() *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		fail("opening results database: %v", err)
	}
	return store
}

func runStats(_ *cobra.Command, args []string) {
	store := mustOpenStore()
	defer store.Close()

	width, height := terminalSize()
	if err := tui.RunStatsBoard(store, playerArg(args), width, height); err != nil {
		store.Close()
		fail("running stats board: %v", err)
	}
}

func runHistory(_ *cobra.Command, args []string) {
	player := playerArg(args)
	store := mustOpenStore()
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	totals, err := store.Player(ctx, player)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving player: %v\n", err)
		return
	}
	sessions, err := store.RecentSessions(ctx, player, flagLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving sessions: %v\n", err)
		return
	}

	fmt.Printf("Pilot %s\n", player)
	fmt.Println()

	if totals.SessionsPlayed == 0 {
		fmt.Println("No sessions recorded yet.")
		fmt.Println()
		fmt.Println("Play 'spacerunner play' to log the first one!")
		return
	}

	fmt.Printf("  Points %d  |  Answered %d  |  Correct %d  |  Best streak %d  |  Tokens %d\n",
		totals.Points, totals.TotalQuizzesAnswered, totals.TotalCorrect, totals.MaxCorrectStreak, totals.AutoWinTokens)
	fmt.Println()

	// Print header
	fmt.Printf("  %-16s  %-20s  %-6s  %-7s  %-6s  %s\n", "Date", "Subject", "Grade", "Points", "Right", "End")
	fmt.Printf("  %-16s  %-20s  %-6s  %-7s  %-6s  %s\n", "----", "-------", "-----", "------", "-----", "---")

	for _, s := range sessions {
		fmt.Printf("  %-16s  %-20s  %-6s  %-7d  %-6s  %s\n",
			s.CreatedAt.Format("2006-01-02 15:04"), s.Subject, s.Grade, s.TotalPoints,
			fmt.Sprintf("%d/%d", s.CorrectAnswers, s.QuestionsAnswered), s.EndReason)
	}

	achievements, err := store.Achievements(ctx, player)
	if err == nil && len(achievements) > 0 {
		fmt.Println()
		fmt.Println("Achievements:")
		for _, a := range achievements {
			fmt.Printf("  %-24s  %s\n", a.Title, a.UnlockedAt.Format("2006-01-02"))
		}
	}
}
