package main

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/space-runner/internal/core"
	"github.com/vovakirdan/space-runner/internal/platform/tui"
)

var (
	flagSubject   string
	flagGrade     string
	flagQuestions int
	flagPlayer    string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in this terminal",
	Long: `Start a session in this terminal. Pick a level, grade, subject and the
number of questions in the lobby, then fly.

Controls:
  Left/Right, A/D  - Change lane
  1-4              - Answer (or Up/Down + Enter)
  X                - Spend an auto-win token
  Enter            - Continue after an answer
  R / B / S        - Replay / lobby / retry save (result screen)
  Tab              - Stats board (lobby)
  Q/Ctrl+C         - Quit

Question providers:
  bank    - Built-in YAML bank, or --bank for your own
  gemini  - Generated by Gemini, needs GEMINI_API_KEY

Examples:
  spacerunner play
  spacerunner play --subject Chemistry --grade 9 --questions 10
  spacerunner play --difficulty hard
  spacerunner play --provider gemini --redis localhost:6379
  spacerunner play --bank ./my-bank.yaml --log-file ~/.spacerunner/play.log`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	addSourceFlags(playCmd)
	playCmd.Flags().StringVar(&flagSubject, "subject", "", "Preselected subject")
	playCmd.Flags().StringVar(&flagGrade, "grade", "", "Preselected grade (6-12 or University)")
	playCmd.Flags().IntVar(&flagQuestions, "questions", 0, "Questions per session (default from config)")
	playCmd.Flags().StringVar(&flagPlayer, "player", "", "Player name for saved results (default: $USER)")
}

func runPlay(_ *cobra.Command, _ []string) {
	// The alt screen owns the terminal, so logs only go to a file.
	logger, closeLog, err := newLogger(flagLogFile, io.Discard)
	if err != nil {
		fail("%v", err)
	}
	defer closeLog()

	gameCfg, err := loadGameConfig()
	if err != nil {
		fail("%v", err)
	}

	seed := flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	provider, closeProvider, err := buildProvider(seed, logger)
	if err != nil {
		fail("%v", err)
	}
	defer closeProvider()

	store := openStore(logger)
	if store != nil {
		defer store.Close()
	}

	player := flagPlayer
	if player == "" {
		player = defaultPlayer()
	}

	width, height := terminalSize()
	logger.Info("starting", "player", player, "provider", provider.ID(), "seed", seed)

	runErr := tui.Run(tui.Options{
		Game: gameCfg,
		Runtime: core.RuntimeConfig{
			ScreenW:  width,
			ScreenH:  height,
			TickRate: flagFPS,
			Seed:     seed,
			PlayerID: player,
		},
		Questions:     provider,
		Store:         asStore(store),
		Logger:        logger,
		Subject:       flagSubject,
		Grade:         flagGrade,
		QuestionCount: flagQuestions,
	})
	if runErr != nil {
		logger.Error("tui failed", "err", runErr)
		fail("running game: %v", runErr)
	}
}
