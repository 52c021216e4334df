package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/space-runner/internal/config"
	"github.com/vovakirdan/space-runner/internal/platform/tui"
	"github.com/vovakirdan/space-runner/internal/questions"
	"github.com/vovakirdan/space-runner/internal/registry"
	"github.com/vovakirdan/space-runner/internal/storage"
)

// Question source flags, shared by play and serve.
var (
	flagProvider   string
	flagBank       string
	flagRedis      string
	flagCacheTTL   time.Duration
	flagDifficulty string
)

func addSourceFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "Question provider: gemini, bank (default: gemini when GEMINI_API_KEY is set)")
	cmd.Flags().StringVar(&flagBank, "bank", "", "Path to a YAML question bank (default: built-in bank)")
	cmd.Flags().StringVar(&flagRedis, "redis", "", "Redis address for the question cache (default: $REDIS_ADDR)")
	cmd.Flags().DurationVar(&flagCacheTTL, "cache-ttl", 6*time.Hour, "How long cached question pools live")
	cmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
}

// newLogger builds the logger. Without a path logs go to fallback.
func newLogger(path string, fallback io.Writer) (*log.Logger, func(), error) {
	w, closeFn := fallback, func() {}
	if path != "" {
		f, err := os.OpenFile(expandHome(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closeFn = f, func() { f.Close() }
	}

	logger := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		Prefix:          "spacerunner",
	})
	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if level, err := log.ParseLevel(lvl); err == nil {
			logger.SetLevel(level)
		}
	}
	return logger, closeFn, nil
}

func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// loadGameConfig reads the game config and applies the difficulty preset.
func loadGameConfig() (config.GameConfig, error) {
	cfg, err := config.LoadGame(flagConfig)
	if err != nil {
		return cfg, err
	}
	if flagDifficulty != "" {
		preset := config.ParsePreset(flagDifficulty)
		if preset == "" {
			return cfg, fmt.Errorf("unknown difficulty %q (want easy, normal or hard)", flagDifficulty)
		}
		config.ApplyPreset(&cfg, preset)
	}
	return cfg, nil
}

// buildProvider creates the selected question provider, wrapped in the
// Redis cache when an address is configured. The returned func releases it.
func buildProvider(seed int64, logger *log.Logger) (registry.Provider, func(), error) {
	id := flagProvider
	if id == "" {
		id = "bank"
		if os.Getenv("GEMINI_API_KEY") != "" {
			id = "gemini"
		}
	}

	if !registry.Exists(id) {
		return nil, nil, fmt.Errorf("unknown provider %q (run 'spacerunner subjects' to see available providers)", id)
	}

	provider, err := registry.Create(id, registry.Options{
		APIKey:   os.Getenv("GEMINI_API_KEY"),
		Model:    os.Getenv("GEMINI_MODEL"),
		BankPath: flagBank,
		Seed:     seed,
		Logger:   logger,
	})
	if err != nil {
		return nil, nil, err
	}

	addr := flagRedis
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		return provider, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unreachable, questions will not be cached", "addr", addr, "err", err)
		client.Close()
		return provider, func() {}, nil
	}

	logger.Info("question cache enabled", "addr", addr, "ttl", flagCacheTTL)
	cached := questions.NewCachedProvider(provider, client, flagCacheTTL, logger)
	return cached, func() { client.Close() }, nil
}

// openStore opens the results database. Play continues without one.
func openStore(logger *log.Logger) *storage.Store {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		logger.Warn("could not open results database", "path", flagDBPath, "err", err)
		fmt.Fprintf(os.Stderr, "Warning: could not open results database: %v\n", err)
		return nil
	}
	return store
}

// asStore keeps a nil *storage.Store from becoming a non-nil interface.
func asStore(s *storage.Store) tui.Store {
	if s == nil {
		return nil
	}
	return s
}

// terminalSize returns the size of stdout, or 80x24 when it is not a terminal.
func terminalSize() (int, int) {
	if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
		return w, h
	}
	return 80, 24
}

// defaultPlayer is the OS user, used when --player is not given.
func defaultPlayer() string {
	for _, key := range []string{"SPACERUNNER_PLAYER", "USER", "USERNAME"} {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	return "player"
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
