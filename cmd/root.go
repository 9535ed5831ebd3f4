package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/lernbuddy/internal/config"
	"github.com/abhisek/lernbuddy/internal/logger"
	"github.com/abhisek/lernbuddy/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "lernbuddy",
	Short:        "Adaptive test and exercise engine",
	Long:         "Lern-Buddy generates multiple-choice tests, flashcards and study plans tailored to each learner's detected learning style.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to YAML config file (overrides LERNBUDDY_CONFIG env var)")
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides config and LERNBUDDY_DB env var)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// runtime is what every command needs: configuration, a logger and the
// opened store. Close releases the store and flushes the logger.
type runtime struct {
	cfg   *config.Config
	log   *logger.Logger
	store *store.Store
}

func (r *runtime) Close() {
	r.store.Close()
	r.log.Sync()
}

func openRuntime(cmd *cobra.Command) (*runtime, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, err
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return &runtime{cfg: cfg, log: log, store: st}, nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then the configured path, then LERNBUDDY_DB or the default XDG path.
func resolveDBPath(cmd *cobra.Command, cfg *config.Config) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	if cfg.Database.Path != "" {
		return cfg.Database.Path, store.EnsureDir(cfg.Database.Path)
	}
	return store.DefaultDBPath()
}
