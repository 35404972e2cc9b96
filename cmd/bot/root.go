package main

import (
    "fmt"
    "log/slog"
    "os"
    "strings"

    "github.com/joho/godotenv"
    "github.com/spf13/cobra"

    "forum-bot/internal/config"
)

var (
    formPath string
    dbPath   string

    cfg    config.Config
    form   config.Form
    logger *slog.Logger
)

var rootCmd = &cobra.Command{
    Use:   "bot",
    Short: "Telegram registration bot for the forum",
    Long: `Runs the forum registration bot. Without a subcommand it serves the
Telegram dialog and the HTTP surface (health, metrics, CSV export).`,
    SilenceUsage:      true,
    PersistentPreRunE: setup,
    RunE:              runServe,
}

func init() {
    rootCmd.PersistentFlags().StringVar(&formPath, "form", "",
        "YAML form catalog (universities, courses, consent text, organization)")
    rootCmd.PersistentFlags().StringVar(&dbPath, "db", "",
        "path to the SQLite database (overrides DATABASE_PATH)")

    rootCmd.AddCommand(serveCmd, exportCmd, statsCmd, chatIDCmd)
}

// setup loads .env, the environment and the form catalog, and builds the logger.
func setup(cmd *cobra.Command, _ []string) error {
    _ = godotenv.Load()

    var err error
    cfg, err = config.FromEnv()
    if err != nil {
        return fmt.Errorf("config: %w", err)
    }
    if dbPath != "" {
        cfg.DatabasePath = dbPath
    }

    form, err = config.LoadForm(formPath)
    if err != nil {
        return err
    }

    logger = newLogger(cfg.LogLevel)
    slog.SetDefault(logger)
    return nil
}

func newLogger(level string) *slog.Logger {
    var lvl slog.Level
    if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
        lvl = slog.LevelInfo
    }
    return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
