package main

import (
    "context"
    "log/slog"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestRootCmd_Subcommands(t *testing.T) {
    names := map[string]bool{}
    for _, c := range rootCmd.Commands() {
        names[c.Name()] = true
    }
    for _, want := range []string{"serve", "export", "stats", "chatid"} {
        assert.True(t, names[want], want)
    }
    assert.NotNil(t, exportCmd.Flags().Lookup("out"))
    assert.NotNil(t, rootCmd.PersistentFlags().Lookup("form"))
    assert.NotNil(t, rootCmd.PersistentFlags().Lookup("db"))
}

func TestNewLogger_Level(t *testing.T) {
    ctx := context.Background()

    l := newLogger("debug")
    assert.True(t, l.Enabled(ctx, slog.LevelDebug))

    l = newLogger("warn")
    assert.False(t, l.Enabled(ctx, slog.LevelInfo))
    assert.True(t, l.Enabled(ctx, slog.LevelWarn))

    l = newLogger("nonsense")
    assert.True(t, l.Enabled(ctx, slog.LevelInfo))
    assert.False(t, l.Enabled(ctx, slog.LevelDebug))
}

func TestSetup_DBFlagOverridesEnv(t *testing.T) {
    t.Setenv("DATABASE_PATH", "from-env.db")
    t.Setenv("GOOGLE_SHEETS_SPREADSHEET_ID", "")
    t.Setenv("GOOGLE_SERVICE_ACCOUNT_JSON", "")
    t.Setenv("INTERNSHIP_CHAT_ID", "")
    t.Setenv("SESSION_IDLE_TIMEOUT", "")
    t.Setenv("NOTIFY_CONCURRENCY", "")
    dbPath = "override.db"
    formPath = ""
    t.Cleanup(func() { dbPath = "" })

    require.NoError(t, setup(rootCmd, nil))
    assert.Equal(t, "override.db", cfg.DatabasePath)
    assert.NotEmpty(t, form.Universities)
}
