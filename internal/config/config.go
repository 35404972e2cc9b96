package config

import (
    "fmt"
    "os"
    "strconv"
    "strings"
    "time"

    "forum-bot/internal/util"
)

type Config struct {
    TelegramToken string
    TelegramDebug bool

    DatabasePath string

    AdminUsernames   []string
    InternshipChatID int64 // 0 = not configured

    SessionIdleTimeout time.Duration
    NotifyConcurrency  int

    SpreadsheetID            string
    GoogleServiceAccountJSON string

    ExportSecret  string
    HTTPAddr      string
    BasePublicURL string

    LogLevel string
}

// SheetsEnabled reports whether the Google Sheets mirror is configured.
func (c Config) SheetsEnabled() bool {
    return c.SpreadsheetID != "" && c.GoogleServiceAccountJSON != ""
}

// FromEnv reads the environment. The telegram token is checked by RequireToken
// so offline commands (export, stats) work without it.
func FromEnv() (Config, error) {
    var c Config
    c.TelegramToken = strings.TrimSpace(os.Getenv("TELEGRAM_BOT_TOKEN"))
    c.TelegramDebug = util.NormalizeBoolRU(os.Getenv("TELEGRAM_DEBUG"))

    c.DatabasePath = strings.TrimSpace(os.Getenv("DATABASE_PATH"))
    if c.DatabasePath == "" {
        c.DatabasePath = "registrations.db"
    }

    c.AdminUsernames = parseList(os.Getenv("ADMIN_USERNAMES"))

    if raw := strings.TrimSpace(os.Getenv("INTERNSHIP_CHAT_ID")); raw != "" {
        v, err := strconv.ParseInt(raw, 10, 64)
        if err != nil {
            return c, fmt.Errorf("INTERNSHIP_CHAT_ID: %w", err)
        }
        c.InternshipChatID = v
    }

    c.SessionIdleTimeout = 30 * time.Minute
    if raw := strings.TrimSpace(os.Getenv("SESSION_IDLE_TIMEOUT")); raw != "" {
        d, err := time.ParseDuration(raw)
        if err != nil {
            return c, fmt.Errorf("SESSION_IDLE_TIMEOUT: %w", err)
        }
        if d <= 0 {
            return c, fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
        }
        c.SessionIdleTimeout = d
    }

    c.NotifyConcurrency = 4
    if raw := strings.TrimSpace(os.Getenv("NOTIFY_CONCURRENCY")); raw != "" {
        n, err := strconv.Atoi(raw)
        if err != nil || n < 1 {
            return c, fmt.Errorf("NOTIFY_CONCURRENCY must be a positive integer")
        }
        c.NotifyConcurrency = n
    }

    c.SpreadsheetID = strings.TrimSpace(os.Getenv("GOOGLE_SHEETS_SPREADSHEET_ID"))
    c.GoogleServiceAccountJSON = strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
    if (c.SpreadsheetID == "") != (c.GoogleServiceAccountJSON == "") {
        return c, fmt.Errorf("GOOGLE_SHEETS_SPREADSHEET_ID and GOOGLE_SERVICE_ACCOUNT_JSON must be set together")
    }

    // empty disables the HTTP CSV export and the admin export link
    c.ExportSecret = strings.TrimSpace(os.Getenv("EXPORT_SECRET"))

    c.HTTPAddr = strings.TrimSpace(os.Getenv("HTTP_ADDR"))
    if c.HTTPAddr == "" {
        c.HTTPAddr = ":8080"
    }

    c.BasePublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("BASE_PUBLIC_URL")), "/")

    c.LogLevel = strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL")))
    if c.LogLevel == "" {
        c.LogLevel = "info"
    }

    return c, nil
}

func (c Config) RequireToken() error {
    if c.TelegramToken == "" {
        return fmt.Errorf("TELEGRAM_BOT_TOKEN is empty")
    }
    return nil
}

func parseList(raw string) []string {
    out := []string{}
    raw = strings.TrimSpace(raw)
    if raw == "" {
        return out
    }
    for _, p := range strings.Split(raw, ",") {
        p = strings.TrimSpace(p)
        if p == "" {
            continue
        }
        out = append(out, p)
    }
    return out
}
