package main

import (
    "context"
    "net/http"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/spf13/cobra"

    "forum-bot/internal/access"
    "forum-bot/internal/admin"
    "forum-bot/internal/dialog"
    "forum-bot/internal/metrics"
    "forum-bot/internal/notify"
    "forum-bot/internal/server"
    "forum-bot/internal/session"
    "forum-bot/internal/sheets"
    "forum-bot/internal/storage"
    "forum-bot/internal/tgbot"
)

const updateWorkers = 8

var serveCmd = &cobra.Command{
    Use:   "serve",
    Short: "Run the Telegram bot and the HTTP server",
    RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
    if err := cfg.RequireToken(); err != nil {
        return err
    }

    ctx, cancel := context.WithCancel(cmd.Context())
    defer cancel()

    store, err := storage.Open(ctx, cfg.DatabasePath)
    if err != nil {
        return err
    }
    defer store.Close()

    bot, err := tgbot.NewBot(cfg.TelegramToken, cfg.TelegramDebug)
    if err != nil {
        return err
    }

    // optional sheet mirror; kept as interface values only when configured
    var (
        notifyMirror notify.Mirror
        adminMirror  admin.Mirror
    )
    if cfg.SheetsEnabled() {
        sh, err := sheets.New(ctx, cfg.GoogleServiceAccountJSON, cfg.SpreadsheetID)
        if err != nil {
            return err
        }
        notifyMirror, adminMirror = sh, sh
        logger.Info("sheet mirror enabled", "spreadsheet", sh.SpreadsheetID())
    }

    m := metrics.New(prometheus.DefaultRegisterer)
    admins := access.NewAllowlist(cfg.AdminUsernames)
    if admins.Len() == 0 {
        logger.Warn("ADMIN_USERNAMES is empty, nobody receives registration notices")
    }

    dispatcher := notify.New(tgbot.NewSender(bot), store, notify.Options{
        InternshipChatID: cfg.InternshipChatID,
        Concurrency:      cfg.NotifyConcurrency,
        Mirror:           notifyMirror,
        Metrics:          m,
        Logger:           logger,
    })

    engine := dialog.New(dialog.Deps{
        Sessions: session.NewStore(cfg.SessionIdleTimeout),
        Registry: store,
        Admins:   admins,
        Form:     form,
        Notifier: dispatcher,
        Metrics:  m,
        Logger:   logger,
    })

    panel := admin.New(store, admins, admin.Options{
        Mirror:        adminMirror,
        ExportSecret:  cfg.ExportSecret,
        BasePublicURL: cfg.BasePublicURL,
        Logger:        logger,
    })

    app := tgbot.New(bot, tgbot.Options{
        Engine:  engine,
        Admin:   panel,
        Form:    form,
        Workers: updateWorkers,
        Logger:  logger,
    })

    httpSrv := server.New(store, server.Options{
        Addr:         cfg.HTTPAddr,
        ExportSecret: cfg.ExportSecret,
        Gatherer:     prometheus.DefaultGatherer,
        Logger:       logger,
    })

    // Start HTTP server
    go func() {
        logger.Info("HTTP listening", "addr", cfg.HTTPAddr)
        if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
            logger.Error("http server", "err", err)
            cancel()
        }
    }()

    // Start Telegram
    appDone := make(chan struct{})
    go func() {
        defer close(appDone)
        if err := app.Run(ctx); err != nil && ctx.Err() == nil {
            logger.Error("bot stopped", "err", err)
        }
        cancel()
    }()

    // Graceful shutdown
    sig := make(chan os.Signal, 1)
    signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
    select {
    case <-sig:
    case <-ctx.Done():
    }
    logger.Info("shutting down...")

    cancel()
    ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel2()
    _ = httpSrv.Shutdown(ctxTimeout)
    // no Handle call may start a notification once Run has drained
    <-appDone
    engine.Wait()

    logger.Info("bye")
    return nil
}
