package main

import (
    "context"
    "errors"
    "fmt"
    "io"
    "os"
    "os/signal"
    "syscall"

    "github.com/spf13/cobra"

    "forum-bot/internal/admin"
    "forum-bot/internal/export"
    "forum-bot/internal/storage"
    "forum-bot/internal/tgbot"
)

var exportOut string

var exportCmd = &cobra.Command{
    Use:   "export",
    Short: "Write all registrations as CSV",
    RunE: func(cmd *cobra.Command, _ []string) error {
        store, err := storage.Open(cmd.Context(), cfg.DatabasePath)
        if err != nil {
            return err
        }
        defer store.Close()

        data, n, err := export.Build(cmd.Context(), store)
        if err != nil {
            return err
        }

        var w io.Writer = cmd.OutOrStdout()
        if exportOut != "" {
            f, err := os.Create(exportOut)
            if err != nil {
                return err
            }
            defer f.Close()
            w = f
        }
        if _, err := w.Write(data); err != nil {
            return err
        }
        logger.Info("export written", "rows", n, "out", exportOut)
        return nil
    },
}

var statsCmd = &cobra.Command{
    Use:   "stats",
    Short: "Print registration statistics",
    RunE: func(cmd *cobra.Command, _ []string) error {
        store, err := storage.Open(cmd.Context(), cfg.DatabasePath)
        if err != nil {
            return err
        }
        defer store.Close()

        st, err := store.ComputeStatistics(cmd.Context())
        if err != nil {
            return err
        }
        fmt.Fprintln(cmd.OutOrStdout(), admin.PanelText("", st))
        return nil
    },
}

var chatIDCmd = &cobra.Command{
    Use:   "chatid",
    Short: "Reply to every message with its chat id (to find the internship channel id)",
    RunE: func(cmd *cobra.Command, _ []string) error {
        if err := cfg.RequireToken(); err != nil {
            return err
        }
        bot, err := tgbot.NewBot(cfg.TelegramToken, cfg.TelegramDebug)
        if err != nil {
            return err
        }
        ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
        defer stop()

        logger.Info("chat id mode: add the bot to a group and send any message")
        err = tgbot.New(bot, tgbot.Options{ChatIDMode: true, Logger: logger}).Run(ctx)
        if errors.Is(err, context.Canceled) {
            return nil
        }
        return err
    },
}

func init() {
    exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}
