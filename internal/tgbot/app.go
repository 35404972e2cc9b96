package tgbot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/sync/errgroup"

	"forum-bot/internal/admin"
	"forum-bot/internal/config"
	"forum-bot/internal/dialog"
)

const textFailure = "⚠️ Произошла ошибка. Пожалуйста, попробуйте позже."

type Options struct {
	Engine *dialog.Engine
	Admin  *admin.Service
	Form   config.Form
	// Workers is the number of update shards. Updates of one user always
	// land on the same shard, so they are handled in arrival order.
	Workers int
	// ChatIDMode answers every message with the chat id and type instead of
	// running the registration dialog.
	ChatIDMode bool
	Logger     *slog.Logger
}

type App struct {
	bot    *tgbotapi.BotAPI
	engine *dialog.Engine
	admin  *admin.Service
	form   config.Form
	opts   Options
	log    *slog.Logger
}

// NewBot connects to the Bot API with token.
func NewBot(token string, debug bool) (*tgbotapi.BotAPI, error) {
	b, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	b.Debug = debug
	return b, nil
}

func New(bot *tgbotapi.BotAPI, opts Options) *App {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &App{
		bot:    bot,
		engine: opts.Engine,
		admin:  opts.Admin,
		form:   opts.Form,
		opts:   opts,
		log:    l.With("component", "tgbot"),
	}
}

// Run long-polls updates until ctx is cancelled. It returns once every
// update already taken off the poller has been handled.
func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)
	a.log.Info("polling updates", "bot", a.bot.Self.UserName, "workers", a.opts.Workers)
	return a.serve(ctx, updates, a.bot.StopReceivingUpdates)
}

// serve shards updates by sender until ctx is done, then calls stop and
// drains what is still buffered. Updates in the buffer are already
// confirmed to Telegram, so workers finish them on a context that outlives ctx.
func (a *App) serve(ctx context.Context, updates <-chan tgbotapi.Update, stop func()) error {
	work := context.WithoutCancel(ctx)

	shards := make([]chan tgbotapi.Update, a.opts.Workers)
	var g errgroup.Group
	for i := range shards {
		ch := make(chan tgbotapi.Update, 64)
		shards[i] = ch
		g.Go(func() error {
			for upd := range ch {
				a.handleUpdate(work, upd)
			}
			return nil
		})
	}
	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		_ = g.Wait()
	}()

	route := func(upd tgbotapi.Update) {
		id := senderID(upd)
		if id < 0 {
			id = -id
		}
		shards[id%int64(len(shards))] <- upd
	}

	for {
		select {
		case <-ctx.Done():
			stop()
			for {
				select {
				case upd, ok := <-updates:
					if !ok {
						return ctx.Err()
					}
					route(upd)
				default:
					a.log.Info("update loop drained")
					return ctx.Err()
				}
			}
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			route(upd)
		}
	}
}

func senderID(upd tgbotapi.Update) int64 {
	if from := upd.SentFrom(); from != nil {
		return from.ID
	}
	return 0
}

func (a *App) handleUpdate(ctx context.Context, upd tgbotapi.Update) {
	var err error
	switch {
	case upd.Message != nil:
		err = a.handleMessage(ctx, upd.Message)
	case upd.CallbackQuery != nil:
		err = a.handleCallback(ctx, upd.CallbackQuery)
	}
	if err != nil {
		a.log.Error("handle update", "update_id", upd.UpdateID, "user_id", senderID(upd), "err", err)
	}
}

// Sender delivers plain messages for the notification fan-out. It only
// needs the bot, so it can be built before the App it feeds.
type Sender struct {
	bot *tgbotapi.BotAPI
}

func NewSender(bot *tgbotapi.BotAPI) *Sender {
	return &Sender{bot: bot}
}

func (s *Sender) SendText(ctx context.Context, chatID int64, text string) error {
	return send(ctx, s.bot, tgbotapi.NewMessage(chatID, text))
}

func send(ctx context.Context, bot *tgbotapi.BotAPI, c tgbotapi.Chattable) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := bot.Send(c)
	return err
}

// ---------- Message handling ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	if m.From == nil || m.Chat == nil {
		return nil
	}
	if a.opts.ChatIDMode {
		return a.replyChatID(ctx, m)
	}
	// the bot also sits in notification groups; it only talks in private
	if !m.Chat.IsPrivate() {
		return nil
	}

	u := dialog.User{ID: m.From.ID, ChatID: m.Chat.ID, Username: m.From.UserName, FirstName: m.From.FirstName}
	in := dialog.Input{Kind: dialog.InputText, Text: m.Text}

	if m.IsCommand() {
		switch m.Command() {
		case "start":
			in = dialog.Input{Kind: dialog.InputStart}
		case "restart":
			in = dialog.Input{Kind: dialog.InputRestart}
		case "cancel":
			in = dialog.Input{Kind: dialog.InputCancel}
		case "admin":
			resp, err := a.admin.Command(ctx, identity(u))
			if err != nil {
				a.fail(ctx, u.ChatID, err)
				return err
			}
			return a.sendAdmin(ctx, u.ChatID, 0, resp)
		default:
			return send(ctx, a.bot, tgbotapi.NewMessage(u.ChatID, dialog.HelpText(a.form.Organization)))
		}
	}

	return a.dispatch(ctx, u, in, 0)
}

// dispatch runs one dialog event and delivers the reply. editID is the
// message whose button was pressed, 0 for typed input.
func (a *App) dispatch(ctx context.Context, u dialog.User, in dialog.Input, editID int) error {
	reply, err := a.engine.Handle(ctx, u, in)
	if err != nil {
		a.fail(ctx, u.ChatID, err)
		return err
	}
	if reply.Admin {
		resp, err := a.admin.Panel(ctx, identity(u), false)
		if err != nil {
			a.fail(ctx, u.ChatID, err)
			return err
		}
		return a.sendAdmin(ctx, u.ChatID, 0, resp)
	}
	for _, msg := range reply.Messages {
		if err := send(ctx, a.bot, renderMessage(u.ChatID, editID, msg)); err != nil {
			return fmt.Errorf("send to %d: %w", u.ChatID, err)
		}
	}
	return nil
}

func (a *App) fail(ctx context.Context, chatID int64, cause error) {
	a.log.Error("request failed", "chat_id", chatID, "err", cause)
	if err := send(ctx, a.bot, tgbotapi.NewMessage(chatID, textFailure)); err != nil {
		a.log.Warn("send failure notice", "chat_id", chatID, "err", err)
	}
}

func (a *App) replyChatID(ctx context.Context, m *tgbotapi.Message) error {
	text := fmt.Sprintf("Chat ID: %d\nТип чата: %s", m.Chat.ID, m.Chat.Type)
	if m.Chat.Title != "" {
		text += "\nНазвание: " + m.Chat.Title
	}
	msg := tgbotapi.NewMessage(m.Chat.ID, text)
	msg.ReplyToMessageID = m.MessageID
	return send(ctx, a.bot, msg)
}

// ---------- Callback handling ----------

func (a *App) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q.From == nil || q.Message == nil || q.Message.Chat == nil {
		_, err := a.bot.Request(tgbotapi.NewCallback(q.ID, ""))
		return err
	}
	// chat id mode has no dialog or admin panel behind old buttons
	if a.opts.ChatIDMode {
		_, err := a.bot.Request(tgbotapi.NewCallback(q.ID, ""))
		return err
	}
	u := dialog.User{ID: q.From.ID, ChatID: q.Message.Chat.ID, Username: q.From.UserName, FirstName: q.From.FirstName}
	editID := q.Message.MessageID

	if strings.HasPrefix(q.Data, admin.Prefix) {
		resp, err := a.admin.Callback(ctx, identity(u), q.Data)
		if err != nil {
			_, _ = a.bot.Request(tgbotapi.NewCallback(q.ID, ""))
			a.fail(ctx, u.ChatID, err)
			return err
		}
		if _, err := a.bot.Request(callbackAnswer(q.ID, resp)); err != nil {
			a.log.Warn("answer callback", "user_id", u.ID, "err", err)
		}
		if resp.Alert != "" {
			return nil
		}
		return a.sendAdmin(ctx, u.ChatID, editID, resp)
	}

	// ack
	if _, err := a.bot.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		a.log.Warn("answer callback", "user_id", u.ID, "err", err)
	}
	return a.dispatch(ctx, u, dialog.Input{Kind: dialog.InputChoice, Text: q.Data}, editID)
}

func (a *App) sendAdmin(ctx context.Context, chatID int64, editID int, resp admin.Response) error {
	for _, c := range renderAdmin(chatID, editID, resp) {
		if err := send(ctx, a.bot, c); err != nil {
			return fmt.Errorf("send admin view to %d: %w", chatID, err)
		}
	}
	return nil
}

func identity(u dialog.User) admin.Identity {
	return admin.Identity{ID: u.ID, ChatID: u.ChatID, Username: u.Username}
}
