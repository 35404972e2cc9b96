// Package admin builds the organizer panel: statistics, the participant
// listing, CSV export and the sheet resync.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"forum-bot/internal/access"
	"forum-bot/internal/export"
	"forum-bot/internal/models"
	"forum-bot/internal/util"
)

// Callback payloads. All of them share the "admin_" prefix.
const (
	Prefix       = "admin_"
	ActionList   = "admin_list_all"
	ActionStats  = "admin_refresh"
	ActionExport = "admin_export"
	ActionSync   = "admin_sync"
	ActionBack   = "admin_back"
)

const listLimit = 10

type Store interface {
	ComputeStatistics(ctx context.Context) (models.Statistics, error)
	ListRegistrations(ctx context.Context) ([]models.Registration, error)
	RegisterAdminChannel(ctx context.Context, userID int64, username string, chatID int64) error
}

// Mirror is the optional spreadsheet copy of the registrations.
type Mirror interface {
	SyncRegistrations(ctx context.Context, regs []models.Registration) error
	ListUserIDs(ctx context.Context) ([]int64, error)
}

type Identity struct {
	ID       int64
	ChatID   int64
	Username string
}

type Button struct {
	Label string
	Data  string
}

type Document struct {
	Name    string
	Data    []byte
	Caption string
}

// Response is what the transport shows. Alert and Notice answer the pressed
// button; Alert pops up a dialog and suppresses everything else.
type Response struct {
	Text     string
	Buttons  []Button // one per row
	Edit     bool
	Document *Document
	Alert    string
	Notice   string
}

type Options struct {
	Mirror        Mirror
	ExportSecret  string
	BasePublicURL string
	Logger        *slog.Logger
	Now           func() time.Time
}

type Service struct {
	store  Store
	admins access.Allowlist
	opts   Options
	log    *slog.Logger
}

func New(store Store, admins access.Allowlist, opts Options) *Service {
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{store: store, admins: admins, opts: opts, log: l.With("component", "admin")}
}

func (s *Service) IsAdmin(username string) bool {
	return s.admins.IsPrivileged(username)
}

// Command answers /admin.
func (s *Service) Command(ctx context.Context, who Identity) (Response, error) {
	if !s.IsAdmin(who.Username) {
		return Response{Text: "❌ У вас нет прав администратора.\n\nДля регистрации на форум используйте команду /start"}, nil
	}
	s.touch(ctx, who)
	return s.Panel(ctx, who, false)
}

// Panel renders the statistics view. edit replaces the message the admin
// pressed a button on.
func (s *Service) Panel(ctx context.Context, who Identity, edit bool) (Response, error) {
	st, err := s.store.ComputeStatistics(ctx)
	if err != nil {
		return Response{}, err
	}
	buttons := []Button{
		{Label: "📋 Список всех участников", Data: ActionList},
		{Label: "📊 Обновить статистику", Data: ActionStats},
		{Label: "📥 Экспорт данных", Data: ActionExport},
	}
	if s.opts.Mirror != nil {
		buttons = append(buttons, Button{Label: "🔄 Синхронизировать таблицу", Data: ActionSync})
	}
	return Response{Text: PanelText(who.Username, st), Buttons: buttons, Edit: edit}, nil
}

// Callback handles a pressed admin button.
func (s *Service) Callback(ctx context.Context, who Identity, action string) (Response, error) {
	if !s.IsAdmin(who.Username) {
		return Response{Alert: "❌ У вас нет прав администратора"}, nil
	}
	s.touch(ctx, who)

	switch action {
	case ActionStats, ActionBack:
		return s.Panel(ctx, who, true)
	case ActionList:
		return s.list(ctx)
	case ActionExport:
		return s.export(ctx)
	case ActionSync:
		return s.sync(ctx)
	}
	return Response{Notice: "Неизвестное действие"}, nil
}

// touch records the chat of a privileged user so it receives broadcasts.
func (s *Service) touch(ctx context.Context, who Identity) {
	if err := s.store.RegisterAdminChannel(ctx, who.ID, who.Username, who.ChatID); err != nil {
		s.log.Error("register admin channel", "user_id", who.ID, "chat_id", who.ChatID, "err", err)
	}
}

func backButton() []Button {
	return []Button{{Label: "◀️ Назад в админ-панель", Data: ActionBack}}
}

func (s *Service) list(ctx context.Context) (Response, error) {
	regs, err := s.store.ListRegistrations(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{Text: ListText(regs), Buttons: backButton(), Edit: true}, nil
}

func (s *Service) export(ctx context.Context) (Response, error) {
	data, n, err := export.Build(ctx, s.store)
	if err != nil {
		return Response{}, err
	}
	if n == 0 {
		return Response{Alert: "📋 Нет данных для экспорта"}, nil
	}
	caption := fmt.Sprintf("📊 Экспорт регистраций\nВсего участников: %d", n)
	if link := s.ExportLink(); link != "" {
		caption += "\n\n🔗 " + link
	}
	return Response{
		Document: &Document{Name: export.Filename(s.opts.Now()), Data: data, Caption: caption},
		Notice:   "✅ Файл отправлен",
	}, nil
}

func (s *Service) sync(ctx context.Context) (Response, error) {
	if s.opts.Mirror == nil {
		return Response{Alert: "Таблица Google Sheets не настроена"}, nil
	}
	regs, err := s.store.ListRegistrations(ctx)
	if err != nil {
		return Response{}, err
	}
	if err := s.opts.Mirror.SyncRegistrations(ctx, regs); err != nil {
		s.log.Error("sheet resync", "err", err)
		return Response{Alert: "⚠️ Не удалось обновить таблицу, попробуйте позже"}, nil
	}
	ids, err := s.opts.Mirror.ListUserIDs(ctx)
	if err != nil {
		s.log.Warn("sheet read-back", "err", err)
	}
	s.log.Info("sheet resynced", "rows", len(regs), "read_back", len(ids))
	return Response{
		Text:    fmt.Sprintf("✅ Таблица обновлена.\n\nЗаписей в базе: %d\nСтрок в таблице: %d", len(regs), len(ids)),
		Buttons: backButton(),
		Edit:    true,
	}, nil
}

// ExportLink is the token-protected CSV URL, or "" without a public base URL
// or an export secret.
func (s *Service) ExportLink() string {
	if s.opts.BasePublicURL == "" || s.opts.ExportSecret == "" {
		return ""
	}
	q := url.Values{"token": {util.ExportToken(s.opts.ExportSecret)}}
	return strings.TrimRight(s.opts.BasePublicURL, "/") + "/export/registrations.csv?" + q.Encode()
}

func PanelText(username string, st models.Statistics) string {
	var b strings.Builder
	b.WriteString("👑 АДМИН-ПАНЕЛЬ\n\n")
	if username != "" {
		fmt.Fprintf(&b, "Добро пожаловать, @%s!\n\n", strings.TrimPrefix(username, "@"))
	}
	b.WriteString("📊 СТАТИСТИКА РЕГИСТРАЦИЙ:\n")
	fmt.Fprintf(&b, "👥 Всего зарегистрировано: %d\n\n", st.Total)
	if len(st.ByUniversity) > 0 {
		b.WriteString("🎓 По университетам:\n")
		for _, c := range st.ByUniversity {
			fmt.Fprintf(&b, "  • %s: %d\n", c.Key, c.Count)
		}
		b.WriteString("\n")
	}
	if len(st.ByCourse) > 0 {
		b.WriteString("📚 По курсам:\n")
		for _, c := range st.ByCourse {
			fmt.Fprintf(&b, "  • %s: %d\n", c.Key, c.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ListText shows the first ten registrations, most recent first.
func ListText(regs []models.Registration) string {
	if len(regs) == 0 {
		return "📋 Список участников пуст.\n\nПока никто не зарегистрировался на форум."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "📋 СПИСОК УЧАСТНИКОВ (всего: %d)\n\n", len(regs))
	for i, r := range regs {
		if i == listLimit {
			break
		}
		handle := r.Handle()
		if handle == "" {
			handle = "—"
		}
		fmt.Fprintf(&b, "%d. %s\n   🎓 %s\n   📚 %s\n   📱 %s\n   🆔 %s\n\n",
			i+1, r.FullName, r.University, r.Course, r.Phone, handle)
	}
	if len(regs) > listLimit {
		fmt.Fprintf(&b, "... и ещё %d участников", len(regs)-listLimit)
	}
	return strings.TrimRight(b.String(), "\n")
}
