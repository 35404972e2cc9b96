package tgbot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum-bot/internal/access"
	"forum-bot/internal/admin"
	"forum-bot/internal/config"
	"forum-bot/internal/dialog"
	"forum-bot/internal/metrics"
	"forum-bot/internal/models"
	"forum-bot/internal/session"
)

type call struct {
	method string
	form   map[string]string
}

// fakeAPI answers Bot API methods and records every request.
type fakeAPI struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseMultipartForm(1 << 20)
	parts := strings.Split(r.URL.Path, "/")
	method := parts[len(parts)-1]

	form := map[string]string{}
	for k, v := range r.Form {
		form[k] = v[0]
	}
	f.mu.Lock()
	f.calls = append(f.calls, call{method: method, form: form})
	f.mu.Unlock()

	var result any
	switch method {
	case "getMe":
		result = map[string]any{"id": 1, "is_bot": true, "first_name": "Forum", "username": "forum_bot"}
	case "answerCallbackQuery":
		result = true
	default:
		result = map[string]any{"message_id": 99, "date": 0, "chat": map[string]any{"id": 1, "type": "private"}}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": result})
}

func (f *fakeAPI) sent(method string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []call{}
	for _, c := range f.calls {
		if c.method == method {
			out = append(out, c)
		}
	}
	return out
}

type memRegistry struct {
	mu     sync.Mutex
	regs   map[int64]models.Registration
	admins map[int64]int64
}

func (m *memRegistry) GetRegistration(_ context.Context, id int64) (*models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.regs[id]; ok {
		return &r, nil
	}
	return nil, nil
}

func (m *memRegistry) UpsertRegistration(_ context.Context, r models.Registration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[r.UserID] = r
	return nil
}

func (m *memRegistry) RegisterAdminChannel(_ context.Context, userID int64, _ string, chatID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.admins[userID] = chatID
	return nil
}

func (m *memRegistry) ComputeStatistics(context.Context) (models.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return models.Statistics{Total: len(m.regs)}, nil
}

func (m *memRegistry) ListRegistrations(context.Context) ([]models.Registration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Registration{}
	for _, r := range m.regs {
		out = append(out, r)
	}
	return out, nil
}

func newTestApp(t *testing.T, opts Options) (*App, *fakeAPI, *memRegistry) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)

	reg := &memRegistry{regs: map[int64]models.Registration{}, admins: map[int64]int64{}}
	allow := access.NewAllowlist([]string{"boss"})
	form := config.DefaultForm()
	opts.Engine = dialog.New(dialog.Deps{
		Sessions: session.NewStore(time.Hour),
		Registry: reg,
		Admins:   allow,
		Form:     form,
		Metrics:  metrics.New(prometheus.NewRegistry()),
	})
	opts.Admin = admin.New(reg, allow, admin.Options{})
	opts.Form = form
	return New(bot, opts), api, reg
}

func command(userID int64, username, text string) tgbotapi.Update {
	m := &tgbotapi.Message{
		MessageID: 1,
		From:      &tgbotapi.User{ID: userID, UserName: username, FirstName: "Алиса"},
		Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		Text:      text,
	}
	if strings.HasPrefix(text, "/") {
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(strings.Fields(text)[0])}}
	}
	return tgbotapi.Update{UpdateID: 1, Message: m}
}

func press(userID int64, username, data string) tgbotapi.Update {
	return tgbotapi.Update{UpdateID: 2, CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb1",
		From: &tgbotapi.User{ID: userID, UserName: username},
		Message: &tgbotapi.Message{
			MessageID: 42,
			Chat:      &tgbotapi.Chat{ID: userID, Type: "private"},
		},
		Data: data,
	}}
}

func TestApp_StartSendsWelcomeAndConsent(t *testing.T) {
	app, api, _ := newTestApp(t, Options{})
	app.handleUpdate(context.Background(), command(10, "alice", "/start"))

	msgs := api.sent("sendMessage")
	require.Len(t, msgs, 3)
	assert.Contains(t, msgs[0].form["text"], "Здравствуйте, Алиса")
	assert.Contains(t, msgs[2].form["reply_markup"], dialog.ChoiceConsentYes)
}

func TestApp_ConsentPressEditsMessage(t *testing.T) {
	app, api, _ := newTestApp(t, Options{})
	ctx := context.Background()
	app.handleUpdate(ctx, command(10, "alice", "/start"))
	app.handleUpdate(ctx, press(10, "alice", dialog.ChoiceConsentYes))

	require.Len(t, api.sent("answerCallbackQuery"), 1)
	edits := api.sent("editMessageText")
	require.Len(t, edits, 1)
	assert.Equal(t, "42", edits[0].form["message_id"])

	msgs := api.sent("sendMessage")
	last := msgs[len(msgs)-1]
	assert.Contains(t, last.form["text"], "ФИО")
	assert.Contains(t, last.form["reply_markup"], "remove_keyboard")
}

func TestApp_AdminStartShowsPanel(t *testing.T) {
	app, api, reg := newTestApp(t, Options{})
	app.handleUpdate(context.Background(), command(1, "Boss", "/start"))

	msgs := api.sent("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].form["text"], "АДМИН-ПАНЕЛЬ")
	assert.Contains(t, msgs[0].form["reply_markup"], admin.ActionExport)
	assert.Equal(t, int64(1), reg.admins[1])
}

func TestApp_AdminButtonFromStrangerAlerts(t *testing.T) {
	app, api, _ := newTestApp(t, Options{})
	app.handleUpdate(context.Background(), press(10, "alice", admin.ActionExport))

	answers := api.sent("answerCallbackQuery")
	require.Len(t, answers, 1)
	assert.Equal(t, "true", answers[0].form["show_alert"])
	assert.Empty(t, api.sent("sendDocument"))
}

func TestApp_AdminExportSendsDocument(t *testing.T) {
	app, api, reg := newTestApp(t, Options{})
	reg.regs[5] = models.Registration{UserID: 5, FullName: "Иванов Иван", ConsentGiven: true}

	app.handleUpdate(context.Background(), press(1, "boss", admin.ActionExport))

	docs := api.sent("sendDocument")
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].form["caption"], "Всего участников: 1")
}

func TestApp_HelpAndUnknownCommand(t *testing.T) {
	app, api, _ := newTestApp(t, Options{})
	app.handleUpdate(context.Background(), command(10, "alice", "/help"))
	app.handleUpdate(context.Background(), command(10, "alice", "/whatever"))

	msgs := api.sent("sendMessage")
	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].form["text"], "/restart")
}

func TestApp_IgnoresGroupChats(t *testing.T) {
	app, api, _ := newTestApp(t, Options{})
	upd := command(10, "alice", "/start")
	upd.Message.Chat = &tgbotapi.Chat{ID: -100, Type: "supergroup"}
	app.handleUpdate(context.Background(), upd)

	assert.Empty(t, api.sent("sendMessage"))
}

func TestApp_ChatIDMode(t *testing.T) {
	app, api, _ := newTestApp(t, Options{ChatIDMode: true})
	upd := command(10, "alice", "hi")
	upd.Message.Chat = &tgbotapi.Chat{ID: -100123, Type: "supergroup", Title: "Стажировки"}
	app.handleUpdate(context.Background(), upd)

	msgs := api.sent("sendMessage")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].form["text"], "-100123")
	assert.Contains(t, msgs[0].form["text"], "supergroup")
}

func newChatIDApp(t *testing.T) (*App, *fakeAPI) {
	t.Helper()
	api := &fakeAPI{}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	bot, err := tgbotapi.NewBotAPIWithClient("TOKEN", srv.URL+"/bot%s/%s", srv.Client())
	require.NoError(t, err)
	return New(bot, Options{ChatIDMode: true, Workers: 2}), api
}

func TestApp_ChatIDModeIgnoresButtons(t *testing.T) {
	app, api := newChatIDApp(t)
	ctx := context.Background()

	assert.NotPanics(t, func() {
		app.handleUpdate(ctx, press(10, "alice", dialog.ChoiceConsentYes))
		app.handleUpdate(ctx, press(10, "alice", admin.ActionExport))
	})
	assert.Len(t, api.sent("answerCallbackQuery"), 2)
	assert.Empty(t, api.sent("sendMessage"))
	assert.Empty(t, api.sent("editMessageText"))
}

func TestApp_ServeDrainsBufferedUpdatesAfterCancel(t *testing.T) {
	app, api := newChatIDApp(t)

	updates := make(chan tgbotapi.Update, 5)
	for i := int64(1); i <= 5; i++ {
		upd := command(i, "user", "hi")
		upd.Message.Chat = &tgbotapi.Chat{ID: -i, Type: "group"}
		updates <- upd
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stopped := false
	err := app.serve(ctx, updates, func() { stopped = true })
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, stopped)
	assert.Len(t, api.sent("sendMessage"), 5)
}

func TestApp_ServeReturnsWhenUpdatesClosed(t *testing.T) {
	app, api := newChatIDApp(t)

	updates := make(chan tgbotapi.Update, 1)
	updates <- command(3, "user", "hi")
	close(updates)

	require.NoError(t, app.serve(context.Background(), updates, func() {}))
	assert.Len(t, api.sent("sendMessage"), 1)
}

func TestSender_SendText(t *testing.T) {
	app, api, _ := newTestApp(t, Options{})
	s := NewSender(app.bot)
	require.NoError(t, s.SendText(context.Background(), 777, "hello"))
	msgs := api.sent("sendMessage")
	require.Len(t, msgs, 1)
	assert.Equal(t, "777", msgs[0].form["chat_id"])

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.SendText(ctx, 777, "late"), context.Canceled)
}
