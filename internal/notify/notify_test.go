package notify

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"forum-bot/internal/metrics"
	"forum-bot/internal/models"
)

type fakeSender struct {
	mu   sync.Mutex
	sent map[int64][]string
	fail map[int64]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{sent: map[int64][]string{}, fail: map[int64]error{}}
}

func (f *fakeSender) SendText(ctx context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[chatID]; err != nil {
		return err
	}
	f.sent[chatID] = append(f.sent[chatID], text)
	return nil
}

func (f *fakeSender) chats() []int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []int64{}
	for id := range f.sent {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type staticAdmins struct {
	ids []int64
	err error
}

func (s staticAdmins) ListAdminChannels(context.Context) ([]int64, error) { return s.ids, s.err }

type mockMirror struct{ mock.Mock }

func (m *mockMirror) UpsertRegistration(ctx context.Context, r models.Registration) error {
	return m.Called(ctx, r).Error(0)
}

func registration(interested bool) models.Registration {
	return models.Registration{
		UserID:                 42,
		FullName:               "Петров Пётр",
		BirthDate:              "01.02.2003",
		Email:                  "petr@example.org",
		Phone:                  "89991234567",
		University:             "ИТМО",
		Course:                 "3 курс",
		InterestedInInternship: interested,
		ConsentGiven:           true,
		RegisteredAt:           time.Date(2026, 10, 17, 10, 0, 0, 0, time.UTC),
		TelegramUsername:       "petr",
	}
}

func TestNotify_BroadcastsToAllAdminsAndInternshipChannel(t *testing.T) {
	s := newFakeSender()
	d := New(s, staticAdmins{ids: []int64{1, 2, 3}}, Options{InternshipChatID: -100, Concurrency: 2})

	rep := d.Notify(context.Background(), registration(true))

	assert.NotEmpty(t, rep.BatchID)
	assert.Len(t, rep.Outcomes, 4)
	assert.Zero(t, rep.Failed())
	assert.Equal(t, []int64{-100, 1, 2, 3}, s.chats())
	assert.Contains(t, s.sent[1][0], "НОВАЯ РЕГИСТРАЦИЯ")
	assert.Contains(t, s.sent[1][0], "@petr")
	assert.Contains(t, s.sent[-100][0], "стажировк")
}

func TestNotify_SkipsInternshipWhenNotInterested(t *testing.T) {
	s := newFakeSender()
	d := New(s, staticAdmins{ids: []int64{1}}, Options{InternshipChatID: -100})

	rep := d.Notify(context.Background(), registration(false))

	assert.Equal(t, []int64{1}, s.chats())
	for _, o := range rep.Outcomes {
		assert.NotEqual(t, KindInternship, o.Kind)
	}
}

func TestNotify_SkipsInternshipWhenNotConfigured(t *testing.T) {
	s := newFakeSender()
	d := New(s, staticAdmins{ids: []int64{1}}, Options{})

	d.Notify(context.Background(), registration(true))

	assert.Equal(t, []int64{1}, s.chats())
}

func TestNotify_ContinuesPastFailures(t *testing.T) {
	s := newFakeSender()
	s.fail[2] = errors.New("Forbidden: bot was blocked by the user")
	m := metrics.New(prometheus.NewRegistry())
	d := New(s, staticAdmins{ids: []int64{1, 2, 3}}, Options{InternshipChatID: -100, Metrics: m, Concurrency: 1})

	rep := d.Notify(context.Background(), registration(true))

	assert.Len(t, rep.Outcomes, 4)
	assert.Equal(t, 1, rep.Failed())
	assert.Equal(t, []int64{-100, 1, 3}, s.chats())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.NotificationDelivered.WithLabelValues(KindAdmin, "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationDelivered.WithLabelValues(KindAdmin, "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NotificationDelivered.WithLabelValues(KindInternship, "ok")))
}

func TestNotify_AdminListFailureStillSendsInternship(t *testing.T) {
	s := newFakeSender()
	d := New(s, staticAdmins{err: errors.New("db locked")}, Options{InternshipChatID: -100})

	rep := d.Notify(context.Background(), registration(true))

	assert.Equal(t, []int64{-100}, s.chats())
	assert.Equal(t, 1, rep.Failed())
}

func TestNotify_Mirror(t *testing.T) {
	s := newFakeSender()
	mir := &mockMirror{}
	reg := registration(false)
	mir.On("UpsertRegistration", mock.Anything, reg).Return(errors.New("quota exceeded")).Once()

	d := New(s, staticAdmins{ids: []int64{1}}, Options{Mirror: mir})
	rep := d.Notify(context.Background(), reg)

	mir.AssertExpectations(t)
	require.Len(t, rep.Outcomes, 2)
	assert.Equal(t, 1, rep.Failed())
	assert.Equal(t, []int64{1}, s.chats())
}

func TestNotify_NoRecipients(t *testing.T) {
	d := New(newFakeSender(), staticAdmins{}, Options{})
	rep := d.Notify(context.Background(), registration(true))
	assert.Empty(t, rep.Outcomes)
}

func TestAdminText_NoUsername(t *testing.T) {
	r := registration(false)
	r.TelegramUsername = ""
	txt := AdminText(r)
	assert.Contains(t, txt, "Telegram: не указан")
	assert.Contains(t, txt, "Стажировка: нет")
}
