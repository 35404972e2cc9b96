// Package notify fans a committed registration out to the admin chats, the
// optional internship channel and the optional sheet mirror. Every delivery
// is best-effort: failures are logged and counted, never returned.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"forum-bot/internal/metrics"
	"forum-bot/internal/models"
)

const (
	KindAdmin      = "admin"
	KindInternship = "internship"
	KindSheet      = "sheet"
)

type Sender interface {
	SendText(ctx context.Context, chatID int64, text string) error
}

type AdminChannels interface {
	ListAdminChannels(ctx context.Context) ([]int64, error)
}

// Mirror receives a copy of every committed registration.
type Mirror interface {
	UpsertRegistration(ctx context.Context, r models.Registration) error
}

type Options struct {
	InternshipChatID int64 // 0 disables the internship dispatch
	Concurrency      int
	SendTimeout      time.Duration
	Mirror           Mirror
	Metrics          *metrics.Metrics
	Logger           *slog.Logger
}

type Dispatcher struct {
	sender Sender
	admins AdminChannels
	opts   Options
	log    *slog.Logger
}

// Outcome is the result of one delivery. ChatID is 0 for the sheet mirror.
type Outcome struct {
	Kind   string
	ChatID int64
	Err    error
}

type Report struct {
	BatchID  string
	Outcomes []Outcome
}

// Failed counts unsuccessful deliveries.
func (r Report) Failed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err != nil {
			n++
		}
	}
	return n
}

func New(sender Sender, admins AdminChannels, opts Options) *Dispatcher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.SendTimeout <= 0 {
		opts.SendTimeout = 10 * time.Second
	}
	l := opts.Logger
	if l == nil {
		l = slog.Default()
	}
	return &Dispatcher{sender: sender, admins: admins, opts: opts, log: l.With("component", "notify")}
}

// Notify delivers r to every recipient and returns the per-recipient outcomes.
// Recipient order is not defined.
func (d *Dispatcher) Notify(ctx context.Context, r models.Registration) Report {
	rep := Report{BatchID: uuid.NewString()}
	log := d.log.With("batch", rep.BatchID, "user_id", r.UserID)

	var mu sync.Mutex
	record := func(o Outcome) {
		d.opts.Metrics.ObserveNotification(o.Kind, o.Err)
		if o.Err != nil {
			log.Warn("notification failed", "kind", o.Kind, "chat_id", o.ChatID, "err", o.Err)
		}
		mu.Lock()
		rep.Outcomes = append(rep.Outcomes, o)
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(d.opts.Concurrency)

	send := func(kind string, chatID int64, text string) {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
			defer cancel()
			record(Outcome{Kind: kind, ChatID: chatID, Err: d.sender.SendText(sctx, chatID, text)})
			return nil
		})
	}

	chats, err := d.admins.ListAdminChannels(ctx)
	if err != nil {
		record(Outcome{Kind: KindAdmin, Err: err})
	}
	adminText := AdminText(r)
	for _, id := range chats {
		send(KindAdmin, id, adminText)
	}

	if r.InterestedInInternship && d.opts.InternshipChatID != 0 {
		send(KindInternship, d.opts.InternshipChatID, InternshipText(r))
	}

	if d.opts.Mirror != nil {
		g.Go(func() error {
			mctx, cancel := context.WithTimeout(ctx, d.opts.SendTimeout)
			defer cancel()
			record(Outcome{Kind: KindSheet, Err: d.opts.Mirror.UpsertRegistration(mctx, r)})
			return nil
		})
	}

	_ = g.Wait()
	log.Info("registration fan-out done", "deliveries", len(rep.Outcomes), "failed", rep.Failed())
	return rep
}
