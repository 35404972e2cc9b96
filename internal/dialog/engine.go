// Package dialog drives the registration conversation. It turns one inbound
// event of one user into the replies to send, moving that user's session
// through the transition table in transitions.go.
package dialog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"forum-bot/internal/access"
	"forum-bot/internal/config"
	"forum-bot/internal/metrics"
	"forum-bot/internal/models"
	"forum-bot/internal/notify"
	"forum-bot/internal/session"
	"forum-bot/internal/validate"
)

type InputKind int

const (
	InputStart InputKind = iota + 1
	InputRestart
	InputCancel
	InputText
	InputChoice
)

func (k InputKind) String() string {
	switch k {
	case InputStart:
		return "start"
	case InputRestart:
		return "restart"
	case InputCancel:
		return "cancel"
	case InputText:
		return "text"
	case InputChoice:
		return "choice"
	}
	return "unknown"
}

// Inline button payloads.
const (
	ChoiceConsentYes    = "consent_yes"
	ChoiceConsentNo     = "consent_no"
	ChoiceInternshipYes = "internship_yes"
	ChoiceInternshipNo  = "internship_no"
	ChoiceConfirmYes    = "confirm_yes"
	ChoiceConfirmNo     = "confirm_no"
)

type Input struct {
	Kind InputKind
	Text string // message text or button payload
}

type User struct {
	ID        int64
	ChatID    int64
	Username  string
	FirstName string
}

type Button struct {
	Label string
	Data  string
}

// Message is one outbound message. Options renders as a reply keyboard,
// Buttons as an inline keyboard. Edit replaces the message whose button
// was pressed instead of sending a new one.
type Message struct {
	Text           string
	Options        []string
	Buttons        []Button
	RemoveKeyboard bool
	Edit           bool
}

type Reply struct {
	State    session.State
	Messages []Message
	// Admin is set when the user is privileged and should get the admin
	// panel instead of the registration dialog.
	Admin bool
	// Registration is the stored record of an already registered user or
	// the record just committed.
	Registration *models.Registration
	Committed    bool
}

// Registry is the persistent side of the dialog.
type Registry interface {
	GetRegistration(ctx context.Context, userID int64) (*models.Registration, error)
	UpsertRegistration(ctx context.Context, r models.Registration) error
	RegisterAdminChannel(ctx context.Context, userID int64, username string, chatID int64) error
}

type Notifier interface {
	Notify(ctx context.Context, r models.Registration) notify.Report
}

type Deps struct {
	Sessions *session.Store
	Registry Registry
	Admins   access.Allowlist
	Form     config.Form
	Notifier Notifier // optional
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Now      func() time.Time
}

type Engine struct {
	sessions *session.Store
	registry Registry
	admins   access.Allowlist
	form     config.Form
	notifier Notifier
	metrics  *metrics.Metrics
	log      *slog.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

func New(d Deps) *Engine {
	e := &Engine{
		sessions: d.Sessions,
		registry: d.Registry,
		admins:   d.Admins,
		form:     d.Form,
		notifier: d.Notifier,
		metrics:  d.Metrics,
		log:      d.Logger,
		now:      d.Now,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	e.log = e.log.With("component", "dialog")
	if e.now == nil {
		e.now = time.Now
	}
	e.sessions.OnEvicted(func(userID int64) {
		e.metrics.IncSessionsExpired()
		e.metrics.SetSessionsActive(e.sessions.Len())
		e.log.Debug("session expired", "user_id", userID)
	})
	return e
}

// Handle processes one event. Events of the same user are serialized.
// The returned error is reserved for storage reads that failed before any
// state changed; the caller should answer with a generic failure message.
func (e *Engine) Handle(ctx context.Context, u User, in Input) (Reply, error) {
	release := e.sessions.Lock(u.ID)
	defer release()
	defer func() { e.metrics.SetSessionsActive(e.sessions.Len()) }()

	switch in.Kind {
	case InputRestart:
		e.sessions.Delete(u.ID)
		r, err := e.begin(ctx, u, true)
		if err == nil && !r.Admin {
			r.Messages = append([]Message{{Text: textRestarting, RemoveKeyboard: true}}, r.Messages...)
		}
		return r, err
	case InputCancel:
		e.sessions.Delete(u.ID)
		return Reply{State: session.StateEnd, Messages: []Message{{Text: textCancelled, RemoveKeyboard: true}}}, nil
	case InputStart:
		if s, ok := e.sessions.Get(u.ID); ok {
			msgs := append([]Message{{Text: textResume}}, e.prompt(s.State, s.Fields)...)
			return Reply{State: s.State, Messages: msgs}, nil
		}
		return e.begin(ctx, u, false)
	}

	s, ok := e.sessions.Get(u.ID)
	if !ok {
		msg := Message{Text: textNoSession}
		if in.Kind == InputChoice {
			msg.Edit = true
		}
		return Reply{State: session.StateEnd, Messages: []Message{msg}}, nil
	}
	h, ok := transitions[transition{s.State, in.Kind}]
	if !ok {
		return e.reprompt(s), nil
	}
	return h(e, ctx, u, &s, in)
}

// Wait blocks until every notification fan-out started by a commit is done.
func (e *Engine) Wait() {
	e.wg.Wait()
}

// begin is the entry point of a dialog. Privileged users are routed to the
// admin panel and never get a session.
func (e *Engine) begin(ctx context.Context, u User, force bool) (Reply, error) {
	if e.admins.IsPrivileged(u.Username) {
		if err := e.registry.RegisterAdminChannel(ctx, u.ID, u.Username, u.ChatID); err != nil {
			e.log.Error("register admin channel", "user_id", u.ID, "err", err)
		}
		return Reply{State: session.StateEnd, Admin: true}, nil
	}

	if !force {
		reg, err := e.registry.GetRegistration(ctx, u.ID)
		if err != nil {
			return Reply{}, err
		}
		if reg != nil {
			return Reply{
				State:        session.StateEnd,
				Registration: reg,
				Messages:     []Message{{Text: alreadyRegisteredText(reg, e.form.Organization), RemoveKeyboard: true}},
			}, nil
		}
	}

	s := session.Session{
		UserID:       u.ID,
		ChatID:       u.ChatID,
		State:        session.StateConsent,
		ForceRestart: force,
		StartedAt:    e.now(),
	}
	e.sessions.Put(s)
	e.metrics.IncSessionsStarted()
	e.log.Info("registration started", "user_id", u.ID, "force", force)

	msgs := append([]Message{{Text: welcomeText(u.FirstName, e.form.Organization)}}, e.prompt(s.State, s.Fields)...)
	return Reply{State: s.State, Messages: msgs}, nil
}

// advance moves s to next and asks for the next value.
func (e *Engine) advance(s *session.Session, next session.State, ack string) Reply {
	s.State = next
	e.sessions.Put(*s)
	return Reply{State: next, Messages: withAck(ack, e.prompt(next, s.Fields))}
}

// reject keeps s where it is and explains what is wrong with the input.
func (e *Engine) reject(s *session.Session, err error) Reply {
	reason := validate.ReasonOf(err)
	e.metrics.IncValidationRejection(string(s.State), string(reason))
	return Reply{State: s.State, Messages: []Message{{Text: rejectionText(reason)}}}
}

// reprompt answers input the current state does not accept.
func (e *Engine) reprompt(s session.Session) Reply {
	p := e.prompt(s.State, s.Fields)
	if len(p) == 0 {
		return Reply{State: s.State}
	}
	last := p[len(p)-1]
	if len(last.Buttons) > 0 {
		return Reply{State: s.State, Messages: []Message{{Text: textUseButtons}, last}}
	}
	return Reply{State: s.State, Messages: []Message{last}}
}

func (e *Engine) finish(u User, msgs ...Message) Reply {
	e.sessions.Delete(u.ID)
	return Reply{State: session.StateEnd, Messages: msgs}
}

// commit persists the collected record. A failed write leaves the session in
// CONFIRMATION so the user can press confirm again.
func (e *Engine) commit(ctx context.Context, u User, s *session.Session) (Reply, error) {
	reg, err := buildRegistration(u, s.Fields, e.now())
	if err != nil {
		e.log.Error("incomplete session at confirmation", "user_id", u.ID, "err", err)
		return e.finish(u, Message{Text: textSaveFailed, Edit: true}), nil
	}

	if err := e.registry.UpsertRegistration(ctx, reg); err != nil {
		e.metrics.IncRegistrationFailures()
		e.log.Error("save registration", "user_id", u.ID, "err", err)
		e.sessions.Put(*s)
		return Reply{
			State:    session.StateConfirmation,
			Messages: []Message{{Text: textSaveFailed, Buttons: confirmButtons(), Edit: true}},
		}, nil
	}

	e.metrics.IncRegistrationsSaved()
	e.log.Info("registration saved", "user_id", u.ID, "university", reg.University,
		"internship", reg.InterestedInInternship, "force", s.ForceRestart)

	if e.notifier != nil {
		nctx := context.WithoutCancel(ctx)
		e.wg.Add(1)
		go func() {
			defer e.wg.Done()
			e.notifier.Notify(nctx, reg)
		}()
	}

	r := e.finish(u, Message{Text: completedText(reg, e.form.Organization), Edit: true})
	r.Registration = &reg
	r.Committed = true
	return r, nil
}

var errIncomplete = errors.New("registration fields incomplete")

func buildRegistration(u User, f session.Fields, now time.Time) (models.Registration, error) {
	if !f.ConsentGiven || f.InterestedInInternship == nil ||
		f.FullName == "" || f.BirthDate == "" || f.Email == "" ||
		f.Phone == "" || f.University == "" || f.Course == "" {
		return models.Registration{}, errIncomplete
	}
	return models.Registration{
		UserID:                 u.ID,
		FullName:               f.FullName,
		BirthDate:              f.BirthDate,
		Email:                  f.Email,
		Phone:                  f.Phone,
		University:             f.University,
		Course:                 f.Course,
		InterestedInInternship: *f.InterestedInInternship,
		ConsentGiven:           true,
		ConsentAt:              f.ConsentAt,
		RegisteredAt:           now,
		TelegramUsername:       u.Username,
	}, nil
}
