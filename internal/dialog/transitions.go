package dialog

import (
	"context"
	"fmt"

	"forum-bot/internal/session"
	"forum-bot/internal/validate"
)

type transition struct {
	state session.State
	kind  InputKind
}

type handler func(e *Engine, ctx context.Context, u User, s *session.Session, in Input) (Reply, error)

// transitions lists every (state, input) pair the dialog accepts. Restart,
// cancel and start are handled before the lookup; any pair missing here
// re-asks the current question without touching the session.
var transitions = map[transition]handler{
	{session.StateConsent, InputChoice}: (*Engine).onConsent,

	{session.StateFullName, InputText}: textStep(
		func(_ *Engine, in string) (string, error) { return validate.FullName(in) },
		func(f *session.Fields, v string) { f.FullName = v },
		session.StateBirthDate, "✅ ФИО: %s",
	),
	{session.StateBirthDate, InputText}: textStep(
		func(e *Engine, in string) (string, error) { return validate.BirthDate(in, e.now()) },
		func(f *session.Fields, v string) { f.BirthDate = v },
		session.StateEmail, "✅ Дата рождения: %s",
	),
	{session.StateEmail, InputText}: textStep(
		func(_ *Engine, in string) (string, error) { return validate.Email(in) },
		func(f *session.Fields, v string) { f.Email = v },
		session.StatePhone, "✅ Email: %s",
	),
	{session.StatePhone, InputText}: textStep(
		func(_ *Engine, in string) (string, error) { return validate.Phone(in) },
		func(f *session.Fields, v string) { f.Phone = v },
		session.StateUniversity, "✅ Телефон: %s",
	),
	{session.StateUniversity, InputText}: (*Engine).onUniversity,
	{session.StateUniversityCustom, InputText}: textStep(
		func(_ *Engine, in string) (string, error) { return validate.CustomUniversity(in) },
		func(f *session.Fields, v string) { f.University = v },
		session.StateCourse, "✅ Университет: %s",
	),
	{session.StateCourse, InputText}: textStep(
		func(_ *Engine, in string) (string, error) { return validate.Choice("course", in) },
		func(f *session.Fields, v string) { f.Course = v },
		session.StateInternshipInterest, "✅ Курс: %s",
	),

	{session.StateInternshipInterest, InputChoice}: (*Engine).onInternship,
	{session.StateConfirmation, InputChoice}:       (*Engine).onConfirmation,
}

// textStep builds the handler of a state that collects one validated text
// field and then moves to next.
func textStep(
	check func(e *Engine, in string) (string, error),
	set func(f *session.Fields, v string),
	next session.State,
	ackFormat string,
) handler {
	return func(e *Engine, _ context.Context, _ User, s *session.Session, in Input) (Reply, error) {
		v, err := check(e, in.Text)
		if err != nil {
			return e.reject(s, err), nil
		}
		set(&s.Fields, v)
		return e.advance(s, next, fmt.Sprintf(ackFormat, v)), nil
	}
}

func (e *Engine) onConsent(_ context.Context, u User, s *session.Session, in Input) (Reply, error) {
	switch in.Text {
	case ChoiceConsentYes:
		s.Fields.ConsentGiven = true
		s.Fields.ConsentAt = e.now()
		r := e.advance(s, session.StateFullName, "")
		// the consent buttons are replaced by a thank-you, the name prompt
		// follows as a new message
		r.Messages = append([]Message{{Text: "✅ Спасибо за согласие!", Edit: true}}, r.Messages...)
		return r, nil
	case ChoiceConsentNo:
		e.log.Info("consent declined", "user_id", u.ID)
		return e.finish(u, Message{Text: textConsentDeclined, Edit: true}), nil
	}
	return e.reprompt(*s), nil
}

func (e *Engine) onUniversity(_ context.Context, _ User, s *session.Session, in Input) (Reply, error) {
	v, err := validate.Choice("university", in.Text)
	if err != nil {
		return e.reject(s, err), nil
	}
	if v == e.form.OtherUniversity {
		return e.advance(s, session.StateUniversityCustom, ""), nil
	}
	s.Fields.University = v
	return e.advance(s, session.StateCourse, fmt.Sprintf("✅ Университет: %s", v)), nil
}

func (e *Engine) onInternship(_ context.Context, _ User, s *session.Session, in Input) (Reply, error) {
	var interested bool
	switch in.Text {
	case ChoiceInternshipYes:
		interested = true
	case ChoiceInternshipNo:
	default:
		return e.reprompt(*s), nil
	}
	s.Fields.InterestedInInternship = &interested
	r := e.advance(s, session.StateConfirmation, "")
	r.Messages = append([]Message{{Text: "✅ Стажировка: " + yesNo(interested), Edit: true}}, r.Messages...)
	return r, nil
}

func (e *Engine) onConfirmation(ctx context.Context, u User, s *session.Session, in Input) (Reply, error) {
	switch in.Text {
	case ChoiceConfirmYes:
		return e.commit(ctx, u, s)
	case ChoiceConfirmNo:
		e.log.Info("confirmation declined", "user_id", u.ID)
		return e.finish(u, Message{Text: textConfirmDeclined, Edit: true}), nil
	}
	return e.reprompt(*s), nil
}
