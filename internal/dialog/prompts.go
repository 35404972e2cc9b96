package dialog

import (
	"forum-bot/internal/session"
)

// prompt returns the messages that ask for the input state s expects.
func (e *Engine) prompt(s session.State, f session.Fields) []Message {
	switch s {
	case session.StateConsent:
		return []Message{
			{Text: e.form.ConsentText},
			{Text: textConsentAsk, Buttons: []Button{
				{Label: "✅ Даю согласие", Data: ChoiceConsentYes},
				{Label: "❌ Не даю согласие", Data: ChoiceConsentNo},
			}},
		}
	case session.StateFullName:
		return []Message{{Text: "📝 Пожалуйста, введите ваше ФИО (Фамилия Имя Отчество):", RemoveKeyboard: true}}
	case session.StateBirthDate:
		return []Message{{Text: "📅 Введите вашу дату рождения в формате ДД.ММ.ГГГГ\nНапример: 15.03.2003"}}
	case session.StateEmail:
		return []Message{{Text: "📧 Введите ваш адрес электронной почты:"}}
	case session.StatePhone:
		return []Message{{Text: "📱 Введите ваш номер телефона в формате +7XXXXXXXXXX или 8XXXXXXXXXX:"}}
	case session.StateUniversity:
		return []Message{{
			Text:    "🎓 Выберите ваш университет из списка или введите название вручную:",
			Options: e.form.UniversityOptions(),
		}}
	case session.StateUniversityCustom:
		return []Message{{Text: "🎓 Пожалуйста, введите название вашего университета:", RemoveKeyboard: true}}
	case session.StateCourse:
		return []Message{{Text: "📚 Выберите ваш курс обучения:", Options: e.form.Courses}}
	case session.StateInternshipInterest:
		return []Message{{Text: textInternshipAsk, Buttons: []Button{
			{Label: "✅ Да", Data: ChoiceInternshipYes},
			{Label: "❌ Нет", Data: ChoiceInternshipNo},
		}}}
	case session.StateConfirmation:
		return []Message{
			{Text: summaryText(f)},
			{Text: textConfirmAsk, Buttons: confirmButtons()},
		}
	}
	return nil
}

func confirmButtons() []Button {
	return []Button{
		{Label: "✅ Да, всё верно", Data: ChoiceConfirmYes},
		{Label: "❌ Нет, заполнить заново", Data: ChoiceConfirmNo},
	}
}

// withAck prefixes the acknowledgement of the accepted value to the next
// prompt. A prompt that carries inline buttons cannot also drop the reply
// keyboard, so the ack then goes out as its own message.
func withAck(ack string, next []Message) []Message {
	if ack == "" || len(next) == 0 {
		return next
	}
	if len(next[0].Buttons) > 0 {
		return append([]Message{{Text: ack, RemoveKeyboard: true}}, next...)
	}
	out := append([]Message(nil), next...)
	out[0].Text = ack + "\n\n" + out[0].Text
	return out
}
