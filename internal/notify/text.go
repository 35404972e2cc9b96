package notify

import (
	"fmt"
	"strings"

	"forum-bot/internal/models"
)

const displayTime = "02.01.2006 15:04:05"

func AdminText(r models.Registration) string {
	return "🆕 НОВАЯ РЕГИСТРАЦИЯ!\n\n" + details(r)
}

func InternshipText(r models.Registration) string {
	return "💼 Кандидат интересуется стажировкой\n\n" + details(r)
}

func details(r models.Registration) string {
	handle := r.Handle()
	if handle == "" {
		handle = "не указан"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "👤 ФИО: %s\n", r.FullName)
	fmt.Fprintf(&b, "📅 Дата рождения: %s\n", r.BirthDate)
	fmt.Fprintf(&b, "📧 Email: %s\n", r.Email)
	fmt.Fprintf(&b, "📱 Телефон: %s\n", r.Phone)
	fmt.Fprintf(&b, "🎓 Университет: %s\n", r.University)
	fmt.Fprintf(&b, "📚 Курс: %s\n", r.Course)
	fmt.Fprintf(&b, "💼 Стажировка: %s\n", yesNo(r.InterestedInInternship))
	fmt.Fprintf(&b, "🆔 Telegram: %s\n", handle)
	fmt.Fprintf(&b, "🕐 Время: %s", r.RegisteredAt.Local().Format(displayTime))
	return b.String()
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}
