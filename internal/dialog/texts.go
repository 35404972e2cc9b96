package dialog

import (
	"fmt"
	"strings"

	"forum-bot/internal/config"
	"forum-bot/internal/models"
	"forum-bot/internal/session"
	"forum-bot/internal/validate"
)

const (
	textRestarting    = "Начинаем регистрацию заново..."
	textCancelled     = "Регистрация отменена. Используйте /start для начала новой регистрации."
	textNoSession     = "Чтобы зарегистрироваться на форум, используйте команду /start"
	textUseButtons    = "Пожалуйста, воспользуйтесь кнопками ниже."
	textResume        = "Продолжим регистрацию с того места, где вы остановились."
	textConsentAsk    = "Пожалуйста, ознакомьтесь с согласием выше и подтвердите своё решение:"
	textConfirmAsk    = "Пожалуйста, подтвердите введённые данные:"
	textInternshipAsk = "💼 Интересует ли вас стажировка в компаниях-партнёрах форума?"
	textSaveFailed    = "⚠️ Произошла ошибка при сохранении данных. " +
		"Пожалуйста, попробуйте подтвердить регистрацию позже или свяжитесь с организаторами."
	textConsentDeclined = "❌ Без согласия на обработку персональных данных мы не можем зарегистрировать вас на форум.\n\n" +
		"Если вы передумаете, используйте команду /start для повторной регистрации.\n\n" +
		"Если у вас есть вопросы, свяжитесь с организаторами."
	textConfirmDeclined = "Регистрация отменена. Используйте /start для начала новой регистрации."
)

// HelpText lists the commands of the bot.
func HelpText(org config.Organization) string {
	return "🤖 КОМАНДЫ БОТА:\n\n" +
		"/start - Начать регистрацию\n" +
		"/restart - Перезапустить регистрацию\n" +
		"/cancel - Отменить текущую регистрацию\n" +
		"/help - Показать эту справку\n\n" +
		fmt.Sprintf("По вопросам обращайтесь к организаторам форума %s.", org.Event)
}

func welcomeText(firstName string, org config.Organization) string {
	name := strings.TrimSpace(firstName)
	if name == "" {
		name = "участник"
	}
	return fmt.Sprintf("👋 Здравствуйте, %s!\n\n", name) +
		fmt.Sprintf("Добро пожаловать в систему регистрации на форум %s!\n\n", org.Event) +
		fmt.Sprintf("📍 Место проведения: %s, %s\n\n", org.Venue, org.City) +
		"Для регистрации вам необходимо будет предоставить следующие данные:\n" +
		"• ФИО\n• Дата рождения\n• Электронная почта\n• Номер телефона\n• Университет\n• Курс обучения\n\n" +
		"Начнём с ознакомления с согласием на обработку персональных данных."
}

func alreadyRegisteredText(r *models.Registration, org config.Organization) string {
	return fmt.Sprintf("Здравствуйте, %s!\n\n", r.FullName) +
		fmt.Sprintf("Вы уже зарегистрированы на форум %s.\n\n", org.Event) +
		"📋 Ваши данные:\n" + recordLines(r.FullName, r.BirthDate, r.Email, r.Phone, r.University, r.Course) +
		fmt.Sprintf("Стажировка: %s\n\n", yesNo(r.InterestedInInternship)) +
		"Для повторной регистрации используйте /restart"
}

func summaryText(f session.Fields) string {
	interested := false
	if f.InterestedInInternship != nil {
		interested = *f.InterestedInInternship
	}
	return "📋 ПРОВЕРЬТЕ ВВЕДЁННЫЕ ДАННЫЕ\n\n" +
		recordLines(f.FullName, f.BirthDate, f.Email, f.Phone, f.University, f.Course) +
		fmt.Sprintf("Стажировка: %s\n\n", yesNo(interested)) +
		"Всё верно?"
}

func completedText(r models.Registration, org config.Organization) string {
	return "🎉 РЕГИСТРАЦИЯ ЗАВЕРШЕНА!\n\n" +
		fmt.Sprintf("Спасибо, %s!\n\n", r.FullName) +
		fmt.Sprintf("Вы успешно зарегистрированы на форум %s.\n\n", org.Event) +
		fmt.Sprintf("📍 Место: %s, %s\n\n", org.Venue, org.City) +
		"Мы отправим дополнительную информацию на указанный вами email.\n\n" +
		"До встречи на форуме! 👋"
}

func recordLines(name, birth, email, phone, university, course string) string {
	return fmt.Sprintf("ФИО: %s\nДата рождения: %s\nEmail: %s\nТелефон: %s\nУниверситет: %s\nКурс: %s\n",
		name, birth, email, phone, university, course)
}

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

// rejectionText is the guidance shown when a validator refuses the input.
func rejectionText(reason validate.Reason) string {
	switch reason {
	case validate.ReasonNameTooShort:
		return "⚠️ Пожалуйста, введите полное ФИО (минимум Фамилия и Имя).\nНапример: Иванов Иван Иванович"
	case validate.ReasonDateFormat:
		return "⚠️ Неверный формат даты. Пожалуйста, используйте формат ДД.ММ.ГГГГ\nНапример: 15.03.2003"
	case validate.ReasonDateInvalid:
		return "⚠️ Указана некорректная дата. Пожалуйста, проверьте правильность ввода."
	case validate.ReasonTooYoung:
		return fmt.Sprintf("⚠️ К сожалению, участие в форуме доступно для лиц старше %d лет.", validate.MinAge)
	case validate.ReasonTooOld:
		return "⚠️ Пожалуйста, проверьте правильность введённой даты."
	case validate.ReasonEmailFormat:
		return "⚠️ Неверный формат email. Пожалуйста, введите корректный адрес.\nНапример: example@mail.ru"
	case validate.ReasonPhoneFormat:
		return "⚠️ Неверный формат номера телефона.\n" +
			"Пожалуйста, введите номер в формате: +79991234567 или 89991234567"
	case validate.ReasonUniversityName:
		return "⚠️ Пожалуйста, введите корректное название университета."
	default:
		return "⚠️ Пожалуйста, введите значение."
	}
}
