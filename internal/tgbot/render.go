package tgbot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"forum-bot/internal/admin"
	"forum-bot/internal/dialog"
)

const optionsPerRow = 2

// renderMessage turns a dialog message into a Bot API request. An edit
// without a message to edit falls back to a new message.
func renderMessage(chatID int64, editID int, m dialog.Message) tgbotapi.Chattable {
	if m.Edit && editID != 0 {
		if len(m.Buttons) > 0 {
			return tgbotapi.NewEditMessageTextAndMarkup(chatID, editID, m.Text, inlineKeyboard(dialogButtons(m.Buttons)))
		}
		return tgbotapi.NewEditMessageText(chatID, editID, m.Text)
	}

	msg := tgbotapi.NewMessage(chatID, m.Text)
	switch {
	case len(m.Buttons) > 0:
		msg.ReplyMarkup = inlineKeyboard(dialogButtons(m.Buttons))
	case len(m.Options) > 0:
		msg.ReplyMarkup = replyKeyboard(m.Options)
	case m.RemoveKeyboard:
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}
	return msg
}

// renderAdmin returns the document (if any) followed by the panel text.
func renderAdmin(chatID int64, editID int, r admin.Response) []tgbotapi.Chattable {
	out := []tgbotapi.Chattable{}
	if r.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: r.Document.Name, Bytes: r.Document.Data})
		doc.Caption = r.Document.Caption
		out = append(out, doc)
	}
	if r.Text == "" {
		return out
	}
	var kb *tgbotapi.InlineKeyboardMarkup
	if len(r.Buttons) > 0 {
		m := inlineKeyboard(adminButtons(r.Buttons))
		kb = &m
	}
	if r.Edit && editID != 0 {
		if kb != nil {
			return append(out, tgbotapi.NewEditMessageTextAndMarkup(chatID, editID, r.Text, *kb))
		}
		return append(out, tgbotapi.NewEditMessageText(chatID, editID, r.Text))
	}
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if kb != nil {
		msg.ReplyMarkup = *kb
	}
	return append(out, msg)
}

func callbackAnswer(queryID string, r admin.Response) tgbotapi.CallbackConfig {
	if r.Alert != "" {
		return tgbotapi.NewCallbackWithAlert(queryID, r.Alert)
	}
	return tgbotapi.NewCallback(queryID, r.Notice)
}

type button struct{ label, data string }

func dialogButtons(bs []dialog.Button) []button {
	out := make([]button, len(bs))
	for i, b := range bs {
		out[i] = button{b.Label, b.Data}
	}
	return out
}

func adminButtons(bs []admin.Button) []button {
	out := make([]button, len(bs))
	for i, b := range bs {
		out[i] = button{b.Label, b.Data}
	}
	return out
}

// inlineKeyboard puts every button on its own row.
func inlineKeyboard(bs []button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(bs))
	for _, b := range bs {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.label, b.data)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func replyKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	rows := [][]tgbotapi.KeyboardButton{}
	for i := 0; i < len(options); i += optionsPerRow {
		end := i + optionsPerRow
		if end > len(options) {
			end = len(options)
		}
		row := []tgbotapi.KeyboardButton{}
		for _, o := range options[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(o))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = true
	kb.ResizeKeyboard = true
	return kb
}
