// internal/delivery/telegram/app/bot/buttons/builder.go
package buttons

import (
	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/delivery/telegram"
)

// ButtonBuilder - построитель inline клавиатур
type ButtonBuilder struct{}

// NewButtonBuilder создает новый построитель кнопок
func NewButtonBuilder() *ButtonBuilder {
	return &ButtonBuilder{}
}

// FromMessage строит клавиатуру из кнопок сообщения. Пустые ряды
// пропускаются, без кнопок возвращается nil.
func (b *ButtonBuilder) FromMessage(msg notify.Message) *telegram.InlineKeyboardMarkup {
	var rows [][]telegram.InlineKeyboardButton
	for _, row := range msg.Buttons {
		if len(row) == 0 {
			continue
		}
		out := make([]telegram.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			out = append(out, telegram.InlineKeyboardButton{Text: btn.Text, CallbackData: btn.Data})
		}
		rows = append(rows, out)
	}
	if len(rows) == 0 {
		return nil
	}
	return &telegram.InlineKeyboardMarkup{InlineKeyboard: rows}
}
