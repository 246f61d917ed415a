// Package notify описывает исходящие сообщения пользователю, не привязываясь
// к конкретному транспорту.
package notify

import "context"

// Button - кнопка под сообщением. Data возвращается боту при нажатии.
type Button struct {
	Text string
	Data string
}

// Message - текст и необязательная клавиатура (ряды кнопок)
type Message struct {
	Text    string
	Buttons [][]Button
}

// Text - сообщение без клавиатуры
func Text(text string) Message {
	return Message{Text: text}
}

// Notifier доставляет сообщение в чат
type Notifier interface {
	Notify(ctx context.Context, chatID int64, msg Message) error
}

// NotifierFunc позволяет использовать функцию как Notifier
type NotifierFunc func(ctx context.Context, chatID int64, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, chatID int64, msg Message) error {
	return f(ctx, chatID, msg)
}
