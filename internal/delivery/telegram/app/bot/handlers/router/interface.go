// internal/delivery/telegram/app/bot/handlers/router/interface.go
package router

import "context"

// HandlerFunc обрабатывает команду или callback
type HandlerFunc func(ctx context.Context, params HandlerParams) error

// HandlerParams параметры, общие для всех хэндлеров
type HandlerParams struct {
	ChatID   int64
	Text     string // текст сообщения целиком
	Data     string // callback_data целиком
	Arg      string // часть после "key:" или после команды
	UpdateID int64
}

// Router интерфейс маршрутизатора хэндлеров
type Router interface {
	RegisterCommand(command string, handler HandlerFunc)   // явная регистрация команды
	RegisterCallback(callback string, handler HandlerFunc) // явная регистрация callback
	SetFallback(handler HandlerFunc)                       // обычный текст
	Handle(ctx context.Context, command string, params HandlerParams) error
	GetCommands() []string
}
