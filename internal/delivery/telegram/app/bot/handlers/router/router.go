// internal/delivery/telegram/app/bot/handlers/router/router.go
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"game-topup-bot/pkg/logger"
)

// ErrNoHandler - для команды или callback нет обработчика
var ErrNoHandler = errors.New("handler not found")

// routerImpl реализация Router.
// Команды и callback хранятся раздельно: текст сообщения никогда не
// попадает в обработчик кнопки.
type routerImpl struct {
	commands  map[string]HandlerFunc // ключ: "/команда"
	callbacks map[string]HandlerFunc // ключ: callback_data или префикс до ":"
	fallback  HandlerFunc
	logger    *logger.Logger
}

// NewRouter создает новый роутер
func NewRouter() Router {
	return &routerImpl{
		commands:  make(map[string]HandlerFunc),
		callbacks: make(map[string]HandlerFunc),
		logger:    logger.Named("router"),
	}
}

// RegisterCommand регистрирует команду (префикс / добавляется при необходимости)
func (r *routerImpl) RegisterCommand(command string, handler HandlerFunc) {
	if !strings.HasPrefix(command, "/") {
		command = "/" + command
	}
	r.commands[command] = handler
	r.logger.Debug("Зарегистрирована команда: %s", command)
}

// RegisterCallback регистрирует callback (без префикса /)
func (r *routerImpl) RegisterCallback(callback string, handler HandlerFunc) {
	callback = strings.TrimPrefix(callback, "/")
	r.callbacks[callback] = handler
	r.logger.Debug("Зарегистрирован callback: %s", callback)
}

// SetFallback задает обработчик текста, не являющегося известной командой
func (r *routerImpl) SetFallback(handler HandlerFunc) {
	r.fallback = handler
}

// Handle обрабатывает callback или сообщение.
//
// Callback (params.Data != ""): точное совпадение, затем "key:arg".
// Сообщение: "/cmd", "/cmd@bot", "/cmd arg", иначе fallback.
func (r *routerImpl) Handle(ctx context.Context, command string, params HandlerParams) error {
	if params.Data != "" {
		return r.handleCallback(ctx, command, params)
	}

	if strings.HasPrefix(command, "/") {
		if handler, ok := r.commands[command]; ok {
			return r.execute(ctx, handler, command, params)
		}
		name, arg := splitCommand(command)
		if handler, ok := r.commands[name]; ok {
			params.Arg = arg
			return r.execute(ctx, handler, name, params)
		}
	}

	if r.fallback != nil {
		return r.execute(ctx, r.fallback, "text", params)
	}
	return fmt.Errorf("%w: '%s'", ErrNoHandler, command)
}

func (r *routerImpl) handleCallback(ctx context.Context, data string, params HandlerParams) error {
	if handler, ok := r.callbacks[data]; ok {
		return r.execute(ctx, handler, data, params)
	}

	if key, arg, found := strings.Cut(data, ":"); found {
		if handler, ok := r.callbacks[key]; ok {
			params.Arg = arg
			r.logger.Debug("Перенаправление по префиксу '%s' в %s", data, key)
			return r.execute(ctx, handler, key, params)
		}
	}

	return fmt.Errorf("%w: '%s'", ErrNoHandler, data)
}

func (r *routerImpl) execute(ctx context.Context, handler HandlerFunc, name string, params HandlerParams) error {
	r.logger.Debug("Вызов хэндлера %s (чат %d)", name, params.ChatID)
	if err := handler(ctx, params); err != nil {
		r.logger.Error("Ошибка в хэндлере %s: %v", name, err)
		return err
	}
	return nil
}

// GetCommands возвращает зарегистрированные команды (с /), отсортированные
func (r *routerImpl) GetCommands() []string {
	commands := make([]string, 0, len(r.commands))
	for key := range r.commands {
		commands = append(commands, key)
	}
	sort.Strings(commands)
	return commands
}

// splitCommand: "/status@topup_bot ABC" -> ("/status", "ABC")
func splitCommand(text string) (string, string) {
	name, arg, _ := strings.Cut(strings.TrimSpace(text), " ")
	if at := strings.Index(name, "@"); at > 0 {
		name = name[:at]
	}
	return name, strings.TrimSpace(arg)
}

var _ Router = (*routerImpl)(nil)
