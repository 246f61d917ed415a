// internal/delivery/telegram/app/bot/bot.go
package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"game-topup-bot/internal/delivery/telegram"
	"game-topup-bot/internal/delivery/telegram/app/bot/constants"
	"game-topup-bot/internal/delivery/telegram/app/bot/handlers/router"
	topup_handlers "game-topup-bot/internal/delivery/telegram/app/bot/handlers/topup"
	"game-topup-bot/pkg/logger"
)

// CallbackAnswerer отвечает на нажатие inline кнопки
type CallbackAnswerer interface {
	AnswerCallback(ctx context.Context, callbackID string) error
}

// CommandSetter устанавливает меню команд
type CommandSetter interface {
	SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error
}

// TelegramBot - разбор обновлений Telegram и маршрутизация в диалог пополнения
type TelegramBot struct {
	router    router.Router
	answerer  CallbackAnswerer
	commands  CommandSetter
	logger    *logger.Logger
	startedAt time.Time
}

// NewTelegramBot создает бота и регистрирует хэндлеры
func NewTelegramBot(svc topup_handlers.Service, answerer CallbackAnswerer, commands CommandSetter) *TelegramBot {
	r := router.NewRouter()
	topup_handlers.Register(r, svc)

	return &TelegramBot{
		router:    r,
		answerer:  answerer,
		commands:  commands,
		logger:    logger.Named("bot"),
		startedAt: time.Now(),
	}
}

// HandleUpdate обрабатывает одно обновление. Обновления без чата
// и без текста/данных игнорируются.
func (b *TelegramBot) HandleUpdate(ctx context.Context, update *telegram.Update) error {
	chatID := update.ChatID()
	if chatID == 0 {
		return nil
	}

	var command string
	params := router.HandlerParams{ChatID: chatID, UpdateID: update.UpdateID}

	switch {
	case update.CallbackQuery != nil:
		cq := update.CallbackQuery
		if err := b.answerer.AnswerCallback(ctx, cq.ID); err != nil {
			b.logger.Warn("⚠️ answerCallbackQuery %s: %v", cq.ID, err)
		}
		if cq.Data == "" {
			return nil
		}
		command = cq.Data
		params.Data = cq.Data

	case update.Message != nil:
		command = update.Message.Text
		params.Text = update.Message.Text

	default:
		return nil
	}

	err := b.router.Handle(ctx, command, params)
	if errors.Is(err, router.ErrNoHandler) {
		b.logger.Debug("Нет хэндлера для '%s' (чат %d)", command, chatID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("update %d: %w", update.UpdateID, err)
	}
	return nil
}

// SetMyCommands устанавливает меню команд в Telegram
func (b *TelegramBot) SetMyCommands(ctx context.Context) error {
	b.logger.Info("Установка меню команд в Telegram API")

	commands := []telegram.BotCommand{
		{Command: constants.CommandStart, Description: constants.CommandDescriptions.Start},
		{Command: constants.CommandTopUp, Description: constants.CommandDescriptions.TopUp},
		{Command: constants.CommandStatus, Description: constants.CommandDescriptions.Status},
		{Command: constants.CommandOrders, Description: constants.CommandDescriptions.Orders},
		{Command: constants.CommandCancel, Description: constants.CommandDescriptions.Cancel},
	}

	if err := b.commands.SetMyCommands(ctx, commands); err != nil {
		return fmt.Errorf("ошибка настройки меню команд: %w", err)
	}

	for _, cmd := range commands {
		b.logger.Debug("   • %s - %s", cmd.Command, cmd.Description)
	}
	return nil
}

// Uptime - время с момента создания бота
func (b *TelegramBot) Uptime() time.Duration {
	return time.Since(b.startedAt)
}
