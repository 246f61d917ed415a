// internal/delivery/telegram/app/bot/message_sender/sender.go
package message_sender

import (
	"context"
	"fmt"

	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/delivery/telegram"
	"game-topup-bot/internal/delivery/telegram/app/bot/buttons"
	"game-topup-bot/pkg/logger"

	"golang.org/x/time/rate"
)

// Client - часть Bot API, нужная для отправки
type Client interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error
	AnswerCallbackQuery(ctx context.Context, callbackID, text string) error
}

// MessageSender отправляет сообщения в Telegram с общим ограничением
// частоты. Реализует notify.Notifier.
type MessageSender struct {
	client   Client
	limiter  *rate.Limiter
	builder  *buttons.ButtonBuilder
	testMode bool
	logger   *logger.Logger
}

// NewMessageSender создает отправитель. perSecond <= 0 отключает лимит.
func NewMessageSender(client Client, perSecond float64) *MessageSender {
	limit := rate.Inf
	burst := 1
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
		burst = int(perSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &MessageSender{
		client:  client,
		limiter: rate.NewLimiter(limit, burst),
		builder: buttons.NewButtonBuilder(),
		logger:  logger.Named("sender"),
	}
}

// SetTestMode - в тестовом режиме сообщения только пишутся в лог
func (ms *MessageSender) SetTestMode(enabled bool) {
	ms.testMode = enabled
}

// Notify отправляет сообщение в чат, ожидая свободный слот лимитера
func (ms *MessageSender) Notify(ctx context.Context, chatID int64, msg notify.Message) error {
	if ms.testMode {
		ms.logger.Info("[TEST] Send to %d: %s", chatID, msg.Text)
		return nil
	}

	if err := ms.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	if err := ms.client.SendMessage(ctx, chatID, msg.Text, ms.builder.FromMessage(msg)); err != nil {
		ms.logger.Error("❌ Ошибка отправки сообщения в чат %d: %v", chatID, err)
		return err
	}
	return nil
}

// AnswerCallback отвечает на нажатие кнопки. Лимит не применяется,
// ответы на callback не считаются сообщениями в чат.
func (ms *MessageSender) AnswerCallback(ctx context.Context, callbackID string) error {
	if ms.testMode || callbackID == "" {
		return nil
	}
	return ms.client.AnswerCallbackQuery(ctx, callbackID, "")
}

var _ notify.Notifier = (*MessageSender)(nil)
