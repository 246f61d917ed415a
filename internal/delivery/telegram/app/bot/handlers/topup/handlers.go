// internal/delivery/telegram/app/bot/handlers/topup/handlers.go
package topup

import (
	"context"

	domain "game-topup-bot/internal/core/domain/topup"
	"game-topup-bot/internal/delivery/telegram/app/bot/constants"
	"game-topup-bot/internal/delivery/telegram/app/bot/handlers/router"
)

// Service - операции диалога пополнения, вызываемые из Telegram
type Service interface {
	ShowMenu(ctx context.Context, chatID int64) error
	StartTopUp(ctx context.Context, chatID int64) error
	StartStatusCheck(ctx context.Context, chatID int64) error
	CheckStatus(ctx context.Context, chatID int64, refID string) error
	HandleText(ctx context.Context, chatID int64, text string) error
	SelectAmount(ctx context.Context, chatID int64, amountCode string) error
	Confirm(ctx context.Context, chatID int64) error
	Cancel(ctx context.Context, chatID int64) error
	ListOrders(ctx context.Context, chatID int64, limit int) error
}

// Register привязывает команды, кнопки и свободный текст к сервису
func Register(r router.Router, svc Service) {
	// Команды
	r.RegisterCommand(constants.CommandStart, func(ctx context.Context, p router.HandlerParams) error {
		return svc.ShowMenu(ctx, p.ChatID)
	})
	r.RegisterCommand(constants.CommandTopUp, func(ctx context.Context, p router.HandlerParams) error {
		return svc.StartTopUp(ctx, p.ChatID)
	})
	r.RegisterCommand(constants.CommandStatus, func(ctx context.Context, p router.HandlerParams) error {
		return svc.CheckStatus(ctx, p.ChatID, p.Arg)
	})
	r.RegisterCommand(constants.CommandOrders, func(ctx context.Context, p router.HandlerParams) error {
		return svc.ListOrders(ctx, p.ChatID, constants.OrdersListLimit)
	})
	r.RegisterCommand(constants.CommandCancel, func(ctx context.Context, p router.HandlerParams) error {
		return svc.Cancel(ctx, p.ChatID)
	})

	// Кнопки
	r.RegisterCallback(domain.ActionStartTopUp, func(ctx context.Context, p router.HandlerParams) error {
		return svc.StartTopUp(ctx, p.ChatID)
	})
	r.RegisterCallback(domain.ActionStartStatusCheck, func(ctx context.Context, p router.HandlerParams) error {
		return svc.StartStatusCheck(ctx, p.ChatID)
	})
	r.RegisterCallback(domain.ActionSelectAmount, func(ctx context.Context, p router.HandlerParams) error {
		return svc.SelectAmount(ctx, p.ChatID, p.Arg)
	})
	r.RegisterCallback(domain.ActionConfirm, func(ctx context.Context, p router.HandlerParams) error {
		return svc.Confirm(ctx, p.ChatID)
	})
	r.RegisterCallback(domain.ActionCancel, func(ctx context.Context, p router.HandlerParams) error {
		return svc.Cancel(ctx, p.ChatID)
	})

	// Свободный текст
	r.SetFallback(func(ctx context.Context, p router.HandlerParams) error {
		return svc.HandleText(ctx, p.ChatID, p.Text)
	})
}

var _ Service = (*domain.Service)(nil)
