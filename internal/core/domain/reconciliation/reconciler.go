// internal/core/domain/reconciliation/reconciler.go
package reconciliation

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/pkg/logger"
)

var (
	// ErrMalformedCallback - тело не JSON объект или нет ref_id
	ErrMalformedCallback = errors.New("malformed callback")
	// ErrUnauthorized - подпись callback не прошла проверку
	ErrUnauthorized = errors.New("callback verification failed")
)

// Outcome - чем закончилась обработка принятого callback
type Outcome string

const (
	OutcomeUpdated      Outcome = "updated"
	OutcomeUnknownOrder Outcome = "unknown_order"
)

// Result итог обработки callback
type Result struct {
	RefID    string
	Status   string
	Outcome  Outcome
	Final    bool // success или failed, дальнейших callback по заказу не ждем
	Notified bool
}

// Reconciler применяет callback провайдера к журналу и уведомляет владельца заказа
type Reconciler struct {
	ledger   order.Ledger
	notifier notify.Notifier
	verifier Verifier
	logger   *logger.Logger
}

// NewReconciler создает обработчик. nil verifier означает NoopVerifier.
func NewReconciler(ledger order.Ledger, notifier notify.Notifier, verifier Verifier) *Reconciler {
	if verifier == nil {
		verifier = NoopVerifier{}
	}
	return &Reconciler{
		ledger:   ledger,
		notifier: notifier,
		verifier: verifier,
		logger:   logger.Named("reconciler"),
	}
}

// Handle проверяет, разбирает и применяет callback.
//
// ErrUnauthorized и ErrMalformedCallback возвращаются до обращения к журналу.
// Неизвестный ref_id не ошибка: результат OutcomeUnknownOrder, провайдер
// получает подтверждение. Любая другая ошибка означает сбой журнала.
// Сбой уведомления только логируется.
func (r *Reconciler) Handle(ctx context.Context, headers http.Header, body []byte) (*Result, error) {
	if err := r.verifier.Verify(headers, body); err != nil {
		r.logger.Warn("🚫 Callback отклонен: %v", err)
		return nil, err
	}

	cb, err := ParseCallback(body)
	if err != nil {
		r.logger.Warn("⚠️ Некорректный callback: %v", err)
		return nil, err
	}

	return r.Apply(ctx, cb)
}

// Apply записывает статус из уже разобранного callback
func (r *Reconciler) Apply(ctx context.Context, cb *Callback) (*Result, error) {
	result := &Result{RefID: cb.RefID, Status: string(cb.Status)}

	err := r.ledger.UpdateStatus(ctx, order.StatusUpdate{
		RefID:  cb.RefID,
		Status: cb.Status,
		Raw:    cb.Raw,
	})
	if errors.Is(err, order.ErrNotFound) {
		r.logger.Warn("⚠️ Callback для неизвестного заказа %s (статус %s), подтверждаем без изменений", cb.RefID, cb.Status)
		result.Outcome = OutcomeUnknownOrder
		return result, nil
	}
	if err != nil {
		r.logger.Error("❌ Не удалось обновить заказ %s: %v", cb.RefID, err)
		return nil, fmt.Errorf("update order %s: %w", cb.RefID, err)
	}

	result.Outcome = OutcomeUpdated
	result.Final = cb.Status.IsFinal()
	if result.Final {
		r.logger.Info("🏁 Заказ %s завершен: статус %s", cb.RefID, cb.Status)
	} else {
		r.logger.Info("🔄 Заказ %s: статус %s", cb.RefID, cb.Status)
	}

	result.Notified = r.notifyOwner(ctx, cb)
	return result, nil
}

func (r *Reconciler) notifyOwner(ctx context.Context, cb *Callback) bool {
	o, err := r.ledger.Get(ctx, cb.RefID)
	if err != nil {
		r.logger.Warn("⚠️ Не удалось найти владельца заказа %s: %v", cb.RefID, err)
		return false
	}
	if o.ChatID == 0 {
		return false
	}

	msg := notify.Text(fmt.Sprintf("Update Pesanan %s:\nStatus: %s", cb.RefID, cb.Status))
	if err := r.notifier.Notify(ctx, o.ChatID, msg); err != nil {
		r.logger.Warn("⚠️ Не удалось уведомить чат %d о заказе %s: %v", o.ChatID, cb.RefID, err)
		return false
	}
	return true
}
