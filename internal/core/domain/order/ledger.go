// internal/core/domain/order/ledger.go
package order

import (
	"context"
	"errors"

	"game-topup-bot/internal/infrastructure/persistence/postgres/models"
)

var (
	// ErrDuplicateKey - заказ с таким ref_id уже записан
	ErrDuplicateKey = errors.New("order already exists")
	// ErrNotFound - заказ с таким ref_id отсутствует
	ErrNotFound = errors.New("order not found")
)

// Ledger - долговременный журнал заказов.
//
// Insert никогда не перезаписывает существующую запись. UpdateStatus
// перезаписывает статус и сырой ответ безусловно (last-write-wins), поэтому
// поздний callback может "откатить" итоговый статус. Если понадобится
// защита от этого, ее место в UpdateStatus через StatusUpdate.Expected.
type Ledger interface {
	Insert(ctx context.Context, o *models.Order) error
	UpdateStatus(ctx context.Context, upd StatusUpdate) error
	Get(ctx context.Context, refID string) (*models.Order, error)
	ListByChat(ctx context.Context, chatID int64, limit int) ([]*models.Order, error)
}

// StatusUpdate - изменение статуса по ref_id
type StatusUpdate struct {
	RefID  string
	Status models.OrderStatus
	Raw    models.RawJSON
}
