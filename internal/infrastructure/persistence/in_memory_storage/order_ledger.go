// internal/infrastructure/persistence/in_memory_storage/order_ledger.go
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"
)

// InMemoryOrderLedger - журнал заказов в памяти процесса.
// Для dev окружения и тестов, данные теряются при рестарте.
type InMemoryOrderLedger struct {
	mu     sync.RWMutex
	orders map[string]*models.Order
	now    func() time.Time
}

func NewInMemoryOrderLedger() *InMemoryOrderLedger {
	return &InMemoryOrderLedger{
		orders: make(map[string]*models.Order),
		now:    time.Now,
	}
}

func (l *InMemoryOrderLedger) Insert(ctx context.Context, o *models.Order) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.orders[o.RefID]; exists {
		return fmt.Errorf("заказ %s: %w", o.RefID, order.ErrDuplicateKey)
	}

	now := l.now()
	o.CreatedAt, o.UpdatedAt = now, now
	l.orders[o.RefID] = cloneOrder(o)
	return nil
}

func (l *InMemoryOrderLedger) UpdateStatus(ctx context.Context, upd order.StatusUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	o, ok := l.orders[upd.RefID]
	if !ok {
		return fmt.Errorf("заказ %s: %w", upd.RefID, order.ErrNotFound)
	}
	o.Status = upd.Status
	o.RawResponse = append(models.RawJSON(nil), upd.Raw...)
	o.UpdatedAt = l.now()
	return nil
}

func (l *InMemoryOrderLedger) Get(ctx context.Context, refID string) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	o, ok := l.orders[refID]
	if !ok {
		return nil, fmt.Errorf("заказ %s: %w", refID, order.ErrNotFound)
	}
	return cloneOrder(o), nil
}

func (l *InMemoryOrderLedger) ListByChat(ctx context.Context, chatID int64, limit int) ([]*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	l.mu.RLock()
	var result []*models.Order
	for _, o := range l.orders {
		if o.ChatID == chatID {
			result = append(result, cloneOrder(o))
		}
	}
	l.mu.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].RefID < result[j].RefID
	})
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

// Len - количество заказов
func (l *InMemoryOrderLedger) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.orders)
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.RawResponse = append(models.RawJSON(nil), o.RawResponse...)
	return &c
}

var _ order.Ledger = (*InMemoryOrderLedger)(nil)
