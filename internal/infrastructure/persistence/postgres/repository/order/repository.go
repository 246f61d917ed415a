// internal/infrastructure/persistence/postgres/repository/order/repository.go
package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	domain "game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const uniqueViolation = "23505"

// repositoryImpl реализация domain.Ledger поверх PostgreSQL
type repositoryImpl struct {
	db *sqlx.DB
}

// NewOrderRepository создает журнал заказов в PostgreSQL
func NewOrderRepository(db *sqlx.DB) domain.Ledger {
	return &repositoryImpl{db: db}
}

// Insert записывает новый заказ. Повторный ref_id дает domain.ErrDuplicateKey.
func (r *repositoryImpl) Insert(ctx context.Context, o *models.Order) error {
	query := `
	INSERT INTO orders (
		ref_id, chat_id, target_account_id,
		amount_code, sku_code, status, raw_response
	) VALUES (
		:ref_id, :chat_id, :target_account_id,
		:amount_code, :sku_code, :status, :raw_response
	) RETURNING created_at, updated_at
	`

	rows, err := sqlx.NamedQueryContext(ctx, r.db, query, o)
	if err != nil {
		return r.insertError(o.RefID, err)
	}
	defer rows.Close()

	if rows.Next() {
		if err := rows.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
			return fmt.Errorf("ошибка сканирования результата: %w", err)
		}
	}
	if err := rows.Err(); err != nil {
		return r.insertError(o.RefID, err)
	}
	return nil
}

func (r *repositoryImpl) insertError(refID string, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("заказ %s: %w", refID, domain.ErrDuplicateKey)
	}
	return fmt.Errorf("ошибка создания заказа %s: %w", refID, err)
}

// UpdateStatus перезаписывает статус и сырой ответ провайдера
func (r *repositoryImpl) UpdateStatus(ctx context.Context, upd domain.StatusUpdate) error {
	query := `
	UPDATE orders
	SET status = $2, raw_response = $3, updated_at = NOW()
	WHERE ref_id = $1
	`

	result, err := r.db.ExecContext(ctx, query, upd.RefID, upd.Status, upd.Raw)
	if err != nil {
		return fmt.Errorf("ошибка обновления статуса заказа %s: %w", upd.RefID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ошибка получения количества обновленных строк: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("заказ %s: %w", upd.RefID, domain.ErrNotFound)
	}
	return nil
}

// Get получает заказ по ref_id
func (r *repositoryImpl) Get(ctx context.Context, refID string) (*models.Order, error) {
	query := `SELECT * FROM orders WHERE ref_id = $1`

	var o models.Order
	if err := r.db.GetContext(ctx, &o, query, refID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("заказ %s: %w", refID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("ошибка получения заказа %s: %w", refID, err)
	}
	return &o, nil
}

// ListByChat возвращает последние заказы чата, новые первыми
func (r *repositoryImpl) ListByChat(ctx context.Context, chatID int64, limit int) ([]*models.Order, error) {
	if limit <= 0 {
		limit = 10
	}
	query := `
	SELECT * FROM orders
	WHERE chat_id = $1
	ORDER BY created_at DESC, ref_id
	LIMIT $2
	`

	var orders []*models.Order
	if err := r.db.SelectContext(ctx, &orders, query, chatID, limit); err != nil {
		return nil, fmt.Errorf("ошибка получения заказов чата %d: %w", chatID, err)
	}
	return orders, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
