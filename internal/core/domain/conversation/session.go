// internal/core/domain/conversation/session.go
package conversation

import (
	"context"
	"time"
)

// Step - шаг диалога оформления заказа
type Step string

const (
	StepAwaitAccountID Step = "AWAIT_ACCOUNT_ID"
	StepAwaitAmount    Step = "AWAIT_AMOUNT"
	StepAwaitConfirm   Step = "AWAIT_CONFIRM"
	StepAwaitRefID     Step = "AWAIT_REFID"
)

// Session - незавершенный диалог в одном чате.
// Отсутствие сессии означает, что диалога нет.
type Session struct {
	Step            Step      `json:"step"`
	TargetAccountID string    `json:"target_account_id,omitempty"`
	AmountCode      string    `json:"amount_code,omitempty"`
	SkuCode         string    `json:"sku_code,omitempty"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Store хранит не более одной сессии на чат.
// Get возвращает (nil, nil), если сессии нет или она истекла.
type Store interface {
	Get(ctx context.Context, chatID int64) (*Session, error)
	Set(ctx context.Context, chatID int64, s *Session) error
	Delete(ctx context.Context, chatID int64) error
}
