// internal/infrastructure/persistence/postgres/models/order.go
package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// OrderStatus статус заказа. Провайдер может прислать любое значение,
// оно сохраняется как есть.
type OrderStatus string

const (
	OrderStatusPending OrderStatus = "pending" // Принят провайдером
	OrderStatusSuccess OrderStatus = "success" // Выполнен
	OrderStatusFailed  OrderStatus = "failed"  // Отклонен
	OrderStatusUnknown OrderStatus = "unknown" // Статус не сообщен
)

// NormalizeStatus подставляет unknown вместо пустого статуса
func NormalizeStatus(s string) OrderStatus {
	if s == "" {
		return OrderStatusUnknown
	}
	return OrderStatus(s)
}

// StatusFromJSON достает статус из ответа или callback провайдера:
// сначала status верхнего уровня, затем data.status. data любого другого
// вида (массив, строка, null) просто пропускается. Пустой или нескалярный
// статус дает unknown.
func StatusFromJSON(status, data json.RawMessage) OrderStatus {
	if s := ScalarString(status); s != "" {
		return OrderStatus(s)
	}
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		var nested struct {
			Status json.RawMessage `json:"status"`
		}
		if err := json.Unmarshal(trimmed, &nested); err == nil {
			return NormalizeStatus(ScalarString(nested.Status))
		}
	}
	return OrderStatusUnknown
}

// ScalarString возвращает строку или число как текст. null, bool, объекты
// и массивы дают пустую строку.
func ScalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return strings.TrimSpace(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return ""
		}
		return n.String()
	default:
		return ""
	}
}

// IsFinal - итоговый ли статус
func (s OrderStatus) IsFinal() bool {
	return s == OrderStatusSuccess || s == OrderStatusFailed
}

// RawJSON хранит ответ провайдера без изменений.
// В драйвер уходит строкой, иначе lib/pq кодирует []byte как bytea.
type RawJSON json.RawMessage

func (r RawJSON) Value() (driver.Value, error) {
	if len(r) == 0 {
		return nil, nil
	}
	return string(r), nil
}

func (r *RawJSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*r = nil
	case []byte:
		*r = append((*r)[:0], v...)
	case string:
		*r = RawJSON(v)
	default:
		return fmt.Errorf("unsupported raw_response type %T", src)
	}
	return nil
}

func (r RawJSON) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *RawJSON) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

// Order запись журнала заказов
type Order struct {
	RefID           string      `db:"ref_id" json:"ref_id"`                       // Идентификатор заказа у провайдера
	ChatID          int64       `db:"chat_id" json:"chat_id"`                     // Чат, оформивший заказ
	TargetAccountID string      `db:"target_account_id" json:"target_account_id"` // Игровой аккаунт получателя
	AmountCode      string      `db:"amount_code" json:"amount_code"`             // Номинал из каталога
	SkuCode         string      `db:"sku_code" json:"sku_code"`                   // SKU провайдера
	Status          OrderStatus `db:"status" json:"status"`
	RawResponse     RawJSON     `db:"raw_response" json:"raw_response,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
