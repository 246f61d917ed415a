// internal/core/domain/reconciliation/payload.go
package reconciliation

import (
	"bytes"
	"encoding/json"
	"fmt"

	"game-topup-bot/internal/infrastructure/persistence/postgres/models"
)

// Callback - разобранное уведомление провайдера
type Callback struct {
	RefID  string
	Status models.OrderStatus
	Raw    models.RawJSON
}

type callbackEnvelope struct {
	RefID  json.RawMessage `json:"ref_id"`
	Status json.RawMessage `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// ParseCallback разбирает тело callback. ref_id обязателен (строка или
// число), статус ищется на верхнем уровне, затем в data.status.
func ParseCallback(body []byte) (*Callback, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedCallback)
	}

	var env callbackEnvelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}

	refID := models.ScalarString(env.RefID)
	if refID == "" {
		return nil, fmt.Errorf("%w: missing ref_id", ErrMalformedCallback)
	}

	return &Callback{
		RefID:  refID,
		Status: models.StatusFromJSON(env.Status, env.Data),
		Raw:    models.RawJSON(trimmed),
	}, nil
}
