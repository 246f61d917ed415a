// internal/delivery/telegram/app/http_client/polling.go
package http_client

import (
	"context"
	"net/http"
	"time"

	"game-topup-bot/internal/delivery/telegram"
)

// PollingClient клиент для long-polling запросов с увеличенным таймаутом
type PollingClient struct {
	*TelegramClient
}

// NewPollingClient создает клиент для getUpdates. HTTP таймаут должен
// быть больше timeout long-polling, иначе запрос обрывается раньше ответа.
func NewPollingClient(apiURL, token string, pollTimeout int) *PollingClient {
	c := NewTelegramClient(apiURL, token)
	c.httpClient = &http.Client{
		Timeout: time.Duration(pollTimeout+5) * time.Second,
	}
	return &PollingClient{TelegramClient: c}
}

// GetUpdates получает обновления начиная с offset
func (c *PollingClient) GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error) {
	params := map[string]interface{}{
		"offset":          offset,
		"timeout":         timeout,
		"allowed_updates": []string{"message", "callback_query"},
	}
	var updates []telegram.Update
	if err := c.Call(ctx, "getUpdates", params, &updates); err != nil {
		return nil, err
	}
	return updates, nil
}
