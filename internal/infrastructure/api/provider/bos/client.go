// internal/infrastructure/api/provider/bos/client.go
package bos

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"
	"game-topup-bot/pkg/logger"
)

// ErrTransport - заказ не удалось передать провайдеру или разобрать ответ.
// Заказ в таком случае не считается размещенным.
var ErrTransport = errors.New("provider transport failure")

const maxResponseSize = 1 << 20

// ============================================
// BOS STOREID CLIENT
// ============================================

// PlaceRequest - что покупаем и для кого
type PlaceRequest struct {
	TargetAccountID string
	SkuCode         string
}

// PlaceResult - ответ провайдера на размещение заказа
type PlaceResult struct {
	RefID       string
	Status      models.OrderStatus
	RawResponse models.RawJSON
}

type orderPayload struct {
	Username string `json:"username"`
	RefID    string `json:"ref_id"`
	UserID   string `json:"userid"`
	SkuCode  string `json:"sku_code"`
	Sign     string `json:"sign"`
}

type statusEnvelope struct {
	Status json.RawMessage `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Client - клиент API пополнений BOS StoreID.
// Ничего не сохраняет, запись в журнал делает вызывающий код.
type Client struct {
	httpClient *http.Client
	apiURL     string
	username   string
	apiKey     string
	timeout    time.Duration
	refIDs     order.RefIDGenerator
	logger     *logger.Logger
}

// NewClient создает клиент провайдера
func NewClient(cfg config.ProviderConfig, refIDs order.RefIDGenerator) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		apiURL:   cfg.APIURL,
		username: cfg.Username,
		apiKey:   cfg.APIKey,
		timeout:  timeout,
		refIDs:   refIDs,
		logger:   logger.Named("bos"),
	}
}

// PlaceOrder генерирует ref_id, подписывает и отправляет заказ.
// Любая сетевая ошибка, таймаут, не-2xx ответ или тело, не являющееся
// JSON объектом, возвращаются как ErrTransport.
func (c *Client) PlaceOrder(ctx context.Context, req PlaceRequest) (*PlaceResult, error) {
	refID := c.refIDs.NewRefID()

	payload := orderPayload{
		Username: c.username,
		RefID:    refID,
		UserID:   req.TargetAccountID,
		SkuCode:  req.SkuCode,
		Sign:     Sign(c.username, c.apiKey, refID),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "GameTopUpBot/1.0")

	c.logger.Debug("📤 Размещение заказа %s: sku=%s", refID, req.SkuCode)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: request failed: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: API returned status %d: %s", ErrTransport, resp.StatusCode, truncate(respBody, 256))
	}

	status, err := ExtractStatus(respBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransport, err)
	}

	c.logger.Info("✅ Заказ %s принят провайдером, статус: %s", refID, status)

	return &PlaceResult{
		RefID:       refID,
		Status:      status,
		RawResponse: models.RawJSON(respBody),
	}, nil
}

// Sign - hex(md5(username + apiKey + refID))
func Sign(username, apiKey, refID string) string {
	sum := md5.Sum([]byte(username + apiKey + refID))
	return hex.EncodeToString(sum[:])
}

// ExtractStatus достает статус из JSON объекта: сначала status верхнего
// уровня, затем data.status. Отсутствующий или пустой статус дает unknown.
// Тело, не являющееся JSON объектом, считается ошибкой.
func ExtractStatus(body []byte) (models.OrderStatus, error) {
	if trimmed := bytes.TrimSpace(body); len(trimmed) == 0 || trimmed[0] != '{' {
		return "", errors.New("malformed response body: not a JSON object")
	}
	var env statusEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return "", fmt.Errorf("malformed response body: %w", err)
	}

	return models.StatusFromJSON(env.Status, env.Data), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
