// internal/delivery/telegram/app/http_client/telegram.go
package http_client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"game-topup-bot/internal/delivery/telegram"
	"game-topup-bot/pkg/logger"
)

// ErrAPI - Bot API ответил ok=false
var ErrAPI = errors.New("telegram api error")

// maxRetryAfter - дольше этого на 429 не ждем
const maxRetryAfter = 30 * time.Second

// TelegramClient клиент для работы с Telegram Bot API
type TelegramClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.Logger
}

// NewTelegramClient создает клиент. apiURL - адрес Bot API без /bot<token>.
func NewTelegramClient(apiURL, token string) *TelegramClient {
	return &TelegramClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL: strings.TrimSuffix(apiURL, "/") + "/bot" + token + "/",
		logger:  logger.Named("telegram-api"),
	}
}

// SetTimeout устанавливает таймаут для клиента
func (c *TelegramClient) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// Call выполняет метод Bot API и раскладывает result в out (если out != nil).
// На 429 один раз ждет retry_after и повторяет запрос.
func (c *TelegramClient) Call(ctx context.Context, method string, params interface{}, out interface{}) error {
	err := c.call(ctx, method, params, out)

	var rl *rateLimitedError
	if errors.As(err, &rl) {
		wait := rl.retryAfter
		if wait > maxRetryAfter {
			wait = maxRetryAfter
		}
		c.logger.Warn("⚠️ Telegram API rate limit на %s, ждем %s", method, wait)
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
		return c.call(ctx, method, params, out)
	}
	return err
}

type rateLimitedError struct {
	retryAfter time.Duration
}

func (e *rateLimitedError) Error() string {
	return fmt.Sprintf("%v: too many requests, retry after %s", ErrAPI, e.retryAfter)
}

func (e *rateLimitedError) Unwrap() error { return ErrAPI }

func (c *TelegramClient) call(ctx context.Context, method string, params interface{}, out interface{}) error {
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal %s request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+method, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request to %s: %w", method, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("failed to read %s response: %w", method, err)
	}

	var envelope struct {
		telegram.APIResponse
		Result json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to parse %s response (HTTP %d): %w", method, resp.StatusCode, err)
	}

	if !envelope.OK {
		if envelope.ErrorCode == http.StatusTooManyRequests {
			retryAfter := 5
			if envelope.Parameters != nil && envelope.Parameters.RetryAfter > 0 {
				retryAfter = envelope.Parameters.RetryAfter
			}
			return &rateLimitedError{retryAfter: time.Duration(retryAfter) * time.Second}
		}
		return fmt.Errorf("%w: %s: %d %s", ErrAPI, method, envelope.ErrorCode, envelope.Description)
	}

	if out != nil && len(envelope.Result) > 0 {
		if err := json.Unmarshal(envelope.Result, out); err != nil {
			return fmt.Errorf("failed to decode %s result: %w", method, err)
		}
	}
	return nil
}

// SendMessage отправляет текст с необязательной inline клавиатурой
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string, keyboard *telegram.InlineKeyboardMarkup) error {
	params := map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	}
	if keyboard != nil {
		params["reply_markup"] = keyboard
	}
	return c.Call(ctx, "sendMessage", params, nil)
}

// AnswerCallbackQuery убирает "часики" на нажатой кнопке
func (c *TelegramClient) AnswerCallbackQuery(ctx context.Context, callbackID, text string) error {
	params := map[string]interface{}{
		"callback_query_id": callbackID,
	}
	if text != "" {
		params["text"] = text
	}
	return c.Call(ctx, "answerCallbackQuery", params, nil)
}

// SetMyCommands устанавливает меню команд
func (c *TelegramClient) SetMyCommands(ctx context.Context, commands []telegram.BotCommand) error {
	return c.Call(ctx, "setMyCommands", map[string]interface{}{"commands": commands}, nil)
}

// SetWebhook регистрирует URL для входящих обновлений
func (c *TelegramClient) SetWebhook(ctx context.Context, url, secret string) error {
	params := map[string]interface{}{
		"url":             url,
		"allowed_updates": []string{"message", "callback_query"},
	}
	if secret != "" {
		params["secret_token"] = secret
	}
	return c.Call(ctx, "setWebhook", params, nil)
}

// DeleteWebhook снимает webhook (нужно перед getUpdates)
func (c *TelegramClient) DeleteWebhook(ctx context.Context) error {
	return c.Call(ctx, "deleteWebhook", map[string]interface{}{"drop_pending_updates": false}, nil)
}

// GetMe проверяет токен
func (c *TelegramClient) GetMe(ctx context.Context) (*telegram.User, error) {
	var me telegram.User
	if err := c.Call(ctx, "getMe", map[string]interface{}{}, &me); err != nil {
		return nil, err
	}
	return &me, nil
}
