// internal/delivery/telegram/app/bot/webhook.go
package bot

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"game-topup-bot/internal/delivery/telegram"
	"game-topup-bot/pkg/logger"
)

// SecretTokenHeader - заголовок с secret_token, переданным в setWebhook
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler принимает обновления Telegram по HTTP
type WebhookHandler struct {
	submitter   UpdateSubmitter
	secret      string
	maxBodySize int64
	logger      *logger.Logger
}

// NewWebhookHandler создает обработчик. Пустой secret отключает проверку заголовка.
func NewWebhookHandler(submitter UpdateSubmitter, secret string, maxBodySize int64) *WebhookHandler {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &WebhookHandler{
		submitter:   submitter,
		secret:      secret,
		maxBodySize: maxBodySize,
		logger:      logger.Named("webhook"),
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	if h.secret != "" {
		got := r.Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("⚠️ Webhook без корректного secret token от %s", r.RemoteAddr)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		h.logger.Error("❌ Failed to read webhook body: %v", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	var update telegram.Update
	if err := json.Unmarshal(body, &update); err != nil {
		h.logger.Error("❌ Failed to parse webhook update: %v", err)
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	if err := h.submitter.Submit(r.Context(), &update); err != nil {
		h.logger.Error("❌ Failed to queue update %d: %v", update.UpdateID, err)
		http.Error(w, "Service unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
