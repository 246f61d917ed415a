// internal/delivery/http/server/callback.go
package server

import (
	"context"
	"errors"
	"io"
	"net/http"

	"game-topup-bot/internal/core/domain/reconciliation"
)

// CallbackProcessor - то, что умеет применить callback провайдера
type CallbackProcessor interface {
	Handle(ctx context.Context, headers http.Header, body []byte) (*reconciliation.Result, error)
}

// CallbackHandler принимает callback BOS StoreID.
//
// 400 - тело не JSON объект или нет ref_id, 401 - не прошла подпись,
// 413 - тело больше лимита, 500 - сбой журнала (провайдер повторит),
// 200 "OK" - статус записан или заказ неизвестен.
type CallbackHandler struct {
	processor   CallbackProcessor
	maxBodySize int64
}

func NewCallbackHandler(p CallbackProcessor, maxBodySize int64) *CallbackHandler {
	if maxBodySize <= 0 {
		maxBodySize = 1 << 20
	}
	return &CallbackHandler{processor: p, maxBodySize: maxBodySize}
}

func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}

	_, err = h.processor.Handle(r.Context(), r.Header, body)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	case errors.Is(err, reconciliation.ErrMalformedCallback):
		http.Error(w, "Missing ref_id", http.StatusBadRequest)
	case errors.Is(err, reconciliation.ErrUnauthorized):
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
	default:
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
