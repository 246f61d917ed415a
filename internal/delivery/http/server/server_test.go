package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/core/domain/reconciliation"
	"game-topup-bot/internal/infrastructure/config"
	storage "game-topup-bot/internal/infrastructure/persistence/in_memory_storage"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProcessor struct {
	err   error
	calls int
	body  []byte
}

func (p *stubProcessor) Handle(_ context.Context, _ http.Header, body []byte) (*reconciliation.Result, error) {
	p.calls++
	p.body = body
	if p.err != nil {
		return nil, p.err
	}
	return &reconciliation.Result{}, nil
}

func testConfig() config.HTTPConfig {
	return config.HTTPConfig{
		Port:           0,
		CallbackPath:   "/webhook/bos",
		MaxBodySize:    64,
		RequestTimeout: 5 * time.Second,
	}
}

func newTestServer(p CallbackProcessor) *Server {
	cfg := testConfig()
	s := New(cfg)
	s.HandleCallback(NewCallbackHandler(p, cfg.MaxBodySize))
	return s
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCallbackStatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantBody string
	}{
		{"ok", nil, http.StatusOK, "OK"},
		{"malformed", reconciliation.ErrMalformedCallback, http.StatusBadRequest, "Missing ref_id"},
		{"unauthorized", reconciliation.ErrUnauthorized, http.StatusUnauthorized, "Unauthorized"},
		{"ledger failure", errors.New("connection refused"), http.StatusInternalServerError, "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &stubProcessor{err: tt.err}
			rec := post(t, newTestServer(p).Handler(), "/webhook/bos", `{"ref_id":"R1"}`)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			assert.Equal(t, 1, p.calls)
			assert.Equal(t, `{"ref_id":"R1"}`, string(p.body))
		})
	}
}

func TestCallbackBodyTooLarge(t *testing.T) {
	p := &stubProcessor{}
	body := `{"ref_id":"R1","pad":"` + strings.Repeat("x", 128) + `"}`

	rec := post(t, newTestServer(p).Handler(), "/webhook/bos", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, p.calls)
}

func TestCallbackRejectsGet(t *testing.T) {
	p := &stubProcessor{}
	req := httptest.NewRequest(http.MethodGet, "/webhook/bos", nil)
	rec := httptest.NewRecorder()

	newTestServer(p).Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Zero(t, p.calls)
}

func TestCallbackEndToEnd(t *testing.T) {
	ctx := context.Background()
	ledger := storage.NewInMemoryOrderLedger()
	require.NoError(t, ledger.Insert(ctx, &models.Order{
		RefID:  "R1",
		ChatID: 42,
		Status: models.OrderStatusPending,
	}))

	var sent []string
	notifier := notify.NotifierFunc(func(_ context.Context, chatID int64, msg notify.Message) error {
		sent = append(sent, msg.Text)
		return nil
	})
	rec := reconciliation.NewReconciler(ledger, notifier, reconciliation.NoopVerifier{})

	resp := post(t, newTestServer(rec).Handler(), "/webhook/bos", `{"ref_id":"R1","status":"success"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	got, err := ledger.Get(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSuccess, got.Status)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0], "R1")

	resp = post(t, newTestServer(rec).Handler(), "/webhook/bos", `{"ref_id":"NOPE","status":"success"}`)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = post(t, newTestServer(rec).Handler(), "/webhook/bos", `{"status":"success"}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	_, err = ledger.Get(ctx, "NOPE")
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestHealth(t *testing.T) {
	s := newTestServer(&stubProcessor{})
	s.AddHealthCheck("postgres", func(context.Context) error { return nil })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "ok", body.Checks["postgres"])
}

func TestHealthDegraded(t *testing.T) {
	s := newTestServer(&stubProcessor{})
	s.AddHealthCheck("redis", func(context.Context) error { return errors.New("dial tcp: refused") })

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}

func TestWebhookMount(t *testing.T) {
	s := newTestServer(&stubProcessor{})
	hit := false
	s.HandleWebhook("/webhook/telegram", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hit = true
		w.WriteHeader(http.StatusOK)
	}))

	rec := post(t, s.Handler(), "/webhook/telegram", `{}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, hit)
}

func TestStartStop(t *testing.T) {
	s := newTestServer(&stubProcessor{})
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
