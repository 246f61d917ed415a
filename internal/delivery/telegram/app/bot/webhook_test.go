package bot

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"game-topup-bot/internal/delivery/telegram"

	"github.com/stretchr/testify/assert"
)

type stubSubmitter struct {
	got []*telegram.Update
	err error
}

func (s *stubSubmitter) Submit(_ context.Context, u *telegram.Update) error {
	if s.err != nil {
		return s.err
	}
	s.got = append(s.got, u)
	return nil
}

func postWebhook(h http.Handler, body, secret string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhook/telegram", strings.NewReader(body))
	if secret != "" {
		req.Header.Set(SecretTokenHeader, secret)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhookAcceptsUpdate(t *testing.T) {
	sub := &stubSubmitter{}
	h := NewWebhookHandler(sub, "s3cret", 0)

	rec := postWebhook(h, `{"update_id":77,"message":{"message_id":1,"chat":{"id":42},"text":"/start"}}`, "s3cret")

	assert.Equal(t, http.StatusOK, rec.Code)
	if assert.Len(t, sub.got, 1) {
		assert.Equal(t, int64(77), sub.got[0].UpdateID)
		assert.Equal(t, int64(42), sub.got[0].ChatID())
	}
}

func TestWebhookRejects(t *testing.T) {
	tests := []struct {
		name     string
		secret   string
		body     string
		maxBody  int64
		subErr   error
		wantCode int
	}{
		{"wrong secret", "nope", `{"update_id":1}`, 0, nil, http.StatusUnauthorized},
		{"missing secret", "", `{"update_id":1}`, 0, nil, http.StatusUnauthorized},
		{"bad json", "s3cret", `{not json`, 0, nil, http.StatusBadRequest},
		{"too large", "s3cret", `{"update_id":1,"pad":"` + strings.Repeat("x", 64) + `"}`, 32, nil, http.StatusRequestEntityTooLarge},
		{"queue closed", "s3cret", `{"update_id":1}`, 0, ErrDispatcherStopped, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := &stubSubmitter{err: tt.subErr}
			rec := postWebhook(NewWebhookHandler(sub, "s3cret", tt.maxBody), tt.body, tt.secret)
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Empty(t, sub.got)
		})
	}
}

func TestWebhookWithoutSecret(t *testing.T) {
	sub := &stubSubmitter{}
	rec := postWebhook(NewWebhookHandler(sub, "", 0), `{"update_id":1}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sub.got, 1)
}
