package topup

import (
	"context"
	"testing"

	"game-topup-bot/internal/delivery/telegram/app/bot/handlers/router"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingService struct {
	calls []string
}

func (s *recordingService) record(call string) error {
	s.calls = append(s.calls, call)
	return nil
}

func (s *recordingService) ShowMenu(context.Context, int64) error   { return s.record("menu") }
func (s *recordingService) StartTopUp(context.Context, int64) error { return s.record("topup") }
func (s *recordingService) StartStatusCheck(context.Context, int64) error {
	return s.record("status")
}
func (s *recordingService) CheckStatus(_ context.Context, _ int64, ref string) error {
	return s.record("check:" + ref)
}
func (s *recordingService) HandleText(_ context.Context, _ int64, text string) error {
	return s.record("text:" + text)
}
func (s *recordingService) SelectAmount(_ context.Context, _ int64, code string) error {
	return s.record("amount:" + code)
}
func (s *recordingService) Confirm(context.Context, int64) error { return s.record("confirm") }
func (s *recordingService) Cancel(context.Context, int64) error  { return s.record("cancel") }
func (s *recordingService) ListOrders(_ context.Context, _ int64, limit int) error {
	return s.record("orders")
}

func TestRegisterRoutes(t *testing.T) {
	tests := []struct {
		input string
		data  bool
		want  string
	}{
		{"/start", false, "menu"},
		{"/topup", false, "topup"},
		{"/status", false, "check:"},
		{"/status REF-9", false, "check:REF-9"},
		{"/orders", false, "orders"},
		{"/cancel", false, "cancel"},
		{"menu_topup", true, "topup"},
		{"menu_status", true, "status"},
		{"select_amount:200M", true, "amount:200M"},
		{"confirm_order", true, "confirm"},
		{"cancel_order", true, "cancel"},
		{"987654321", false, "text:987654321"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			svc := &recordingService{}
			r := router.NewRouter()
			Register(r, svc)

			params := router.HandlerParams{ChatID: 1, Text: tt.input}
			if tt.data {
				params = router.HandlerParams{ChatID: 1, Data: tt.input}
			}
			require.NoError(t, r.Handle(context.Background(), tt.input, params))
			assert.Equal(t, []string{tt.want}, svc.calls)
		})
	}
}
