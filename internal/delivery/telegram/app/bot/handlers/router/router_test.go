package router

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name   string
	params HandlerParams
}

func newRecordingRouter() (Router, *[]call) {
	var calls []call
	rec := func(name string) HandlerFunc {
		return func(_ context.Context, p HandlerParams) error {
			calls = append(calls, call{name, p})
			return nil
		}
	}
	r := NewRouter()
	r.RegisterCommand("start", rec("start"))
	r.RegisterCommand("/status", rec("status"))
	r.RegisterCallback("confirm_order", rec("confirm"))
	r.RegisterCallback("select_amount", rec("amount"))
	r.SetFallback(rec("text"))
	return r, &calls
}

func TestHandleRouting(t *testing.T) {
	tests := []struct {
		input    string
		data     bool
		wantName string
		wantArg  string
	}{
		{"/start", false, "start", ""},
		{"/start@topup_bot", false, "start", ""},
		{"/status ABC-1", false, "status", "ABC-1"},
		{"confirm_order", true, "confirm", ""},
		{"select_amount:60M", true, "amount", "60M"},
		{"123456789", false, "text", ""},
		{"/unknown", false, "text", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			r, calls := newRecordingRouter()
			params := HandlerParams{ChatID: 7, Text: tt.input}
			if tt.data {
				params = HandlerParams{ChatID: 7, Data: tt.input}
			}

			require.NoError(t, r.Handle(context.Background(), tt.input, params))
			require.Len(t, *calls, 1)
			assert.Equal(t, tt.wantName, (*calls)[0].name)
			assert.Equal(t, tt.wantArg, (*calls)[0].params.Arg)
			assert.Equal(t, int64(7), (*calls)[0].params.ChatID)
		})
	}
}

func TestUnknownCallbackHasNoFallback(t *testing.T) {
	r, calls := newRecordingRouter()

	err := r.Handle(context.Background(), "menu_prices", HandlerParams{Data: "menu_prices"})

	assert.ErrorIs(t, err, ErrNoHandler)
	assert.Empty(t, *calls)
}

func TestMessageTextNeverTriggersCallback(t *testing.T) {
	texts := []string{"confirm_order", "select_amount:30M", "select_amount", "/confirm_order"}

	for _, text := range texts {
		t.Run(text, func(t *testing.T) {
			r, calls := newRecordingRouter()

			require.NoError(t, r.Handle(context.Background(), text, HandlerParams{ChatID: 7, Text: text}))
			require.Len(t, *calls, 1)
			assert.Equal(t, "text", (*calls)[0].name)
			assert.Equal(t, text, (*calls)[0].params.Text)
			assert.Empty(t, (*calls)[0].params.Arg)
		})
	}
}

func TestCallbackDataNeverTriggersCommand(t *testing.T) {
	r, calls := newRecordingRouter()

	err := r.Handle(context.Background(), "/start", HandlerParams{Data: "/start"})

	assert.ErrorIs(t, err, ErrNoHandler)
	assert.Empty(t, *calls)
}

func TestHandlerErrorPropagates(t *testing.T) {
	r := NewRouter()
	boom := errors.New("boom")
	r.RegisterCommand("/start", func(context.Context, HandlerParams) error { return boom })

	assert.ErrorIs(t, r.Handle(context.Background(), "/start", HandlerParams{}), boom)
}

func TestGetCommands(t *testing.T) {
	r, _ := newRecordingRouter()
	assert.Equal(t, []string{"/start", "/status"}, r.GetCommands())
}
