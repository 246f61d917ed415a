package buttons

import (
	"testing"

	"game-topup-bot/internal/core/domain/notify"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMessage(t *testing.T) {
	b := NewButtonBuilder()

	assert.Nil(t, b.FromMessage(notify.Text("plain")))
	assert.Nil(t, b.FromMessage(notify.Message{Text: "x", Buttons: [][]notify.Button{{}}}))

	kb := b.FromMessage(notify.Message{
		Text: "Konfirmasi?",
		Buttons: [][]notify.Button{
			{{Text: "Konfirmasi", Data: "confirm_order"}, {Text: "Batal", Data: "cancel_order"}},
			{},
		},
	})
	require.NotNil(t, kb)
	require.Len(t, kb.InlineKeyboard, 1)
	assert.Equal(t, "confirm_order", kb.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "Batal", kb.InlineKeyboard[0][1].Text)
}
