package message_sender

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/delivery/telegram"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sentMessage struct {
	chatID   int64
	text     string
	keyboard *telegram.InlineKeyboardMarkup
}

type fakeClient struct {
	mu       sync.Mutex
	sent     []sentMessage
	answered []string
	err      error
}

func (c *fakeClient) SendMessage(_ context.Context, chatID int64, text string, kb *telegram.InlineKeyboardMarkup) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, sentMessage{chatID, text, kb})
	return nil
}

func (c *fakeClient) AnswerCallbackQuery(_ context.Context, id, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answered = append(c.answered, id)
	return nil
}

func TestNotifyConvertsButtons(t *testing.T) {
	client := &fakeClient{}
	ms := NewMessageSender(client, 0)

	err := ms.Notify(context.Background(), 42, notify.Message{
		Text:    "Pilih nominal:",
		Buttons: [][]notify.Button{{{Text: "30M", Data: "select_amount:30M"}}},
	})

	require.NoError(t, err)
	require.Len(t, client.sent, 1)
	assert.Equal(t, int64(42), client.sent[0].chatID)
	require.NotNil(t, client.sent[0].keyboard)
	assert.Equal(t, "select_amount:30M", client.sent[0].keyboard.InlineKeyboard[0][0].CallbackData)
}

func TestNotifyPlainText(t *testing.T) {
	client := &fakeClient{}
	require.NoError(t, NewMessageSender(client, 0).Notify(context.Background(), 1, notify.Text("ok")))
	assert.Nil(t, client.sent[0].keyboard)
}

func TestNotifyPropagatesError(t *testing.T) {
	client := &fakeClient{err: errors.New("blocked by user")}
	err := NewMessageSender(client, 0).Notify(context.Background(), 1, notify.Text("x"))
	assert.EqualError(t, err, "blocked by user")
}

func TestNotifyRateLimited(t *testing.T) {
	client := &fakeClient{}
	ms := NewMessageSender(client, 1)

	require.NoError(t, ms.Notify(context.Background(), 1, notify.Text("first")))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := ms.Notify(ctx, 1, notify.Text("second"))

	assert.Error(t, err)
	assert.Len(t, client.sent, 1)
}

func TestTestModeSkipsClient(t *testing.T) {
	client := &fakeClient{}
	ms := NewMessageSender(client, 0)
	ms.SetTestMode(true)

	require.NoError(t, ms.Notify(context.Background(), 1, notify.Text("x")))
	require.NoError(t, ms.AnswerCallback(context.Background(), "cb"))
	assert.Empty(t, client.sent)
	assert.Empty(t, client.answered)
}

func TestAnswerCallback(t *testing.T) {
	client := &fakeClient{}
	ms := NewMessageSender(client, 0)

	require.NoError(t, ms.AnswerCallback(context.Background(), "cb1"))
	require.NoError(t, ms.AnswerCallback(context.Background(), ""))
	assert.Equal(t, []string{"cb1"}, client.answered)
}
