package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/core/domain/reconciliation"
	in_memory_storage "game-topup-bot/internal/infrastructure/persistence/in_memory_storage"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededLedger(t *testing.T) *in_memory_storage.InMemoryOrderLedger {
	t.Helper()
	ledger := in_memory_storage.NewInMemoryOrderLedger()
	require.NoError(t, ledger.Insert(context.Background(), &models.Order{
		RefID:           "ref-1",
		ChatID:          42,
		TargetAccountID: "12345678",
		AmountCode:      "30M",
		SkuCode:         "HD30M",
		Status:          models.OrderStatusPending,
	}))
	return ledger
}

func TestRunOrderGetTable(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runOrderGet(context.Background(), seededLedger(t), &out, "ref-1", false))

	assert.Contains(t, out.String(), "ref-1")
	assert.Contains(t, out.String(), "12345678")
	assert.Contains(t, out.String(), "30M (HD30M)")
	assert.Contains(t, out.String(), "pending")
}

func TestRunOrderGetJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runOrderGet(context.Background(), seededLedger(t), &out, "ref-1", true))

	var decoded models.Order
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Equal(t, int64(42), decoded.ChatID)
	assert.Equal(t, models.OrderStatusPending, decoded.Status)
}

func TestRunOrderGetUnknown(t *testing.T) {
	var out bytes.Buffer
	err := runOrderGet(context.Background(), seededLedger(t), &out, "missing", false)
	assert.ErrorIs(t, err, order.ErrNotFound)
}

func TestRunOrderListEmptyChat(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runOrderList(context.Background(), seededLedger(t), &out, 7, 10))
	assert.Contains(t, out.String(), "нет заказов")
}

func TestRunOrderList(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, runOrderList(context.Background(), seededLedger(t), &out, 42, 10))
	assert.Contains(t, out.String(), "REF_ID")
	assert.Contains(t, out.String(), "ref-1")
}

func TestRunSetStatusUpdatesAndNotifies(t *testing.T) {
	ledger := seededLedger(t)
	var notified []int64
	rec := reconciliation.NewReconciler(ledger, notify.NotifierFunc(func(_ context.Context, chatID int64, _ notify.Message) error {
		notified = append(notified, chatID)
		return nil
	}), nil)

	var out bytes.Buffer
	require.NoError(t, runSetStatus(context.Background(), rec, &out, "ref-1", "success"))

	o, err := ledger.Get(context.Background(), "ref-1")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusSuccess, o.Status)
	assert.Contains(t, string(o.RawResponse), "topupctl")
	assert.Equal(t, []int64{42}, notified)
	assert.Contains(t, out.String(), "ref-1 -> success")
}

func TestRunSetStatusUnknownOrder(t *testing.T) {
	rec := reconciliation.NewReconciler(seededLedger(t), discardNotifier, nil)

	var out bytes.Buffer
	err := runSetStatus(context.Background(), rec, &out, "missing", "success")
	assert.ErrorIs(t, err, order.ErrNotFound)
	assert.Empty(t, out.String())
}
