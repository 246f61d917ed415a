// internal/core/domain/topup/messages.go
package topup

import (
	"fmt"
	"strings"

	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"
)

// Данные кнопок, которые приходят обратно как callback_data
const (
	ActionStartTopUp       = "menu_topup"
	ActionStartStatusCheck = "menu_status"
	ActionSelectAmount     = "select_amount" // select_amount:<код номинала>
	ActionConfirm          = "confirm_order"
	ActionCancel           = "cancel_order"
)

// Тексты для пользователей (аудитория Higgs Domino, индонезийский)
const (
	msgWelcome          = "Selamat datang di Bot Top Up Higgs Domino!"
	msgAskAccountID     = "Masukkan User ID Higgs Domino Anda (contoh: 123456789):"
	msgAskRefID         = "Masukkan Ref ID pesanan Anda:"
	msgEmptyInput       = "Input kosong. Silakan kirim ulang."
	msgUseAmountButtons = "Silakan pilih nominal menggunakan tombol di atas."
	msgUseConfirmButton = "Silakan konfirmasi atau batalkan pesanan menggunakan tombol di atas."
	msgRestartTopUp     = "Silakan mulai dari /start dan pilih Top Up terlebih dahulu."
	msgNoPendingOrder   = "Tidak ada pesanan ditemukan. Mulai ulang dengan /start."
	msgProcessing       = "Memproses pesanan Anda..."
	msgProviderFailed   = "Terjadi kesalahan saat menghubungi BOS StoreID. Silakan coba lagi nanti."
	msgCancelled        = "Pesanan dibatalkan."
	msgNothingToCancel  = "Tidak ada pesanan aktif."
	msgRefNotFound      = "Ref ID tidak ditemukan."
	msgStorageError     = "Terjadi kesalahan saat mengakses database."
	msgNoOrders         = "Anda belum memiliki pesanan."
)

func menuMessage() notify.Message {
	return notify.Message{
		Text: msgWelcome,
		Buttons: [][]notify.Button{
			{{Text: "Top Up Higgs Domino", Data: ActionStartTopUp}},
			{{Text: "Cek Status Pesanan", Data: ActionStartStatusCheck}},
		},
	}
}

func amountMessage(accountID string, catalog *order.Catalog) notify.Message {
	var rows [][]notify.Button
	for _, p := range catalog.Products() {
		rows = append(rows, []notify.Button{{Text: p.Code, Data: ActionSelectAmount + ":" + p.Code}})
	}
	return notify.Message{
		Text:    fmt.Sprintf("User ID diset: %s\nPilih nominal:", accountID),
		Buttons: rows,
	}
}

func confirmMessage(accountID, amountCode string) notify.Message {
	return notify.Message{
		Text: fmt.Sprintf("Konfirmasi Pesanan:\nUser ID: %s\nNominal: %s", accountID, amountCode),
		Buttons: [][]notify.Button{
			{{Text: "✅ Konfirmasi", Data: ActionConfirm}},
			{{Text: "❌ Batal", Data: ActionCancel}},
		},
	}
}

func placedMessage(refID string, status models.OrderStatus) notify.Message {
	return notify.Text(fmt.Sprintf("Pesanan dibuat!\nRef ID: %s\nStatus awal: %s", refID, status))
}

func notRecordedMessage(refID string) notify.Message {
	return notify.Text(fmt.Sprintf(
		"Pesanan dikirim ke BOS StoreID, tetapi gagal dicatat.\nRef ID: %s\nSimpan Ref ID ini dan hubungi admin.", refID))
}

func orderStatusMessage(o *models.Order) notify.Message {
	return notify.Text(fmt.Sprintf("Status pesanan %s:\nStatus: %s\nNominal: %s\nUser: %s",
		o.RefID, o.Status, o.AmountCode, o.TargetAccountID))
}

func orderListMessage(orders []*models.Order) notify.Message {
	if len(orders) == 0 {
		return notify.Text(msgNoOrders)
	}
	var b strings.Builder
	b.WriteString("Pesanan terakhir Anda:")
	for _, o := range orders {
		fmt.Fprintf(&b, "\n• %s | %s | %s | %s", o.RefID, o.AmountCode, o.TargetAccountID, o.Status)
	}
	return notify.Text(b.String())
}
