// internal/delivery/telegram/app/bot/constants/constants.go
package constants

// Команды бота
const (
	CommandStart  = "/start"
	CommandTopUp  = "/topup"
	CommandStatus = "/status"
	CommandOrders = "/orders"
	CommandCancel = "/cancel"
)

// CommandDescriptions - описания для меню команд Telegram
var CommandDescriptions = struct {
	Start  string
	TopUp  string
	Status string
	Orders string
	Cancel string
}{
	Start:  "Menu utama",
	TopUp:  "Top Up Higgs Domino",
	Status: "Cek status pesanan",
	Orders: "Pesanan terakhir",
	Cancel: "Batalkan pesanan",
}

// OrdersListLimit - сколько заказов показывает /orders
const OrdersListLimit = 5
