// internal/core/domain/topup/service.go
package topup

import (
	"context"
	"errors"
	"strings"
	"sync"

	"game-topup-bot/internal/core/domain/conversation"
	"game-topup-bot/internal/core/domain/notify"
	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/infrastructure/api/provider/bos"
	"game-topup-bot/internal/infrastructure/persistence/postgres/models"
	"game-topup-bot/pkg/logger"
)

// ErrInvalidSessionState - ввод не подходит к текущему шагу диалога.
// Наружу не выходит, превращается в подсказку пользователю.
var ErrInvalidSessionState = errors.New("invalid session state")

// OrderPlacer размещает заказ у провайдера
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, req bos.PlaceRequest) (*bos.PlaceResult, error)
}

// Dependencies зависимости сервиса
type Dependencies struct {
	Sessions conversation.Store
	Ledger   order.Ledger
	Provider OrderPlacer
	Catalog  *order.Catalog
	Notifier notify.Notifier
}

// Service ведет диалог оформления заказа и проверки статуса.
// Операции одного чата выполняются строго по очереди, разные чаты не
// блокируют друг друга.
//
// Методы возвращают только ошибки доставки сообщений. Ошибки состояния
// диалога, провайдера и журнала превращаются в ответ пользователю.
type Service struct {
	sessions conversation.Store
	ledger   order.Ledger
	provider OrderPlacer
	catalog  *order.Catalog
	notifier notify.Notifier
	locks    chatLocks
	logger   *logger.Logger
}

// NewService создает сервис пополнений
func NewService(deps Dependencies) *Service {
	catalog := deps.Catalog
	if catalog == nil {
		catalog = order.NewCatalog(order.DefaultProducts)
	}
	return &Service{
		sessions: deps.Sessions,
		ledger:   deps.Ledger,
		provider: deps.Provider,
		catalog:  catalog,
		notifier: deps.Notifier,
		logger:   logger.Named("topup"),
	}
}

// ShowMenu - приветствие и главное меню
func (s *Service) ShowMenu(ctx context.Context, chatID int64) error {
	return s.notifier.Notify(ctx, chatID, menuMessage())
}

// StartTopUp начинает оформление, заменяя любой незавершенный диалог
func (s *Service) StartTopUp(ctx context.Context, chatID int64) error {
	defer s.locks.lock(chatID)()

	if err := s.sessions.Set(ctx, chatID, &conversation.Session{Step: conversation.StepAwaitAccountID}); err != nil {
		return s.storageFailure(ctx, chatID, "start top-up", err)
	}
	return s.notifier.Notify(ctx, chatID, notify.Text(msgAskAccountID))
}

// StartStatusCheck переводит чат в ожидание ref_id
func (s *Service) StartStatusCheck(ctx context.Context, chatID int64) error {
	defer s.locks.lock(chatID)()

	if err := s.sessions.Set(ctx, chatID, &conversation.Session{Step: conversation.StepAwaitRefID}); err != nil {
		return s.storageFailure(ctx, chatID, "start status check", err)
	}
	return s.notifier.Notify(ctx, chatID, notify.Text(msgAskRefID))
}

// HandleText обрабатывает свободный текст. Без активного диалога текст игнорируется.
func (s *Service) HandleText(ctx context.Context, chatID int64, text string) error {
	defer s.locks.lock(chatID)()

	session, err := s.sessions.Get(ctx, chatID)
	if err != nil {
		return s.storageFailure(ctx, chatID, "load session", err)
	}
	if session == nil {
		return nil
	}

	text = strings.TrimSpace(text)

	switch session.Step {
	case conversation.StepAwaitAccountID:
		if text == "" {
			return s.notifier.Notify(ctx, chatID, notify.Text(msgEmptyInput))
		}
		session.TargetAccountID = text
		session.Step = conversation.StepAwaitAmount
		if err := s.sessions.Set(ctx, chatID, session); err != nil {
			return s.storageFailure(ctx, chatID, "save account id", err)
		}
		return s.notifier.Notify(ctx, chatID, amountMessage(text, s.catalog))

	case conversation.StepAwaitRefID:
		if text == "" {
			return s.notifier.Notify(ctx, chatID, notify.Text(msgEmptyInput))
		}
		return s.lookupOrder(ctx, chatID, text)

	case conversation.StepAwaitAmount:
		return s.notifier.Notify(ctx, chatID, notify.Text(msgUseAmountButtons))

	case conversation.StepAwaitConfirm:
		return s.notifier.Notify(ctx, chatID, notify.Text(msgUseConfirmButton))

	default:
		s.logger.Warn("⚠️ Неизвестный шаг %q в чате %d, сессия сброшена", session.Step, chatID)
		return s.deleteSession(ctx, chatID)
	}
}

// SelectAmount запоминает номинал. Допустимо после ввода аккаунта,
// в том числе повторный выбор на шаге подтверждения.
func (s *Service) SelectAmount(ctx context.Context, chatID int64, amountCode string) error {
	defer s.locks.lock(chatID)()

	session, err := s.sessions.Get(ctx, chatID)
	if err != nil {
		return s.storageFailure(ctx, chatID, "load session", err)
	}

	amountCode = strings.TrimSpace(amountCode)
	if err := checkAmountSelectable(session, amountCode); err != nil {
		s.logger.Debug("Выбор номинала в чате %d отклонен: %v", chatID, err)
		return s.notifier.Notify(ctx, chatID, notify.Text(msgRestartTopUp))
	}

	session.AmountCode = amountCode
	session.SkuCode = s.catalog.Resolve(amountCode)
	session.Step = conversation.StepAwaitConfirm
	if err := s.sessions.Set(ctx, chatID, session); err != nil {
		return s.storageFailure(ctx, chatID, "save amount", err)
	}
	return s.notifier.Notify(ctx, chatID, confirmMessage(session.TargetAccountID, amountCode))
}

// Confirm размещает заказ у провайдера и записывает его в журнал.
// Сессия удаляется до вызова провайдера, так что повторное нажатие
// кнопки не создаст второй заказ.
func (s *Service) Confirm(ctx context.Context, chatID int64) error {
	defer s.locks.lock(chatID)()

	session, err := s.sessions.Get(ctx, chatID)
	if err != nil {
		return s.storageFailure(ctx, chatID, "load session", err)
	}
	if err := checkConfirmable(session); err != nil {
		s.logger.Debug("Подтверждение в чате %d отклонено: %v", chatID, err)
		return s.notifier.Notify(ctx, chatID, notify.Text(msgNoPendingOrder))
	}

	if err := s.sessions.Delete(ctx, chatID); err != nil {
		return s.storageFailure(ctx, chatID, "delete session", err)
	}

	if err := s.notifier.Notify(ctx, chatID, notify.Text(msgProcessing)); err != nil {
		s.logger.Warn("⚠️ Не удалось отправить сообщение об обработке в чат %d: %v", chatID, err)
	}

	sku := session.SkuCode
	if sku == "" {
		sku = s.catalog.Resolve(session.AmountCode)
	}

	result, err := s.provider.PlaceOrder(ctx, bos.PlaceRequest{
		TargetAccountID: session.TargetAccountID,
		SkuCode:         sku,
	})
	if err != nil {
		s.logger.Error("❌ Ошибка размещения заказа для чата %d: %v", chatID, err)
		return s.notifier.Notify(ctx, chatID, notify.Text(msgProviderFailed))
	}

	o := &models.Order{
		RefID:           result.RefID,
		ChatID:          chatID,
		TargetAccountID: session.TargetAccountID,
		AmountCode:      session.AmountCode,
		SkuCode:         sku,
		Status:          models.NormalizeStatus(string(result.Status)),
		RawResponse:     result.RawResponse,
	}
	if err := s.ledger.Insert(ctx, o); err != nil {
		if errors.Is(err, order.ErrDuplicateKey) {
			s.logger.Error("❌ Коллизия ref_id %s, заказ не записан: %v", o.RefID, err)
		} else {
			s.logger.Error("❌ Заказ %s принят провайдером, но не записан: %v", o.RefID, err)
		}
		return s.notifier.Notify(ctx, chatID, notRecordedMessage(o.RefID))
	}

	s.logger.Info("🧾 Заказ %s записан: чат %d, sku %s, статус %s", o.RefID, chatID, sku, o.Status)
	return s.notifier.Notify(ctx, chatID, placedMessage(o.RefID, o.Status))
}

// Cancel сбрасывает незавершенный диалог
func (s *Service) Cancel(ctx context.Context, chatID int64) error {
	defer s.locks.lock(chatID)()

	session, err := s.sessions.Get(ctx, chatID)
	if err != nil {
		return s.storageFailure(ctx, chatID, "load session", err)
	}
	if session == nil {
		return s.notifier.Notify(ctx, chatID, notify.Text(msgNothingToCancel))
	}
	if err := s.sessions.Delete(ctx, chatID); err != nil {
		return s.storageFailure(ctx, chatID, "delete session", err)
	}
	return s.notifier.Notify(ctx, chatID, notify.Text(msgCancelled))
}

// ListOrders показывает последние заказы чата
func (s *Service) ListOrders(ctx context.Context, chatID int64, limit int) error {
	orders, err := s.ledger.ListByChat(ctx, chatID, limit)
	if err != nil {
		s.logger.Error("❌ Ошибка получения заказов чата %d: %v", chatID, err)
		return s.notifier.Notify(ctx, chatID, notify.Text(msgStorageError))
	}
	return s.notifier.Notify(ctx, chatID, orderListMessage(orders))
}

// CheckStatus отвечает статусом заказа без изменения диалога (/status <ref_id>)
func (s *Service) CheckStatus(ctx context.Context, chatID int64, refID string) error {
	refID = strings.TrimSpace(refID)
	if refID == "" {
		return s.StartStatusCheck(ctx, chatID)
	}
	return s.replyOrderStatus(ctx, chatID, refID)
}

// lookupOrder отвечает статусом заказа и в любом случае закрывает диалог
func (s *Service) lookupOrder(ctx context.Context, chatID int64, refID string) error {
	if err := s.sessions.Delete(ctx, chatID); err != nil {
		s.logger.Error("❌ Не удалось удалить сессию чата %d: %v", chatID, err)
	}
	return s.replyOrderStatus(ctx, chatID, refID)
}

func (s *Service) replyOrderStatus(ctx context.Context, chatID int64, refID string) error {
	o, lookupErr := s.ledger.Get(ctx, refID)

	switch {
	case lookupErr == nil:
		return s.notifier.Notify(ctx, chatID, orderStatusMessage(o))
	case errors.Is(lookupErr, order.ErrNotFound):
		return s.notifier.Notify(ctx, chatID, notify.Text(msgRefNotFound))
	default:
		s.logger.Error("❌ Ошибка чтения заказа %s: %v", refID, lookupErr)
		return s.notifier.Notify(ctx, chatID, notify.Text(msgStorageError))
	}
}

func (s *Service) deleteSession(ctx context.Context, chatID int64) error {
	if err := s.sessions.Delete(ctx, chatID); err != nil {
		return s.storageFailure(ctx, chatID, "delete session", err)
	}
	return nil
}

// storageFailure логирует сбой хранилища сессий и сообщает о нем пользователю
func (s *Service) storageFailure(ctx context.Context, chatID int64, op string, err error) error {
	s.logger.Error("❌ Session store: %s (чат %d): %v", op, chatID, err)
	return s.notifier.Notify(ctx, chatID, notify.Text(msgStorageError))
}

func checkAmountSelectable(session *conversation.Session, amountCode string) error {
	switch {
	case session == nil:
		return ErrInvalidSessionState
	case session.Step != conversation.StepAwaitAmount && session.Step != conversation.StepAwaitConfirm:
		return ErrInvalidSessionState
	case session.TargetAccountID == "" || amountCode == "":
		return ErrInvalidSessionState
	}
	return nil
}

func checkConfirmable(session *conversation.Session) error {
	switch {
	case session == nil:
		return ErrInvalidSessionState
	case session.Step != conversation.StepAwaitConfirm:
		return ErrInvalidSessionState
	case session.TargetAccountID == "" || session.AmountCode == "":
		return ErrInvalidSessionState
	}
	return nil
}

// chatLocks - по мьютексу на чат, создаются лениво
type chatLocks struct {
	mu    sync.Mutex
	locks map[int64]*chatLock
}

type chatLock struct {
	mu   sync.Mutex
	refs int
}

// lock захватывает мьютекс чата и возвращает функцию освобождения
func (c *chatLocks) lock(chatID int64) func() {
	c.mu.Lock()
	if c.locks == nil {
		c.locks = make(map[int64]*chatLock)
	}
	l, ok := c.locks[chatID]
	if !ok {
		l = &chatLock{}
		c.locks[chatID] = l
	}
	l.refs++
	c.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		c.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(c.locks, chatID)
		}
		c.mu.Unlock()
	}
}
