// internal/delivery/telegram/app/bot/dispatcher.go
package bot

import (
	"context"
	"errors"
	"sync"

	"game-topup-bot/internal/delivery/telegram"
	"game-topup-bot/pkg/logger"
)

// ErrDispatcherStopped - Submit после Stop
var ErrDispatcherStopped = errors.New("dispatcher stopped")

// UpdateHandler обрабатывает обновление
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update *telegram.Update) error
}

// Dispatcher раскладывает обновления по воркерам по chat_id.
// Обновления одного чата обрабатываются строго по очереди,
// разные чаты - параллельно.
type Dispatcher struct {
	handler UpdateHandler
	queues  []chan *telegram.Update
	wg      sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
	logger  *logger.Logger
}

// NewDispatcher создает диспетчер с workers воркерами и буфером queueSize на каждый
func NewDispatcher(handler UpdateHandler, workers, queueSize int) *Dispatcher {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = 64
	}
	d := &Dispatcher{
		handler: handler,
		queues:  make([]chan *telegram.Update, workers),
		logger:  logger.Named("dispatcher"),
	}
	for i := range d.queues {
		d.queues[i] = make(chan *telegram.Update, queueSize)
	}
	return d
}

// Start запускает воркеров. ctx передается в обработчики.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, q := range d.queues {
		d.wg.Add(1)
		go d.worker(ctx, i, q)
	}
	d.logger.Info("✅ Диспетчер обновлений запущен (%d воркеров)", len(d.queues))
}

// Submit ставит обновление в очередь его чата. Блокируется, если очередь полна.
func (d *Dispatcher) Submit(ctx context.Context, update *telegram.Update) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		return ErrDispatcherStopped
	}

	q := d.queues[d.shard(update.ChatID())]
	select {
	case q <- update:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stop закрывает очереди и ждет, пока воркеры обработают остаток
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, q := range d.queues {
		close(q)
	}
	d.mu.Unlock()

	d.wg.Wait()
	d.logger.Info("🛑 Диспетчер обновлений остановлен")
}

func (d *Dispatcher) shard(chatID int64) int {
	return int(uint64(chatID) % uint64(len(d.queues)))
}

func (d *Dispatcher) worker(ctx context.Context, id int, q <-chan *telegram.Update) {
	defer d.wg.Done()
	for update := range q {
		d.process(ctx, id, update)
	}
}

func (d *Dispatcher) process(ctx context.Context, id int, update *telegram.Update) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("❌ Паника в воркере %d на обновлении %d: %v", id, update.UpdateID, r)
		}
	}()
	if err := d.handler.HandleUpdate(ctx, update); err != nil {
		d.logger.Error("❌ Error handling update %d: %v", update.UpdateID, err)
	}
}
