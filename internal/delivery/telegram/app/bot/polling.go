// internal/delivery/telegram/app/bot/polling.go
package bot

import (
	"context"
	"time"

	"game-topup-bot/internal/delivery/telegram"
	"game-topup-bot/pkg/logger"
)

// UpdatesFetcher - источник обновлений для long-polling
type UpdatesFetcher interface {
	GetUpdates(ctx context.Context, offset int64, timeout int) ([]telegram.Update, error)
}

// UpdateSubmitter принимает обновление в обработку
type UpdateSubmitter interface {
	Submit(ctx context.Context, update *telegram.Update) error
}

// Poller - цикл getUpdates
type Poller struct {
	fetcher       UpdatesFetcher
	submitter     UpdateSubmitter
	timeout       int
	retryInterval time.Duration
	offset        int64
	logger        *logger.Logger
}

// NewPoller создает polling цикл
func NewPoller(fetcher UpdatesFetcher, submitter UpdateSubmitter, timeout int, retryInterval time.Duration) *Poller {
	if retryInterval <= 0 {
		retryInterval = 5 * time.Second
	}
	return &Poller{
		fetcher:       fetcher,
		submitter:     submitter,
		timeout:       timeout,
		retryInterval: retryInterval,
		logger:        logger.Named("polling"),
	}
}

// Run опрашивает Telegram, пока не отменен ctx. Ошибки сети
// логируются, опрос повторяется через retryInterval.
func (p *Poller) Run(ctx context.Context) error {
	p.logger.Info("🔄 Starting Telegram bot polling...")
	defer p.logger.Info("🛑 Stopping Telegram bot polling...")

	for {
		if ctx.Err() != nil {
			return nil
		}

		updates, err := p.fetcher.GetUpdates(ctx, p.offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			p.logger.Error("❌ Error fetching updates: %v", err)
			select {
			case <-time.After(p.retryInterval):
				continue
			case <-ctx.Done():
				return nil
			}
		}

		for i := range updates {
			update := updates[i]
			p.logger.Debug("📩 Получено обновление ID=%d", update.UpdateID)
			if err := p.submitter.Submit(ctx, &update); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				p.logger.Error("❌ Не удалось поставить обновление %d в очередь: %v", update.UpdateID, err)
			}
			p.offset = update.UpdateID + 1
		}
	}
}

// Offset - следующий запрашиваемый update_id
func (p *Poller) Offset() int64 {
	return p.offset
}
