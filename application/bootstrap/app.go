// application/bootstrap/app.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"game-topup-bot/application/composition"
	"game-topup-bot/application/scheduler"
	"game-topup-bot/internal/delivery/telegram/app/bot"
	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/pkg/logger"
)

// Application - процесс бота: Telegram, HTTP callback, фоновые задачи
type Application struct {
	config    *config.Config
	options   composition.Options
	container *composition.Container
	scheduler *scheduler.Scheduler

	mu        sync.RWMutex
	running   bool
	startTime time.Time
	logger    *logger.Logger
}

// NewApplication создает приложение. Компоненты собираются в Initialize.
func NewApplication(cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("конфигурация не задана")
	}
	return &Application{
		config: cfg,
		logger: logger.Named("app"),
	}, nil
}

// Initialize собирает контейнер зависимостей (подключения к БД и Redis)
func (app *Application) Initialize(ctx context.Context) error {
	app.mu.Lock()
	defer app.mu.Unlock()

	if app.container != nil {
		return nil
	}

	app.logger.Info("🔧 Инициализация компонентов...")
	container, err := composition.NewContainer(ctx, app.config, app.options)
	if err != nil {
		return fmt.Errorf("сборка контейнера: %w", err)
	}
	app.container = container

	app.scheduler = scheduler.New(0)
	deps := scheduler.Deps{}
	if container.MemorySessions != nil {
		deps.Sessions = container.MemorySessions
	}
	scheduler.RegisterAll(app.scheduler, deps)

	app.logger.Info("✅ Компоненты инициализированы")
	return nil
}

// Run запускает приложение и блокируется до отмены ctx, затем
// выполняет graceful shutdown.
func (app *Application) Run(ctx context.Context) error {
	if err := app.Initialize(ctx); err != nil {
		return err
	}

	app.mu.Lock()
	if app.running {
		app.mu.Unlock()
		return errors.New("приложение уже запущено")
	}
	app.running = true
	app.startTime = time.Now()
	app.mu.Unlock()

	c := app.container

	// Обработчики получают свой контекст: он отменяется только после
	// того, как очередь обновлений обработана.
	workCtx, cancelWork := context.WithCancel(context.Background())
	defer cancelWork()
	c.Dispatcher.Start(workCtx)

	if err := c.HTTPServer.Start(); err != nil {
		c.Dispatcher.Stop()
		app.closeContainer()
		return fmt.Errorf("запуск HTTP сервера: %w", err)
	}

	if err := c.Bot.SetMyCommands(ctx); err != nil {
		app.logger.Warn("⚠️ Не удалось установить меню команд: %v", err)
	}

	pollCtx, cancelPoll := context.WithCancel(ctx)
	pollDone := make(chan struct{})
	if err := app.startUpdates(pollCtx, pollDone); err != nil {
		cancelPoll()
		app.shutdown(pollDone)
		return err
	}

	app.scheduler.Start(workCtx)

	app.logger.Info("✅ Приложение запущено (режим: %s)", app.config.Telegram.Mode)
	<-ctx.Done()

	cancelPoll()
	app.shutdown(pollDone)
	return nil
}

// startUpdates запускает polling или регистрирует webhook
func (app *Application) startUpdates(ctx context.Context, done chan struct{}) error {
	c := app.container

	if app.config.IsWebhookMode() {
		close(done)
		url := app.config.GetWebhookURL()
		if err := c.TelegramClient.SetWebhook(ctx, url, app.config.Telegram.WebhookSecret); err != nil {
			return fmt.Errorf("setWebhook: %w", err)
		}
		app.logger.Info("🌐 Webhook зарегистрирован: %s", url)
		return nil
	}

	if err := c.TelegramClient.DeleteWebhook(ctx); err != nil {
		app.logger.Warn("⚠️ deleteWebhook: %v", err)
	}
	poller := bot.NewPoller(c.PollingClient, c.Dispatcher, app.config.Telegram.PollTimeout, app.config.Telegram.RetryInterval)
	go func() {
		defer close(done)
		_ = poller.Run(ctx)
	}()
	return nil
}

// shutdown останавливает компоненты в обратном порядке
func (app *Application) shutdown(pollDone <-chan struct{}) {
	app.logger.Info("🛑 Останавливаем приложение...")
	c := app.container

	<-pollDone

	timeout := app.config.HTTP.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := c.HTTPServer.Stop(ctx); err != nil {
		app.logger.Warn("⚠️ Ошибка остановки HTTP сервера: %v", err)
	}

	c.Dispatcher.Stop()
	app.scheduler.Stop()
	app.closeContainer()

	app.mu.Lock()
	app.running = false
	uptime := time.Since(app.startTime)
	app.mu.Unlock()

	app.logger.Info("✅ Приложение остановлено. Время работы: %v", uptime.Round(time.Second))
}

func (app *Application) closeContainer() {
	app.container.Close()
}

// IsRunning проверяет, работает ли приложение
func (app *Application) IsRunning() bool {
	app.mu.RLock()
	defer app.mu.RUnlock()
	return app.running
}

// Status возвращает снимок состояния для логов
func (app *Application) Status() map[string]interface{} {
	app.mu.RLock()
	defer app.mu.RUnlock()

	status := map[string]interface{}{
		"running": app.running,
		"mode":    app.config.Telegram.Mode,
		"ledger":  app.config.LedgerDriver,
		"session": app.config.Session.Store,
	}
	if app.running {
		status["uptime"] = time.Since(app.startTime).Round(time.Second).String()
		status["startTime"] = app.startTime.Format(time.RFC3339)
	}
	if app.scheduler != nil {
		status["jobs"] = len(app.scheduler.Jobs())
	}
	if app.container != nil && app.container.Bot != nil {
		status["botUptime"] = app.container.Bot.Uptime().Round(time.Second).String()
	}
	return status
}
