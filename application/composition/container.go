// application/composition/container.go
package composition

import (
	"context"
	"fmt"

	"game-topup-bot/internal/core/domain/conversation"
	"game-topup-bot/internal/core/domain/order"
	"game-topup-bot/internal/core/domain/reconciliation"
	"game-topup-bot/internal/core/domain/topup"
	"game-topup-bot/internal/delivery/http/server"
	"game-topup-bot/internal/delivery/telegram/app/bot"
	"game-topup-bot/internal/delivery/telegram/app/bot/message_sender"
	telegram_http "game-topup-bot/internal/delivery/telegram/app/http_client"
	"game-topup-bot/internal/infrastructure/api/provider/bos"
	redis_cache "game-topup-bot/internal/infrastructure/cache/redis"
	"game-topup-bot/internal/infrastructure/config"
	storage "game-topup-bot/internal/infrastructure/persistence/in_memory_storage"
	"game-topup-bot/internal/infrastructure/persistence/postgres"
	order_repo "game-topup-bot/internal/infrastructure/persistence/postgres/repository/order"
	"game-topup-bot/pkg/logger"

	"github.com/jmoiron/sqlx"
)

// Container - DI контейнер: все компоненты, собранные из конфигурации
type Container struct {
	Config *config.Config

	// Инфраструктура
	DB             *sqlx.DB                  // nil при LEDGER_DRIVER=memory
	Redis          *redis_cache.RedisService // nil при SESSION_STORE=memory
	MemorySessions *conversation.MemoryStore // nil при SESSION_STORE=redis

	// Домен
	Ledger     order.Ledger
	Sessions   conversation.Store
	Catalog    *order.Catalog
	Provider   *bos.Client
	TopUp      *topup.Service
	Reconciler *reconciliation.Reconciler

	// Доставка
	TelegramClient *telegram_http.TelegramClient
	PollingClient  *telegram_http.PollingClient
	Sender         *message_sender.MessageSender
	Bot            *bot.TelegramBot
	Dispatcher     *bot.Dispatcher
	HTTPServer     *server.Server
}

// Options - переключатели сборки
type Options struct {
	TestMode          bool // сообщения только в лог
	DispatcherWorkers int
}

// NewContainer создает и связывает компоненты. При ошибке уже открытые
// подключения закрываются.
func NewContainer(ctx context.Context, cfg *config.Config, opts Options) (_ *Container, err error) {
	c := &Container{Config: cfg}
	defer func() {
		if err != nil {
			c.Close()
		}
	}()

	// 1. Хранилища
	if err := c.initLedger(ctx); err != nil {
		return nil, err
	}
	if err := c.initSessions(ctx); err != nil {
		return nil, err
	}

	// 2. Каталог и провайдер
	c.Catalog, err = order.ParseCatalog(cfg.ProductCatalog)
	if err != nil {
		return nil, fmt.Errorf("каталог номиналов: %w", err)
	}
	refIDs, err := order.NewRefIDGenerator(cfg.Provider.RefIDGenerator, cfg.Provider.RefIDNode)
	if err != nil {
		return nil, fmt.Errorf("генератор ref_id: %w", err)
	}
	c.Provider = bos.NewClient(cfg.Provider, refIDs)

	// 3. Telegram
	c.TelegramClient = telegram_http.NewTelegramClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken)
	c.PollingClient = telegram_http.NewPollingClient(cfg.Telegram.APIURL, cfg.Telegram.BotToken, cfg.Telegram.PollTimeout)
	c.Sender = message_sender.NewMessageSender(c.TelegramClient, cfg.Telegram.RateLimit)
	c.Sender.SetTestMode(opts.TestMode)

	// 4. Сценарии
	c.TopUp = topup.NewService(topup.Dependencies{
		Sessions: c.Sessions,
		Ledger:   c.Ledger,
		Provider: c.Provider,
		Catalog:  c.Catalog,
		Notifier: c.Sender,
	})

	var verifier reconciliation.Verifier = reconciliation.NoopVerifier{}
	if cfg.IsCallbackVerificationEnabled() {
		verifier = reconciliation.NewHMACVerifier(cfg.HTTP.CallbackSecret, cfg.HTTP.SignatureHeader)
	}
	c.Reconciler = reconciliation.NewReconciler(c.Ledger, c.Sender, verifier)

	c.Bot = bot.NewTelegramBot(c.TopUp, c.Sender, c.TelegramClient)
	c.Dispatcher = bot.NewDispatcher(c.Bot, opts.DispatcherWorkers, 0)

	// 5. HTTP
	c.HTTPServer = server.New(cfg.HTTP)
	c.HTTPServer.HandleCallback(server.NewCallbackHandler(c.Reconciler, cfg.HTTP.MaxBodySize))
	if cfg.IsWebhookMode() {
		c.HTTPServer.HandleWebhook(cfg.Telegram.WebhookPath,
			bot.NewWebhookHandler(c.Dispatcher, cfg.Telegram.WebhookSecret, cfg.HTTP.MaxBodySize))
	}
	if c.DB != nil {
		c.HTTPServer.AddHealthCheck("postgres", c.DB.PingContext)
	}
	if c.Redis != nil {
		c.HTTPServer.AddHealthCheck("redis", c.Redis.HealthCheck)
	}

	return c, nil
}

func (c *Container) initLedger(ctx context.Context) error {
	switch c.Config.LedgerDriver {
	case "memory":
		logger.Warn("⚠️ Журнал заказов в памяти: данные будут потеряны при перезапуске")
		c.Ledger = storage.NewInMemoryOrderLedger()
		return nil
	default:
		db, err := postgres.Connect(ctx, c.Config.Database)
		if err != nil {
			return fmt.Errorf("подключение к PostgreSQL: %w", err)
		}
		c.DB = db
		c.Ledger = order_repo.NewOrderRepository(db)
		return nil
	}
}

func (c *Container) initSessions(ctx context.Context) error {
	switch c.Config.Session.Store {
	case "redis":
		rs := redis_cache.NewRedisService(c.Config.Redis)
		if err := rs.Start(ctx); err != nil {
			return fmt.Errorf("подключение к Redis: %w", err)
		}
		c.Redis = rs
		c.Sessions = rs.SessionStore(c.Config.Session.TTL)
	default:
		c.MemorySessions = conversation.NewMemoryStore(c.Config.Session.TTL)
		c.Sessions = c.MemorySessions
	}
	return nil
}

// Close закрывает подключения к БД и Redis
func (c *Container) Close() {
	if c.Redis != nil {
		if err := c.Redis.Stop(); err != nil {
			logger.Error("❌ Ошибка остановки Redis: %v", err)
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			logger.Error("❌ Ошибка закрытия PostgreSQL: %v", err)
		}
		logger.Info("✅ PostgreSQL отключен")
	}
}
