// /internal/infrastructure/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ============================================
// КОНФИГУРАЦИЯ БАЗЫ ДАННЫХ
// ============================================

// DatabaseConfig - конфигурация базы данных
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string

	// Пул соединений
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration

	// Миграции
	MigrationsPath    string
	EnableAutoMigrate bool
}

// ============================================
// КОНФИГУРАЦИЯ REDIS
// ============================================

// RedisConfig - конфигурация Redis
type RedisConfig struct {
	Host         string
	Port         int
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	KeyPrefix    string
}

// ============================================
// TELEGRAM
// ============================================

// TelegramConfig - настройки бота
type TelegramConfig struct {
	BotToken  string
	APIURL    string
	Mode      string // polling | webhook
	RateLimit float64

	// Polling
	PollTimeout   int
	RetryInterval time.Duration

	// Webhook (входящие обновления Telegram)
	WebhookDomain string
	WebhookPath   string
	WebhookSecret string
}

// ============================================
// HTTP СЕРВЕР (callback провайдера + webhook Telegram)
// ============================================

// HTTPConfig - настройки HTTP сервера
type HTTPConfig struct {
	Port            int
	CallbackPath    string
	MaxBodySize     int64
	CallbackSecret  string
	SignatureHeader string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// ============================================
// ПРОВАЙДЕР (BOS StoreID)
// ============================================

// ProviderConfig - настройки API провайдера пополнений
type ProviderConfig struct {
	APIURL   string
	Username string
	APIKey   string
	Timeout  time.Duration

	RefIDGenerator string // uuid | snowflake
	RefIDNode      int64
}

// SessionConfig - хранилище диалогов
type SessionConfig struct {
	Store string // memory | redis
	TTL   time.Duration
}

// LoggingConfig - настройки логирования
type LoggingConfig struct {
	Level string
	File  string
	Debug bool
}

// Config - корневая конфигурация приложения
type Config struct {
	Environment string
	Version     string

	Telegram TelegramConfig
	HTTP     HTTPConfig
	Provider ProviderConfig
	Session  SessionConfig
	Logging  LoggingConfig

	LedgerDriver string // postgres | memory
	Database     DatabaseConfig
	Redis        RedisConfig

	// PRODUCT_CATALOG в формате "30M:HD30M,60M:HD60M"
	ProductCatalog string
}

// ============================================
// ЗАГРУЗКА КОНФИГУРАЦИИ
// ============================================

// LoadConfig загружает конфигурацию из .env файла и переменных окружения
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			fmt.Printf("⚠️  Config file not found, using environment variables\n")
		}
	}

	cfg := &Config{}

	// ======================
	// ОСНОВНЫЕ НАСТРОЙКИ
	// ======================
	cfg.Environment = getEnv("ENVIRONMENT", "production")
	cfg.Version = getEnv("VERSION", "1.0.0")

	cfg.Logging = LoggingConfig{
		Level: getEnv("LOG_LEVEL", "info"),
		File:  getEnv("LOG_FILE", ""),
		Debug: getEnvBool("DEBUG", cfg.IsDev()),
	}

	// ======================
	// TELEGRAM
	// ======================
	cfg.Telegram = TelegramConfig{
		BotToken:      getEnv("TG_API_KEY", ""),
		APIURL:        getEnv("TELEGRAM_API_URL", "https://api.telegram.org"),
		Mode:          strings.ToLower(getEnv("TELEGRAM_MODE", "polling")),
		RateLimit:     getEnvFloat("TELEGRAM_RATE_LIMIT", 25),
		PollTimeout:   getEnvInt("TELEGRAM_POLL_TIMEOUT", 30),
		RetryInterval: getEnvDuration("TELEGRAM_RETRY_INTERVAL", 5*time.Second),
		WebhookDomain: getEnv("TELEGRAM_WEBHOOK_DOMAIN", ""),
		WebhookPath:   getEnv("TELEGRAM_WEBHOOK_PATH", "/webhook/telegram"),
		WebhookSecret: getEnv("TELEGRAM_WEBHOOK_SECRET", ""),
	}

	// ======================
	// HTTP
	// ======================
	cfg.HTTP = HTTPConfig{
		Port:            getEnvInt("HTTP_PORT", getEnvInt("PORT", 3000)),
		CallbackPath:    getEnv("CALLBACK_PATH", "/webhook/bos"),
		MaxBodySize:     getEnvInt64("CALLBACK_MAX_BODY", 1<<20),
		CallbackSecret:  getEnv("CALLBACK_SECRET", ""),
		SignatureHeader: getEnv("CALLBACK_SIGNATURE_HEADER", "X-Signature"),
		RequestTimeout:  getEnvDuration("HTTP_REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	// ======================
	// ПРОВАЙДЕР
	// ======================
	cfg.Provider = ProviderConfig{
		APIURL:         getEnv("BOS_API_URL", "https://apibosstoreid.online/api/v4"),
		Username:       getEnv("BOS_USERNAME", ""),
		APIKey:         getEnv("BOS_API_KEY", ""),
		Timeout:        getEnvDuration("BOS_TIMEOUT", 15*time.Second),
		RefIDGenerator: strings.ToLower(getEnv("REFID_GENERATOR", "uuid")),
		RefIDNode:      getEnvInt64("REFID_NODE", 1),
	}

	cfg.Session = SessionConfig{
		Store: strings.ToLower(getEnv("SESSION_STORE", "memory")),
		TTL:   getEnvDuration("SESSION_TTL", 30*time.Minute),
	}

	// ======================
	// ХРАНИЛИЩА
	// ======================
	cfg.LedgerDriver = strings.ToLower(getEnv("LEDGER_DRIVER", "postgres"))
	cfg.Database = DatabaseConfig{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              getEnvInt("DB_PORT", 5432),
		User:              getEnv("DB_USER", "topup"),
		Password:          getEnv("DB_PASSWORD", ""),
		Name:              getEnv("DB_NAME", "topup"),
		SSLMode:           getEnv("DB_SSLMODE", "disable"),
		MaxOpenConns:      getEnvInt("DB_MAX_OPEN_CONNS", 10),
		MaxIdleConns:      getEnvInt("DB_MAX_IDLE_CONNS", 5),
		MaxConnLifetime:   getEnvDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
		MaxConnIdleTime:   getEnvDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
		MigrationsPath:    getEnv("DB_MIGRATIONS_PATH", "internal/infrastructure/persistence/postgres/migrations"),
		EnableAutoMigrate: getEnvBool("DB_ENABLE_AUTO_MIGRATE", true),
	}

	cfg.Redis = RedisConfig{
		Host:         getEnv("REDIS_HOST", "localhost"),
		Port:         getEnvInt("REDIS_PORT", 6379),
		Password:     getEnv("REDIS_PASSWORD", ""),
		DB:           getEnvInt("REDIS_DB", 0),
		PoolSize:     getEnvInt("REDIS_POOL_SIZE", 10),
		MinIdleConns: getEnvInt("REDIS_MIN_IDLE_CONNS", 2),
		MaxRetries:   getEnvInt("REDIS_MAX_RETRIES", 3),
		DialTimeout:  getEnvDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
		ReadTimeout:  getEnvDuration("REDIS_READ_TIMEOUT", 3*time.Second),
		WriteTimeout: getEnvDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "topupbot:"),
	}

	cfg.ProductCatalog = getEnv("PRODUCT_CATALOG", "")

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate проверяет конфигурацию и собирает все ошибки разом
func (c *Config) validate() error {
	var validationErrors []string

	if c.Telegram.BotToken == "" {
		validationErrors = append(validationErrors, "TG_API_KEY is required")
	}
	if c.Telegram.Mode != "polling" && c.Telegram.Mode != "webhook" {
		validationErrors = append(validationErrors, "TELEGRAM_MODE должен быть 'polling' или 'webhook'")
	}
	if c.IsWebhookMode() && c.Telegram.WebhookDomain == "" {
		validationErrors = append(validationErrors, "TELEGRAM_WEBHOOK_DOMAIN обязателен для webhook режима")
	}

	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		validationErrors = append(validationErrors, "HTTP_PORT должен быть в диапазоне 1-65535")
	}
	if !strings.HasPrefix(c.HTTP.CallbackPath, "/") {
		validationErrors = append(validationErrors, "CALLBACK_PATH должен начинаться с '/'")
	}
	if c.HTTP.MaxBodySize <= 0 {
		validationErrors = append(validationErrors, "CALLBACK_MAX_BODY must be positive")
	}

	if c.Provider.Username == "" {
		validationErrors = append(validationErrors, "BOS_USERNAME is required")
	}
	if c.Provider.APIKey == "" {
		validationErrors = append(validationErrors, "BOS_API_KEY is required")
	}
	if c.Provider.Timeout <= 0 {
		validationErrors = append(validationErrors, "BOS_TIMEOUT must be positive")
	}
	switch c.Provider.RefIDGenerator {
	case "uuid":
	case "snowflake":
		if c.Provider.RefIDNode < 0 || c.Provider.RefIDNode > 1023 {
			validationErrors = append(validationErrors, "REFID_NODE должен быть в диапазоне 0-1023")
		}
	default:
		validationErrors = append(validationErrors, "REFID_GENERATOR должен быть 'uuid' или 'snowflake'")
	}

	if c.Session.Store != "memory" && c.Session.Store != "redis" {
		validationErrors = append(validationErrors, "SESSION_STORE должен быть 'memory' или 'redis'")
	}

	switch c.LedgerDriver {
	case "postgres":
		if c.Database.Host == "" {
			validationErrors = append(validationErrors, "DB_HOST is required")
		}
		if c.Database.Port <= 0 {
			validationErrors = append(validationErrors, "DB_PORT must be positive")
		}
		if c.Database.User == "" {
			validationErrors = append(validationErrors, "DB_USER is required")
		}
		if c.Database.Name == "" {
			validationErrors = append(validationErrors, "DB_NAME is required")
		}
	case "memory":
	default:
		validationErrors = append(validationErrors, "LEDGER_DRIVER должен быть 'postgres' или 'memory'")
	}

	if len(validationErrors) > 0 {
		return fmt.Errorf("%s", strings.Join(validationErrors, "; "))
	}

	return nil
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ МЕТОДЫ
// ============================================

// Validate проверяет конфигурацию
func (c *Config) Validate() error {
	return c.validate()
}

func (c *Config) IsWebhookMode() bool {
	return c.Telegram.Mode == "webhook"
}

func (c *Config) IsPollingMode() bool {
	return c.Telegram.Mode == "polling" || c.Telegram.Mode == "" // по умолчанию polling
}

// GetWebhookURL возвращает публичный адрес для setWebhook
func (c *Config) GetWebhookURL() string {
	domain := strings.TrimSuffix(c.Telegram.WebhookDomain, "/")
	if !strings.HasPrefix(domain, "http://") && !strings.HasPrefix(domain, "https://") {
		domain = "https://" + domain
	}
	return domain + c.Telegram.WebhookPath
}

// IsCallbackVerificationEnabled - проверять ли подпись callback провайдера
func (c *Config) IsCallbackVerificationEnabled() bool {
	return c.HTTP.CallbackSecret != ""
}

// GetPostgresDSN возвращает DSN для подключения к PostgreSQL
func (c *Config) GetPostgresDSN() string {
	return c.Database.DSN()
}

// DSN собирает строку подключения lib/pq
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// GetRedisAddress возвращает адрес Redis
func (c *Config) GetRedisAddress() string {
	return c.Redis.Address()
}

func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// IsDev возвращает true если текущее окружение - разработка
func (c *Config) IsDev() bool {
	return c.Environment == "dev"
}

// PrintSummary печатает итоговую конфигурацию (секреты маскируются)
func (c *Config) PrintSummary() {
	log.Printf("📋 Конфигурация приложения:")
	log.Printf("   • Окружение: %s (версия %s)", c.Environment, c.Version)
	log.Printf("   • Уровень логирования: %s", c.Logging.Level)
	log.Printf("   • Telegram режим: %s", c.Telegram.Mode)
	log.Printf("   • Telegram Token: %s", maskSecret(c.Telegram.BotToken))
	if c.IsWebhookMode() {
		log.Printf("   • Telegram webhook: %s", c.GetWebhookURL())
	} else {
		log.Printf("   • Polling timeout: %d сек", c.Telegram.PollTimeout)
	}
	log.Printf("   • HTTP порт: %d, callback: %s", c.HTTP.Port, c.HTTP.CallbackPath)
	log.Printf("   • Проверка подписи callback: %v", c.IsCallbackVerificationEnabled())
	log.Printf("   • Провайдер: %s (user: %s, timeout: %s)", c.Provider.APIURL, c.Provider.Username, c.Provider.Timeout)
	log.Printf("   • Генератор ref_id: %s", c.Provider.RefIDGenerator)
	log.Printf("   • Журнал заказов: %s", c.LedgerDriver)
	if c.LedgerDriver == "postgres" {
		log.Printf("   • PostgreSQL: %s:%d/%s", c.Database.Host, c.Database.Port, c.Database.Name)
	}
	log.Printf("   • Сессии: %s (TTL %s)", c.Session.Store, c.Session.TTL)
	if c.Session.Store == "redis" {
		log.Printf("   • Redis: %s (DB: %d, Pool: %d)", c.Redis.Address(), c.Redis.DB, c.Redis.PoolSize)
	}
	if c.ProductCatalog != "" {
		log.Printf("   • Каталог: %s", c.ProductCatalog)
	}
}

func maskSecret(s string) string {
	if len(s) <= 10 {
		return strings.Repeat("*", len(s))
	}
	return s[:5] + "..." + s[len(s)-5:]
}

// ============================================
// ВСПОМОГАТЕЛЬНЫЕ ФУНКЦИИ
// ============================================

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
