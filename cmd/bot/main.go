// cmd/bot/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"game-topup-bot/application/bootstrap"
	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/pkg/logger"
)

var (
	version   = "1.0.0"
	buildTime = "неизвестно"
)

func main() {
	var (
		env         string
		cfgPath     string
		logLevel    string
		testMode    bool
		workers     int
		showVersion bool
	)

	flag.StringVar(&env, "env", "dev", "Окружение (dev/prod)")
	flag.StringVar(&cfgPath, "config", "", "Путь к файлу конфигурации (переопределяет env)")
	flag.StringVar(&logLevel, "log-level", "", "Уровень логирования: debug, info, warn, error (переопределяет .env)")
	flag.BoolVar(&testMode, "test", false, "Тестовый режим (сообщения только в лог)")
	flag.IntVar(&workers, "workers", 0, "Число воркеров обработки обновлений (0 - по умолчанию)")
	flag.BoolVar(&showVersion, "version", false, "Показать версию")
	flag.Parse()

	if showVersion {
		fmt.Printf("🎮 Game Top-Up Bot v%s\n", version)
		fmt.Printf("📅 Сборка: %s\n", buildTime)
		return
	}

	configFile := resolveConfigFile(env, cfgPath)

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		logger.Error("❌ Не удалось загрузить конфигурацию: %v", err)
		os.Exit(1)
	}
	if os.Getenv("ENVIRONMENT") == "" {
		cfg.Environment = env
		if os.Getenv("DEBUG") == "" {
			cfg.Logging.Debug = cfg.IsDev()
		}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	cfg.Version = version

	if err := logger.InitGlobal(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Debug); err != nil {
		fmt.Printf("❌ Не удалось инициализировать файловый логгер: %v. Переход на консольный...\n", err)
		if err := logger.InitGlobal("", cfg.Logging.Level, cfg.Logging.Debug); err != nil {
			fmt.Printf("❌ Не удалось инициализировать консольный логгер: %v\n", err)
			os.Exit(1)
		}
	}
	defer logger.GetLogger().Close()

	cfg.PrintSummary()
	logger.Info("🚀 Запуск Game Top-Up Bot v%s (сборка: %s)", version, buildTime)

	app, err := bootstrap.NewAppBuilder().
		WithConfig(cfg).
		WithTestMode(testMode).
		WithDispatcherWorkers(workers).
		Build()
	if err != nil {
		logger.Error("❌ Не удалось собрать приложение: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Initialize(ctx); err != nil {
		logger.Error("❌ Не удалось инициализировать приложение: %v", err)
		os.Exit(1)
	}
	printStatus(app.Status())

	logger.Info("🛑 Нажмите Ctrl+C для остановки")
	if err := app.Run(ctx); err != nil {
		logger.Error("❌ Ошибка работы приложения: %v", err)
		os.Exit(1)
	}
}

// resolveConfigFile: явный -config, затем configs/<env>/.env, затем .env.
// Пустая строка - только переменные окружения.
func resolveConfigFile(env, cfgPath string) string {
	if cfgPath != "" {
		return cfgPath
	}
	candidates := []string{filepath.Join("configs", env, ".env"), ".env"}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	logger.Warn("⚠️  Файл конфигурации не найден (%v), используются переменные окружения", candidates)
	return ""
}

func printStatus(status map[string]interface{}) {
	keys := make([]string, 0, len(status))
	for k := range status {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	stats := make(map[string]string, len(keys))
	for _, k := range keys {
		stats[k] = fmt.Sprint(status[k])
	}
	logger.GetLogger().Status("📋 Состояние приложения", stats)
}
