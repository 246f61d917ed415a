// application/bootstrap/builder.go
package bootstrap

import (
	"fmt"

	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/pkg/logger"
)

// AppBuilder строитель приложения
type AppBuilder struct {
	config  *config.Config
	options []AppOption
}

// AppOption опция для настройки приложения
type AppOption func(*Application) error

// NewAppBuilder создает новый строитель приложений
func NewAppBuilder() *AppBuilder {
	return &AppBuilder{}
}

// WithConfig устанавливает конфигурацию
func (b *AppBuilder) WithConfig(cfg *config.Config) *AppBuilder {
	b.config = cfg
	return b
}

// WithOption добавляет опцию настройки
func (b *AppBuilder) WithOption(option AppOption) *AppBuilder {
	b.options = append(b.options, option)
	return b
}

// WithTestMode включает тестовый режим (fluent метод)
func (b *AppBuilder) WithTestMode(enabled bool) *AppBuilder {
	return b.WithOption(WithTestMode(enabled))
}

// WithDispatcherWorkers задает число воркеров обработки обновлений (fluent метод)
func (b *AppBuilder) WithDispatcherWorkers(n int) *AppBuilder {
	return b.WithOption(WithDispatcherWorkers(n))
}

// Build строит приложение
func (b *AppBuilder) Build() (*Application, error) {
	if b.config == nil {
		return nil, fmt.Errorf("конфигурация не задана")
	}

	app, err := NewApplication(b.config)
	if err != nil {
		return nil, fmt.Errorf("создание приложения: %w", err)
	}

	for _, option := range b.options {
		if err := option(app); err != nil {
			return nil, fmt.Errorf("применение опции: %w", err)
		}
	}

	return app, nil
}

// ==================== Опции приложения ====================

// WithTestMode - сообщения пользователям только пишутся в лог
func WithTestMode(enabled bool) AppOption {
	return func(app *Application) error {
		if enabled {
			logger.Info("🧪 Тестовый режим включен")
		}
		app.options.TestMode = enabled
		return nil
	}
}

// WithDispatcherWorkers задает число воркеров диспетчера
func WithDispatcherWorkers(n int) AppOption {
	return func(app *Application) error {
		if n < 0 {
			return fmt.Errorf("число воркеров не может быть отрицательным: %d", n)
		}
		app.options.DispatcherWorkers = n
		return nil
	}
}
