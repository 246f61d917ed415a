// cmd/topupctl/main.go
package main

import (
	"fmt"
	"os"

	"game-topup-bot/internal/infrastructure/config"
	"game-topup-bot/pkg/logger"

	"github.com/spf13/cobra"
)

var Version = "dev"

var (
	configPath string
	logLevel   string
	cfg        *config.Config
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "topupctl",
		Short:         "topupctl - обслуживание журнала заказов game-topup-bot",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.LoadConfig(configPath)
			if err != nil {
				return fmt.Errorf("загрузка конфигурации: %w", err)
			}
			if logLevel != "" {
				loaded.Logging.Level = logLevel
			}
			logger.SetGlobal(logger.NewWithWriter(cmd.ErrOrStderr(), loaded.Logging.Level))
			cfg = loaded
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", ".env", "путь к .env файлу (пусто - только переменные окружения)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "уровень логирования")

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(orderCmd())

	return rootCmd
}
