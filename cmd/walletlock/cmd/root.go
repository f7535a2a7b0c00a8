// cmd/walletlock/cmd/root.go
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/exp/slog"

	"walletlock/cmd/walletlock/cmd/account"
	"walletlock/cmd/walletlock/cmd/forgot"
	"walletlock/cmd/walletlock/cmd/types"
	"walletlock/internal/app/client"
	"walletlock/internal/app/client/config"
	"walletlock/internal/utils/logger"
)

var (
	cfgFile    string
	logLevel   string
	jsonOutput bool

	cfg *config.Config
	log *slog.Logger
	app *client.App
)

var rootCmd = &cobra.Command{
	Use:   "walletlock",
	Short: "walletlock - блокировка сессии локального кошелька",
	Long: `walletlock управляет доступом к локальным счетам кошелька:
пароль входа, автоблокировка по таймауту, переход на собственные пароли
счетов и сброс при забытом пароле.

Каждый запуск команды - отдельная поверхность. Все поверхности делят одно
хранилище и узнают об изменениях друг друга через шину оповещений.`,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: closeApp,
	SilenceUsage:       true,
	SilenceErrors:      true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка: %v\n", err)
		os.Exit(1)
	}
}

func setupApp(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("ошибка загрузки конфигурации: %w", err)
	}

	// флаг важнее окружения
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log = logger.NewWithLevel(cfg.Env, cfg.LogLevel)

	app, err = client.New(cmd.Context(), cfg, log)
	if err != nil {
		return fmt.Errorf("ошибка инициализации приложения: %w", err)
	}

	cmd.SetContext(context.WithValue(cmd.Context(), types.ClientAppKey, app))
	return nil
}

func closeApp(_ *cobra.Command, _ []string) error {
	if app == nil {
		return nil
	}
	return app.Close()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "конфигурационный файл (yaml или .env)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "уровень логирования: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "вывод в формате JSON")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(unlockCmd)
	rootCmd.AddCommand(lockCmd)
	rootCmd.AddCommand(daemonCmd)

	rootCmd.AddCommand(passwordCmd)
	passwordCmd.AddCommand(passwordSetCmd)
	passwordCmd.AddCommand(passwordLaterCmd)
	passwordCmd.AddCommand(passwordDeclineCmd)

	rootCmd.AddCommand(autolockCmd)
	autolockCmd.AddCommand(autolockShowCmd)
	autolockCmd.AddCommand(autolockSetCmd)
	autolockCmd.AddCommand(autolockDisableCmd)

	rootCmd.AddCommand(forgot.ForgotCmd)
	forgot.ForgotCmd.AddCommand(forgot.FinishCmd)
	forgot.ForgotCmd.AddCommand(forgot.CancelCmd)

	rootCmd.AddCommand(account.AccountCmd)
	account.AccountCmd.AddCommand(account.AddCmd)
	account.AccountCmd.AddCommand(account.ListCmd)
}
