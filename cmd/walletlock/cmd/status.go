package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"walletlock/cmd/walletlock/cmd/types"
	"walletlock/internal/app/client"
	"walletlock/internal/domain/autolock"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Состояние сессии",
	Long:  `Перечитывает хранилище и показывает, закрыта ли сессия и какой экран должен видеть пользователь.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		st, err := app.Status(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения состояния: %w", err)
		}

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		}
		printStatus(st)
		return nil
	},
}

func printStatus(st client.Status) {
	if st.Session.Locked {
		fmt.Println("Сессия:      ", color.RedString("закрыта"))
	} else {
		fmt.Println("Сессия:      ", color.GreenString("открыта"))
	}
	fmt.Println("Экран:       ", st.Session.Step)

	if !st.Initialized {
		fmt.Println("Пароль:       не настроен (первый запуск)")
	} else {
		fmt.Println("Пароль:      ", st.LoginStatus)
		if t := st.LastLoginTime.Time(); !t.IsZero() {
			fmt.Println("Последний вход:", t.Local().Format(time.DateTime))
		}
	}

	fmt.Println("Автоблокировка:", describeAutoLock(st.AutoLock))
	fmt.Println("Счета:       ", describeAccounts(st))

	if len(st.Forgetting) > 0 {
		fmt.Println("К удалению:  ", strings.Join(st.Forgetting, ", "))
	}
}

func describeAutoLock(cfg autolock.Config) string {
	if !cfg.Enabled {
		return fmt.Sprintf("выключена (блокировка через %s)", autolock.DefaultLockPeriod)
	}
	period, ok := autolock.EffectiveLockPeriod(&cfg)
	if !ok {
		return fmt.Sprintf("неизвестная единица %q", cfg.Delay.Type)
	}
	return period.String()
}

func describeAccounts(st client.Status) string {
	switch {
	case !st.HasAccounts:
		return "нет"
	case st.PendingCount > 0:
		return fmt.Sprintf("есть, %d без собственного пароля", st.PendingCount)
	default:
		return "есть"
	}
}
