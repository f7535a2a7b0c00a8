// cmd/walletlock/cmd/forgot/forgot.go
package forgot

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"walletlock/cmd/walletlock/cmd/prompt"
	"walletlock/cmd/walletlock/cmd/types"
	"walletlock/internal/app/client"
	"walletlock/internal/domain/login"
	"walletlock/internal/domain/reset"
)

var (
	addresses  []string
	understood bool
)

// ForgotCmd - сброс при забытом пароле. Без --address уничтожаются все локальные счета.
var ForgotCmd = &cobra.Command{
	Use:   "forgot",
	Short: "Сброс при забытом пароле",
	Long: `Уничтожает локальные счета, чтобы восстановить их заново из резервной копии.

Без --address удаляются все счета. С --address помечаются только указанные;
повторный запуск без --address продолжит удаление помеченных.
Операция необратима: без резервной копии счета восстановить нельзя.`,
	Example: "  walletlock forgot --i-understand\n  walletlock forgot --address 0xabc --address 0xdef",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		flow := app.Reset()

		if err := flow.Begin(ctx); err != nil {
			return err
		}
		if len(addresses) > 0 {
			if err := flow.Stage(ctx, addresses); err != nil {
				return fmt.Errorf("ошибка пометки счетов: %w", err)
			}
		}

		staged, err := stagedAddresses(cmd, app)
		if err != nil {
			return err
		}

		ack := reset.Acknowledgement{Understood: understood}
		if !ack.Understood {
			fmt.Println(warning(staged))
			if ack.Understood, err = prompt.Confirm("Продолжить?"); err != nil {
				return err
			}
		}

		if len(staged) > 0 {
			err = flow.ConfirmStaged(ctx, ack)
		} else {
			err = flow.Confirm(ctx, ack)
		}
		if err != nil {
			return describe(err)
		}

		fmt.Println("✓ Счета удалены. Восстановите их и завершите командой walletlock forgot finish")
		return nil
	},
}

var FinishCmd = &cobra.Command{
	Use:   "finish",
	Short: "Завершить восстановление",
	Long:  `Возвращает к обычной работе после восстановления счетов. Все поверхности перечитывают состояние.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Reset().Finish(cmd.Context()); err != nil {
			if errors.Is(err, reset.ErrNotConfirmed) {
				return errors.New("сброс не выполнялся: сначала walletlock forgot")
			}
			return err
		}
		fmt.Println("✓ Восстановление завершено")
		return nil
	},
}

var CancelCmd = &cobra.Command{
	Use:   "cancel",
	Short: "Отменить сброс",
	Long:  `Снимает пометки с адресов. После удаления счетов отмена невозможна.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		if err := app.Reset().Cancel(cmd.Context()); err != nil {
			if errors.Is(err, reset.ErrAlreadyConfirmed) {
				return errors.New("счета уже удалены, завершите восстановление командой walletlock forgot finish")
			}
			return err
		}
		fmt.Println("Сброс отменён.")
		return nil
	},
}

func stagedAddresses(cmd *cobra.Command, app *client.App) ([]string, error) {
	rec, err := app.Logins().Load(cmd.Context())
	if err != nil {
		return nil, err
	}
	info, ok := rec.Info()
	if !ok || info.Status != login.StatusForgot {
		return nil, nil
	}
	return info.AddressesToForget, nil
}

func warning(staged []string) string {
	if len(staged) == 0 {
		return "Внимание: будут удалены ВСЕ локальные счета."
	}
	return "Внимание: будут удалены счета " + strings.Join(staged, ", ") + "."
}

func describe(err error) error {
	var re *reset.ResetError
	switch {
	case errors.Is(err, reset.ErrNotAcknowledged):
		return errors.New("сброс не подтверждён, ничего не удалено")
	case errors.As(err, &re) && len(re.Failed) > 0:
		return fmt.Errorf("не удалось удалить %s, повторите walletlock forgot: %w", strings.Join(re.Failed, ", "), err)
	default:
		return err
	}
}

func init() {
	ForgotCmd.Flags().StringSliceVar(&addresses, "address", nil, "удалить только указанные адреса")
	ForgotCmd.Flags().BoolVar(&understood, "i-understand", false, "подтвердить необратимое удаление без вопроса")
}
