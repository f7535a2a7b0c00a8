package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"walletlock/cmd/walletlock/cmd/prompt"
	"walletlock/cmd/walletlock/cmd/types"
	"walletlock/internal/domain/lock"
	"walletlock/internal/domain/unlock"
)

var assumeYes bool

var unlockCmd = &cobra.Command{
	Use:   "unlock",
	Short: "Открыть сессию",
	Long: `Запрашивает пароль и открывает сессию.

Если счета ещё не получили собственные пароли, после проверки пароля
предлагается миграция: тот же пароль станет паролем каждого счёта.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		session := app.Session()

		if _, err := session.Evaluate(ctx); err != nil {
			return fmt.Errorf("ошибка чтения состояния: %w", err)
		}
		if session.Step() == lock.StepNoAccounts {
			fmt.Println("Локальных счетов нет: добавьте счёт командой walletlock account add.")
			return nil
		}
		if !session.IsLocked() {
			fmt.Println("Сессия уже открыта.")
			return nil
		}

		password, err := prompt.Password("Пароль: ")
		if err != nil {
			return err
		}

		res, err := session.OnPasswordSubmit(ctx, password)
		if err != nil {
			return fmt.Errorf("ошибка проверки пароля: %w", err)
		}

		switch res {
		case unlock.Unlocked:
			fmt.Println("✓ Сессия открыта")
			return nil
		case unlock.NeedsMigration:
			return migrate(cmd, password)
		default:
			return unlock.ErrWrongPassword
		}
	},
}

func migrate(cmd *cobra.Command, password string) error {
	app, err := types.App(cmd)
	if err != nil {
		return err
	}

	fmt.Println("Пароль принят. Счета хранятся под общим паролем и должны получить собственные.")
	if !assumeYes {
		ok, err := prompt.Confirm("Перевести счета на собственные пароли сейчас?")
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("Миграция отложена, сессия остаётся закрытой.")
			return nil
		}
	}

	if err := app.Session().OnMigrate(cmd.Context(), password); err != nil {
		return fmt.Errorf("ошибка миграции: %w", err)
	}
	fmt.Println("✓ Счета переведены, сессия открыта")
	return nil
}

var lockCmd = &cobra.Command{
	Use:   "lock",
	Short: "Закрыть сессию немедленно",
	Long:  `Закрывает сессию на всех поверхностях. Следующий вход потребует пароль.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		if err := app.Session().OnLockNow(cmd.Context()); err != nil {
			return fmt.Errorf("ошибка блокировки: %w", err)
		}
		fmt.Println("✓ Сессия закрыта")
		return nil
	},
}

func init() {
	unlockCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "не спрашивать подтверждение миграции")
}
