// cmd/walletlock/cmd/account/list.go
package account

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"walletlock/cmd/walletlock/cmd/types"
	"walletlock/internal/domain/keyring"
)

var listFormat string

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "Список счетов",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}

		accounts, err := app.Keystore().ListAccounts(cmd.Context())
		if err != nil {
			return fmt.Errorf("ошибка получения списка счетов: %w", err)
		}

		switch listFormat {
		case "json":
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(accounts)
		default:
			return printTable(accounts)
		}
	},
}

func printTable(accounts []keyring.Account) error {
	if len(accounts) == 0 {
		fmt.Println("Счетов нет.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "АДРЕС\tНАЗВАНИЕ\tСВОЙ ПАРОЛЬ\tДОБАВЛЕН")
	for _, acc := range accounts {
		own := "нет"
		if acc.Migrated {
			own = "да"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", acc.Address, acc.Name, own, acc.CreatedAt.Local().Format(time.DateTime))
	}
	return w.Flush()
}

func init() {
	ListCmd.Flags().StringVarP(&listFormat, "format", "f", "table", "формат вывода: table, json")
}
