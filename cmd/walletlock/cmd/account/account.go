package account

import (
	"github.com/spf13/cobra"
)

// AccountCmd - родительская команда для операций с локальными счетами
var AccountCmd = &cobra.Command{
	Use:   "account",
	Short: "Локальные счета",
	Long:  `Добавление и просмотр счетов, хранящихся на этом устройстве.`,
}
