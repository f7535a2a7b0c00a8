package cmd

import (
	"github.com/spf13/cobra"

	"walletlock/cmd/walletlock/cmd/types"
	"walletlock/internal/app/daemon"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Запустить фоновый процесс",
	Long: `Фоновая поверхность: следит за шиной оповещений и отдаёт состояние
сессии по HTTP на DAEMON_ADDRESS. Завершается по SIGINT или SIGTERM.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app, err := types.App(cmd)
		if err != nil {
			return err
		}
		return daemon.New(app, log).Run(cmd.Context())
	},
}
