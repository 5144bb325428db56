// Zakaz CLI — утилита командной строки для каталога статусов,
// смены статусов заявок и нарядов через HTTP API.
//
// Использование:
//
//	zakaz [--api-url URL] [--session TOKEN] [--json] <command> <subcommand> [flags]
//
// Команды:
//
//	status       Каталог статусов заявок
//	application  Статус и назначения заявки
//	work-order   Статус наряда
//	login        Вход, печатает токен сессии
//	logout       Выход
//	whoami       Пользователь текущей сессии
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/zakaz/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var (
		apiURL     string
		session    string
		jsonOutput bool
	)

	rootCmd := &cobra.Command{
		Use:           "zakaz",
		Short:         "Zakaz CLI — application and work order status tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", envOr("ZAKAZ_API_URL", "http://localhost:8080"), "API server URL")
	rootCmd.PersistentFlags().StringVar(&session, "session", os.Getenv("ZAKAZ_SESSION"), "Session token printed by zakaz login")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL, session) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewStatusCmd(clientFn, outputFn),
		cli.NewApplicationCmd(clientFn, outputFn),
		cli.NewWorkOrderCmd(clientFn, outputFn),
		cli.NewLoginCmd(clientFn, outputFn),
		cli.NewLogoutCmd(clientFn, outputFn),
		cli.NewWhoamiCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
