// saga CLI — инструмент командной строки для запуска и повтора саг
// через HTTP API.
//
// Использование:
//
//	saga [--api-url URL] [--json] <command> [flags]
//
// Команды:
//
//	run       Выполнить сагу из файла конфигурации
//	retry     Повторить шаг с эскалацией
//	show      Показать сохранённый прогон
//	history   Прогоны клиента
//	services  Провайдеры шагов и их счётчики
//	reset     Сбросить счётчики и квоту оплаты
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/DnyandevSawarkar/Workflow-Orchestration-System/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "saga",
		Short:         "saga CLI — order workflow orchestration",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("SAGA_API_URL"); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL (env SAGA_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewRetryCmd(clientFn, outputFn),
		cli.NewShowCmd(clientFn, outputFn),
		cli.NewHistoryCmd(clientFn, outputFn),
		cli.NewServicesCmd(clientFn, outputFn),
		cli.NewResetCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
