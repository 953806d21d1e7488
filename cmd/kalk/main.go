// kalk — интерпретатор учебного языка KALK и клиент KALK API.
//
// Использование:
//
//	kalk [--api-url URL] [--json] <command> [flags]
//
// Локальные команды:
//
//	exec      Выполнить программу
//	check     Проверить лексику и синтаксис
//	fmt       Канонический вид программы
//
// Команды сервера:
//
//	eval      Выполнить программу на сервере без сохранения
//	program   Управление программами
//	run       Управление runs
//	schedule  Управление schedules
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/kalk/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

// Коды выхода: ошибка в программе KALK отличается от ошибки самого CLI.
const (
	exitProgramError = 1
	exitUsageError   = 2
)

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "kalk",
		Short:         "KALK interpreter and API client",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewExecCmd(outputFn),
		cli.NewCheckCmd(outputFn),
		cli.NewFmtCmd(outputFn),
		cli.NewEvalCmd(clientFn, outputFn),
		cli.NewProgramCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewScheduleCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		// check уже вывел каждую ошибку сам
		if !cli.IsReported(err) {
			cli.NewOutput(jsonOutput).Report(err)
		}
		if cli.IsProgramError(err) {
			os.Exit(exitProgramError)
		}
		os.Exit(exitUsageError)
	}
}
