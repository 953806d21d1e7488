// Package cli реализует инструмент командной строки kalk.
//
// # Обзор
//
// CLI работает в двух режимах:
//   - локально: exec, check и fmt вызывают internal/engine напрямую,
//     сервер не нужен;
//   - удалённо: program, run, schedule и eval обращаются к KALK API по HTTP
//     и не импортируют серверные пакеты.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для KALK API. Инкапсулирует все HTTP-запросы,
// парсинг ответов (DataResponse, ListResponse, ErrorResponse)
// и обработку ошибок. Ошибки API возвращаются как *APIError;
// для INVALID_PROGRAM в них есть класс ошибки и позиция.
//
//	client := cli.NewClient("http://localhost:8080")
//	programs, err := client.ListPrograms()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// Ошибки программ окрашиваются по классу (fatih/color):
// lexical, syntax, runtime.
//
// ## Ввод для CITESTE
//
// exec берёт значения из --inputs (YAML) и --input KEY=VALUE.
// Без них каждое CITESTE спрашивает значение в терминале (PromptInput
// поверх peterh/liner); Ctrl-C прерывает программу с runtime ошибкой.
//
// ## Commands
//
// Cobra-команды организованы по ресурсам:
//   - exec, check, fmt: локальная работа с .kalk файлами
//   - eval: выполнение на сервере без сохранения
//   - program: list, create, show, update, delete
//   - run: list, start, show, cancel
//   - schedule: list, create, show, update, delete, enable, disable
//
// Каждая группа создаётся через фабричную функцию (NewProgramCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
