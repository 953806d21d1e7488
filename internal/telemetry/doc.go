// Package telemetry — логи и метрики сервисов KALK.
//
// Логгер настраивается один раз в main через SetupLogger (LOG_LEVEL, LOG_FORMAT)
// и передаётся дальше явно; WithRunID, WithProgramID и WithScheduleID
// добавляют идентификаторы к записям.
//
// Метрики регистрируются в реестре Prometheus по умолчанию:
// kalk-api, kalk-worker и kalk-scheduler отдают их на /metrics.
// Движок интерпретатора сам ничего не логирует и не считает.
package telemetry
