// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchanges, queues, bindings
//   - publisher.go  — публикация сообщений в очереди
//   - consumer.go   — потребление сообщений из очередей
//
// Типы сообщений:
//   - run.pending — новый run ожидает выполнения воркером
//
// Exchanges:
//   - kalk.runs — события runs
//   - kalk.dlq  — dead letter queue
//
// Очередь — только способ быстро разбудить воркер. Источник истины — БД:
// потерянное сообщение подхватит polling воркера.
package mq
