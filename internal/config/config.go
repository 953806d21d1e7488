// Package config — настройки сервисов KALK из переменных окружения.
//
// Все значения читаются один раз при старте бинарника.
// Пустая переменная означает значение по умолчанию.
package config

import (
	"fmt"
	"time"

	"github.com/xyproto/env/v2"
)

// Config — настройки, общие для kalk-api, kalk-worker и kalk-scheduler.
type Config struct {
	// APIPort — порт HTTP API.
	APIPort int
	// SchedulerPort — порт /healthz и /metrics планировщика.
	SchedulerPort int
	// WorkerPort — порт /healthz и /metrics воркера.
	WorkerPort int

	// RunTimeout — предельное время выполнения одной программы.
	RunTimeout time.Duration
	// WorkerPollInterval — период опроса БД воркером.
	WorkerPollInterval time.Duration
	// WorkerBatch — сколько pending runs воркер забирает за один опрос.
	WorkerBatch int

	// SchedulerTick — период тика планировщика.
	SchedulerTick time.Duration
	// SchedulerBatch — сколько due schedules обрабатывается за тик.
	SchedulerBatch int
}

// Load читает конфигурацию из окружения.
func Load() (Config, error) {
	cfg := Config{
		APIPort:            env.Int("API_PORT", 8080),
		SchedulerPort:      env.Int("SCHED_PORT", 8081),
		WorkerPort:         env.Int("WORKER_PORT", 8082),
		RunTimeout:         time.Duration(env.Int("RUN_TIMEOUT_SEC", 10)) * time.Second,
		WorkerPollInterval: time.Duration(env.Int("WORKER_POLL_SEC", 10)) * time.Second,
		WorkerBatch:        env.Int("WORKER_BATCH", 50),
		SchedulerTick:      time.Duration(env.Int("SCHED_TICK_SEC", 1)) * time.Second,
		SchedulerBatch:     env.Int("SCHED_BATCH", 100),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет, что все значения положительные.
func (c Config) Validate() error {
	ports := map[string]int{
		"API_PORT":    c.APIPort,
		"SCHED_PORT":  c.SchedulerPort,
		"WORKER_PORT": c.WorkerPort,
	}
	for name, port := range ports {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("%s: invalid port %d", name, port)
		}
	}

	switch {
	case c.RunTimeout <= 0:
		return fmt.Errorf("RUN_TIMEOUT_SEC must be positive")
	case c.WorkerPollInterval <= 0:
		return fmt.Errorf("WORKER_POLL_SEC must be positive")
	case c.SchedulerTick <= 0:
		return fmt.Errorf("SCHED_TICK_SEC must be positive")
	case c.WorkerBatch <= 0:
		return fmt.Errorf("WORKER_BATCH must be positive")
	case c.SchedulerBatch <= 0:
		return fmt.Errorf("SCHED_BATCH must be positive")
	}
	return nil
}

// Addr возвращает адрес для http.ListenAndServe.
func Addr(port int) string {
	return fmt.Sprintf(":%d", port)
}
