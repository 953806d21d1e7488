package config

import (
	"testing"
	"time"

	"github.com/xyproto/env/v2"
)

// setEnv задаёт переменную окружения на время теста и перечитывает кэш env.
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Cleanup(env.Load)
	t.Setenv(key, value)
	env.Load()
}

func validConfig() Config {
	return Config{
		APIPort:            8080,
		SchedulerPort:      8081,
		WorkerPort:         8082,
		RunTimeout:         10 * time.Second,
		WorkerPollInterval: 10 * time.Second,
		WorkerBatch:        50,
		SchedulerTick:      time.Second,
		SchedulerBatch:     100,
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if want := validConfig(); cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setEnv(t, "API_PORT", "9090")
	setEnv(t, "RUN_TIMEOUT_SEC", "3")
	setEnv(t, "WORKER_BATCH", "7")
	setEnv(t, "SCHED_TICK_SEC", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := validConfig()
	want.APIPort = 9090
	want.RunTimeout = 3 * time.Second
	want.WorkerBatch = 7
	want.SchedulerTick = 5 * time.Second
	if cfg != want {
		t.Errorf("got %+v, want %+v", cfg, want)
	}
}

func TestLoad_InvalidEnv(t *testing.T) {
	setEnv(t, "RUN_TIMEOUT_SEC", "0")

	if _, err := Load(); err == nil {
		t.Error("expected error for zero RUN_TIMEOUT_SEC")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port too large", func(c *Config) { c.APIPort = 70000 }},
		{"zero port", func(c *Config) { c.WorkerPort = 0 }},
		{"zero run timeout", func(c *Config) { c.RunTimeout = 0 }},
		{"negative poll", func(c *Config) { c.WorkerPollInterval = -time.Second }},
		{"zero tick", func(c *Config) { c.SchedulerTick = 0 }},
		{"zero worker batch", func(c *Config) { c.WorkerBatch = 0 }},
		{"negative scheduler batch", func(c *Config) { c.SchedulerBatch = -1 }},
	}

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestAddr(t *testing.T) {
	if got := Addr(8080); got != ":8080" {
		t.Errorf("Addr = %q", got)
	}
}
