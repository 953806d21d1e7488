package telemetry

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/xyproto/env/v2"
)

// setEnv задаёт переменную окружения на время теста.
// env кэширует окружение при первом чтении, поэтому кэш перечитывается
// сразу и ещё раз после восстановления старого значения.
func setEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Cleanup(env.Load)
	t.Setenv(key, value)
	env.Load()
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		env  string
		want slog.Level
	}{
		{"DEBUG", slog.LevelDebug},
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"ERROR", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			setEnv(t, "LOG_LEVEL", tt.env)
			if got := LogLevel(); got != tt.want {
				t.Errorf("LogLevel() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewLogger_JSONWithIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, "json", slog.LevelInfo)
	logger = WithProgramID(WithRunID(logger, "run-1"), "prog-1")

	logger.Info("run finished", "status", "SUCCEEDED")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log entry is not JSON: %v (%s)", err, buf.String())
	}
	if entry["run_id"] != "run-1" || entry["program_id"] != "prog-1" {
		t.Errorf("ids missing from entry: %v", entry)
	}
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, "text", slog.LevelWarn).Info("hidden")
	NewLogger(&buf, "text", slog.LevelWarn).Warn("shown", "schedule_id", "s-1")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info entry should be filtered at WARN level")
	}
	if !strings.Contains(out, "schedule_id=s-1") {
		t.Errorf("unexpected text output: %q", out)
	}
}

func TestObserveRun(t *testing.T) {
	before := testutil.ToFloat64(ProgramErrorsTotal.WithLabelValues("runtime"))
	beforeLines := testutil.ToFloat64(OutputLinesTotal)

	ObserveRun("FAILED", "runtime", 3, time.Millisecond)
	ObserveRun("SUCCEEDED", "", 2, time.Millisecond)

	if got := testutil.ToFloat64(ProgramErrorsTotal.WithLabelValues("runtime")) - before; got != 1 {
		t.Errorf("runtime errors delta = %v, want 1", got)
	}
	if got := testutil.ToFloat64(OutputLinesTotal) - beforeLines; got != 5 {
		t.Errorf("output lines delta = %v, want 5", got)
	}
}
