package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name    string
		sched   Schedule
		wantErr bool
	}{
		{name: "cron", sched: Schedule{CronExpr: "*/5 * * * *"}},
		{name: "interval", sched: Schedule{IntervalSec: 60}},
		{name: "neither", sched: Schedule{}, wantErr: true},
		{name: "negative interval", sched: Schedule{IntervalSec: -1}, wantErr: true},
		{name: "both", sched: Schedule{CronExpr: "* * * * *", IntervalSec: 60}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.sched.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSchedule_IsDue(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name  string
		sched Schedule
		want  bool
	}{
		{name: "due", sched: Schedule{Enabled: true, NextDueAt: &past}, want: true},
		{name: "exactly now", sched: Schedule{Enabled: true, NextDueAt: &now}, want: true},
		{name: "future", sched: Schedule{Enabled: true, NextDueAt: &future}},
		{name: "disabled", sched: Schedule{NextDueAt: &past}},
		{name: "no next due", sched: Schedule{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sched.IsDue(now); got != tt.want {
				t.Errorf("IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRun_Lifecycle(t *testing.T) {
	r := &Run{ID: uuid.New(), Status: RunStatusPending}
	if !r.CanCancel() {
		t.Error("pending run should be cancellable")
	}

	r.MarkRunning()
	if r.CanCancel() || r.IsFinished() {
		t.Error("running run should be neither cancellable nor finished")
	}

	r.MarkFailed([]string{"1"}, "runtime", "division by zero")
	if !r.IsFinished() || r.Status != RunStatusFailed {
		t.Errorf("unexpected status %s", r.Status)
	}
	if len(r.Output) != 1 || r.ErrorKind != "runtime" {
		t.Errorf("partial output or kind lost: %+v", r)
	}
	if r.Duration() < 0 {
		t.Error("duration must not be negative")
	}
}

func TestParseRunStatus(t *testing.T) {
	if s, ok := ParseRunStatus("SUCCEEDED"); !ok || s != RunStatusSucceeded {
		t.Errorf("ParseRunStatus(SUCCEEDED) = %q, %v", s, ok)
	}
	if _, ok := ParseRunStatus("QUEUED"); ok {
		t.Error("QUEUED is not a run status")
	}
}
