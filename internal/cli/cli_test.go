package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/shaiso/kalk/internal/engine"
)

func init() {
	color.NoColor = true
}

// --- Inputs ---

func TestParseInputs(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]int64
		wantErr bool
	}{
		{name: "none", pairs: nil, want: nil},
		{name: "values", pairs: []string{"x=5", "y = -3"}, want: map[string]int64{"x": 5, "y": -3}},
		{name: "last wins", pairs: []string{"x=1", "x=2"}, want: map[string]int64{"x": 2}},
		{name: "no equals", pairs: []string{"x"}, wantErr: true},
		{name: "empty name", pairs: []string{"=4"}, wantErr: true},
		{name: "not integer", pairs: []string{"x=abc"}, wantErr: true},
		{name: "too large", pairs: []string{"x=99999999999999999999"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseInputs(tt.pairs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("inputs (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecodeInputs(t *testing.T) {
	got, err := DecodeInputs(strings.NewReader("n: 10\nlimita: -3\n"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(map[string]int64{"n": 10, "limita": -3}, got); diff != "" {
		t.Errorf("inputs (-want +got):\n%s", diff)
	}

	empty, err := DecodeInputs(strings.NewReader(""))
	if err != nil || len(empty) != 0 {
		t.Errorf("empty document: %v, %v", empty, err)
	}

	if _, err := DecodeInputs(strings.NewReader("n: ten\n")); err == nil {
		t.Error("non-integer value accepted")
	}
	if _, err := DecodeInputs(strings.NewReader("- 1\n- 2\n")); err == nil {
		t.Error("list accepted")
	}
}

func TestMergeInputs(t *testing.T) {
	got := MergeInputs(map[string]int64{"a": 1, "b": 2}, map[string]int64{"b": 3})
	if diff := cmp.Diff(map[string]int64{"a": 1, "b": 3}, got); diff != "" {
		t.Errorf("merged (-want +got):\n%s", diff)
	}
	if MergeInputs(nil, nil) != nil {
		t.Error("merging nothing should give nil")
	}
}

// --- Prompt ---

type scriptedReader struct {
	lines   []string
	err     error
	prompts []string
}

func (r *scriptedReader) Prompt(p string) (string, error) {
	r.prompts = append(r.prompts, p)
	if len(r.lines) == 0 {
		if r.err != nil {
			return "", r.err
		}
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func TestPromptInput(t *testing.T) {
	reader := &scriptedReader{lines: []string{"abc", " -3 "}}
	var errBuf bytes.Buffer
	p := NewPromptInput(reader, &errBuf)

	v, err := p.Input(context.Background(), "x")
	if err != nil {
		t.Fatal(err)
	}
	if v != -3 {
		t.Errorf("got %d, want -3", v)
	}
	if diff := cmp.Diff([]string{"x = ", "x = "}, reader.prompts); diff != "" {
		t.Errorf("prompts (-want +got):\n%s", diff)
	}
	if !strings.Contains(errBuf.String(), "not an integer") {
		t.Errorf("missing retry hint: %q", errBuf.String())
	}
}

func TestPromptInput_Aborted(t *testing.T) {
	for _, cause := range []error{liner.ErrPromptAborted, io.EOF} {
		p := NewPromptInput(&scriptedReader{err: cause}, io.Discard)
		if _, err := p.Input(context.Background(), "x"); !errors.Is(err, ErrInputAborted) {
			t.Errorf("%v: got %v, want ErrInputAborted", cause, err)
		}
	}
}

func TestPromptInput_InsideProgram(t *testing.T) {
	prog, err := engine.Parse("CITESTE x\nDACA x > 0 ATUNCI SCRIE 1 ALTFEL SCRIE 0 SFARSIT")
	if err != nil {
		t.Fatal(err)
	}

	ec := engine.NewContext(engine.WithInput(NewPromptInput(&scriptedReader{lines: []string{"-3"}}, io.Discard)))
	if err := engine.Run(context.Background(), prog, ec); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"0"}, ec.Output()); diff != "" {
		t.Errorf("output (-want +got):\n%s", diff)
	}

	// Прерванный ввод — runtime ошибка
	ec = engine.NewContext(engine.WithInput(NewPromptInput(&scriptedReader{}, io.Discard)))
	err = engine.Run(context.Background(), prog, ec)
	if !errors.Is(err, engine.ErrInputFailed) || !errors.Is(err, ErrInputAborted) {
		t.Errorf("got %v", err)
	}
}

// --- Local commands ---

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func runCmd(t *testing.T, build func(func() *Output) *cobra.Command, jsonMode bool, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := build(func() *Output { return NewOutputTo(jsonMode, &stdout, &stderr) })
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExec(t *testing.T) {
	loop := writeFile(t, "loop.kalk", "DECLAR x VALOARE 3\nCATTIMP x > 0 EXECUTA\nSCRIE x\nx <- x - 1\nSFARSIT\n")

	stdout, _, err := runCmd(t, NewExecCmd, false, loop)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "3\n2\n1\n" {
		t.Errorf("stdout = %q", stdout)
	}
}

func TestExec_Inputs(t *testing.T) {
	prog := writeFile(t, "sum.kalk", "CITESTE a\nCITESTE b\nSCRIE a + b\n")
	inputs := writeFile(t, "in.yaml", "a: 40\nb: 1\n")

	stdout, _, err := runCmd(t, NewExecCmd, false, prog, "--inputs", inputs, "--input", "b=2")
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "42\n" {
		t.Errorf("stdout = %q", stdout)
	}

	_, _, err = runCmd(t, NewExecCmd, false, prog, "--input", "a=1")
	if !errors.Is(err, engine.ErrInputMissing) {
		t.Errorf("missing input: got %v", err)
	}
}

func TestExec_Interactive(t *testing.T) {
	reader := &scriptedReader{lines: []string{"7"}}
	closed := false
	orig := openTerminal
	openTerminal = func() (LineReader, func() error) {
		return reader, func() error { closed = true; return nil }
	}
	t.Cleanup(func() { openTerminal = orig })

	prog := writeFile(t, "echo.kalk", "CITESTE n\nSCRIE n * 2\n")
	stdout, _, err := runCmd(t, NewExecCmd, false, prog)
	if err != nil {
		t.Fatal(err)
	}
	if stdout != "14\n" {
		t.Errorf("stdout = %q", stdout)
	}
	if !closed {
		t.Error("terminal not closed")
	}
}

func TestExec_NoTerminalWithoutInput(t *testing.T) {
	orig := openTerminal
	openTerminal = func() (LineReader, func() error) {
		t.Error("terminal opened for a program without CITESTE")
		return &scriptedReader{}, func() error { return nil }
	}
	t.Cleanup(func() { openTerminal = orig })

	prog := writeFile(t, "p.kalk", "SCRIE 1")
	if _, _, err := runCmd(t, NewExecCmd, false, prog); err != nil {
		t.Fatal(err)
	}
}

func TestExec_RuntimeErrorKeepsOutput(t *testing.T) {
	prog := writeFile(t, "div.kalk", "SCRIE 1\nSCRIE 1 / 0\nSCRIE 2\n")

	stdout, _, err := runCmd(t, NewExecCmd, false, prog)
	if engine.KindOf(err) != engine.KindRuntime {
		t.Fatalf("expected runtime error, got %v", err)
	}
	if stdout != "1\n" {
		t.Errorf("stdout = %q", stdout)
	}

	stdout, _, _ = runCmd(t, NewExecCmd, true, prog)
	var res struct {
		Output []string `json:"output"`
		Error  struct {
			Kind string `json:"kind"`
		} `json:"error"`
	}
	if err := json.Unmarshal([]byte(stdout), &res); err != nil {
		t.Fatalf("json output: %v: %q", err, stdout)
	}
	if len(res.Output) != 1 || res.Error.Kind != "runtime" {
		t.Errorf("json result = %+v", res)
	}
}

func TestExec_Timeout(t *testing.T) {
	prog := writeFile(t, "forever.kalk", "CATTIMP 1 == 1 EXECUTA SFARSIT")

	_, _, err := runCmd(t, NewExecCmd, false, prog, "--timeout", "20ms")
	if !errors.Is(err, engine.ErrCancelled) {
		t.Errorf("got %v, want ErrCancelled", err)
	}
}

func TestCheck(t *testing.T) {
	good := writeFile(t, "good.kalk", "SCRIE 1")
	bad := writeFile(t, "bad.kalk", "DACA x > 0 ATUNCI\nSCRIE 1\n")

	_, stderr, err := runCmd(t, NewCheckCmd, false, good, bad)
	if err == nil {
		t.Fatal("expected error")
	}
	if !IsReported(err) {
		t.Errorf("check should report its own errors, got %v", err)
	}
	if !strings.Contains(stderr, "good.kalk: ok") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(stderr, "syntax error") || !strings.Contains(stderr, "end of input") {
		t.Errorf("stderr should describe the syntax error: %q", stderr)
	}
}

func TestFmt(t *testing.T) {
	path := writeFile(t, "messy.kalk", "declar x valoare 2 daca x>1 atunci scrie x*2 sfarsit")
	want := "DECLAR x VALOARE 2\nDACA x > 1 ATUNCI\n  SCRIE x * 2\nSFARSIT\n"

	stdout, _, err := runCmd(t, NewFmtCmd, false, path)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(want, stdout); diff != "" {
		t.Errorf("formatted (-want +got):\n%s", diff)
	}

	if _, _, err := runCmd(t, NewFmtCmd, false, path, "-w"); err != nil {
		t.Fatal(err)
	}
	written, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(written) != want {
		t.Errorf("file = %q", written)
	}
}

// --- Client ---

func TestClient_InvalidProgram(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/programs" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":"INVALID_PROGRAM","message":"syntax error at 2:1: expected SFARSIT, found end of input","kind":"syntax","position":{"line":2,"column":1}}}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).CreateProgram("p", "DACA 1 > 0 ATUNCI")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusBadRequest || apiErr.Kind != "syntax" || apiErr.Position == nil || apiErr.Position.Line != 2 {
		t.Errorf("api error = %+v", apiErr)
	}
	if !IsProgramError(err) {
		t.Error("INVALID_PROGRAM should count as a program error")
	}

	var stderr bytes.Buffer
	NewOutputTo(false, io.Discard, &stderr).Report(err)
	if !strings.HasPrefix(stderr.String(), "syntax error at 2:1") {
		t.Errorf("report = %q", stderr.String())
	}
}

func TestClient_ListRunsQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("program_id") != "p1" || q.Get("status") != "FAILED" || q.Get("limit") != "5" {
			t.Errorf("query = %v", q)
		}
		io.WriteString(w, `{"data":[{"id":"r1","program_id":"p1","status":"FAILED","output":["1"],"error_kind":"runtime"}],"total":1}`)
	}))
	defer srv.Close()

	runs, err := NewClient(srv.URL).ListRuns(ListRunsOpts{ProgramID: "p1", Status: "FAILED", Limit: 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 1 || runs[0].ErrorKind != "runtime" || runs[0].Output[0] != "1" {
		t.Errorf("runs = %+v", runs)
	}
}

func TestClient_WaitRun(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		status := "PENDING"
		if calls >= 3 {
			status = "SUCCEEDED"
		}
		io.WriteString(w, `{"data":{"id":"r1","status":"`+status+`","output":["42"]}}`)
	}))
	defer srv.Close()

	run, err := NewClient(srv.URL).WaitRun("r1", time.Millisecond, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if run.Status != "SUCCEEDED" || calls != 3 {
		t.Errorf("status %s after %d calls", run.Status, calls)
	}

	var stdout bytes.Buffer
	if err := printRunResult(NewOutputTo(false, &stdout, io.Discard), run); err != nil {
		t.Fatal(err)
	}
	if stdout.String() != "42\n" {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestPrintRunResult_Failed(t *testing.T) {
	run := &RunResponse{ID: "r1", Status: "FAILED", Output: []string{"1"}, Error: "runtime error at 2:9: division by zero", ErrorKind: "runtime"}

	err := printRunResult(NewOutputTo(false, io.Discard, io.Discard), run)
	if !IsProgramError(err) {
		t.Errorf("expected program error, got %v", err)
	}
}

// --- Schedules ---

func TestScheduleFormatting(t *testing.T) {
	tests := []struct {
		name     string
		schedule ScheduleResponse
		when     string
		inputs   string
	}{
		{
			name:     "cron",
			schedule: ScheduleResponse{CronExpr: "0 9 * * *", Inputs: map[string]int64{"n": 3, "a": -1}},
			when:     "0 9 * * *",
			inputs:   "a=-1 n=3",
		},
		{
			name:     "interval",
			schedule: ScheduleResponse{IntervalSec: 90},
			when:     "every 1m30s",
			inputs:   "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatWhen(&tt.schedule); got != tt.when {
				t.Errorf("formatWhen = %q, want %q", got, tt.when)
			}
			if got := formatInputs(tt.schedule.Inputs); got != tt.inputs {
				t.Errorf("formatInputs = %q, want %q", got, tt.inputs)
			}
		})
	}

	if got := formatTime("2026-03-01T09:00:00Z"); got != "2026-03-01 09:00 UTC" {
		t.Errorf("formatTime = %q", got)
	}
	if got := formatTime(""); got != "-" {
		t.Errorf("formatTime(empty) = %q", got)
	}
}

func TestScheduleList_EnabledFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("enabled"); got != "false" {
			t.Errorf("enabled = %q, want false", got)
		}
		io.WriteString(w, `{"data":[{"id":"s1","program_id":"p1","name":"nightly","interval_sec":60,"enabled":false}],"total":1}`)
	}))
	defer srv.Close()

	var stdout bytes.Buffer
	cmd := NewScheduleCmd(
		func() *Client { return NewClient(srv.URL) },
		func() *Output { return NewOutputTo(false, &stdout, io.Discard) },
	)
	cmd.SetArgs([]string{"list", "--disabled"})
	cmd.SilenceUsage = true
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stdout.String(), "every 1m0s") || !strings.Contains(stdout.String(), "nightly") {
		t.Errorf("table = %q", stdout.String())
	}

	cmd.SetArgs([]string{"list", "--enabled", "--disabled"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error for conflicting filters")
	}
}
