package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/engine"
	"github.com/shaiso/kalk/internal/repo"
	"github.com/shaiso/kalk/internal/telemetry"
)

// --- Fakes ---

type memStore struct {
	mu        sync.Mutex
	programs  map[uuid.UUID]*domain.Program
	runs      map[uuid.UUID]*domain.Run
	schedules map[uuid.UUID]*domain.Schedule
}

func newMemStore() *memStore {
	return &memStore{
		programs:  make(map[uuid.UUID]*domain.Program),
		runs:      make(map[uuid.UUID]*domain.Run),
		schedules: make(map[uuid.UUID]*domain.Schedule),
	}
}

type memPrograms struct{ *memStore }

func (m memPrograms) Create(_ context.Context, p *domain.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.programs {
		if existing.Name == p.Name {
			return fmt.Errorf("program %q: %w", p.Name, repo.ErrAlreadyExists)
		}
	}
	cp := *p
	m.programs[p.ID] = &cp
	return nil
}

func (m memPrograms) GetByID(_ context.Context, id uuid.UUID) (*domain.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m memPrograms) List(_ context.Context) ([]domain.Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Program
	for _, p := range m.programs {
		out = append(out, *p)
	}
	return out, nil
}

func (m memPrograms) Update(_ context.Context, p *domain.Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.programs[p.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *p
	m.programs[p.ID] = &cp
	return nil
}

func (m memPrograms) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.programs[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.programs, id)
	return nil
}

type memRuns struct{ *memStore }

func (m memRuns) Create(_ context.Context, run *domain.Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run.CreatedAt = time.Now()
	cp := *run
	m.runs[run.ID] = &cp
	return nil
}

func (m memRuns) GetByID(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m memRuns) GetByIdempotencyKey(_ context.Context, programID uuid.UUID, key string) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.runs {
		if r.ProgramID == programID && r.IdempotencyKey == key {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m memRuns) List(_ context.Context, filter repo.RunFilter) ([]domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Run
	for _, r := range m.runs {
		if filter.ProgramID != nil && r.ProgramID != *filter.ProgramID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (m memRuns) Cancel(_ context.Context, id uuid.UUID) (*domain.Run, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.runs[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	if !r.CanCancel() {
		return nil, fmt.Errorf("cancel run: %w", repo.ErrInvalidState)
	}
	r.MarkCancelled()
	cp := *r
	return &cp, nil
}

type memSchedules struct{ *memStore }

func (m memSchedules) Create(_ context.Context, s *domain.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m memSchedules) GetByID(_ context.Context, id uuid.UUID) (*domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m memSchedules) List(_ context.Context, filter repo.ScheduleFilter) ([]domain.Schedule, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Schedule
	for _, s := range m.schedules {
		if filter.Enabled != nil && s.Enabled != *filter.Enabled {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (m memSchedules) Update(_ context.Context, s *domain.Schedule) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[s.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *s
	m.schedules[s.ID] = &cp
	return nil
}

func (m memSchedules) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.schedules[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.schedules, id)
	return nil
}

func (m memSchedules) SetEnabled(_ context.Context, id uuid.UUID, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.schedules[id]
	if !ok {
		return repo.ErrNotFound
	}
	s.Enabled = enabled
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	runIDs []uuid.UUID
}

func (p *recordingPublisher) PublishRunPending(_ context.Context, runID, _ uuid.UUID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.runIDs = append(p.runIDs, runID)
	return nil
}

// --- Helpers ---

type testServer struct {
	store     *memStore
	publisher *recordingPublisher
	handler   *Handler
	mux       *http.ServeMux
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := newMemStore()
	pub := &recordingPublisher{}
	h := NewHandler(Config{
		ProgramRepo:  memPrograms{store},
		RunRepo:      memRuns{store},
		ScheduleRepo: memSchedules{store},
		Publisher:    pub,
		EvalTimeout:  time.Second,
		Logger:       telemetry.Discard(),
	})
	h.now = func() time.Time { return time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC) }

	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testServer{store: store, publisher: pub, handler: h, mux: mux}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var resp struct {
		Data T `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorDetail {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	return resp.Error
}

func (s *testServer) createProgram(t *testing.T, name, source string) ProgramResponse {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/programs", CreateProgramRequest{Name: name, Source: source})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create program: status %d: %s", rec.Code, rec.Body)
	}
	return decodeData[ProgramResponse](t, rec)
}

// --- Programs ---

func TestPrograms_CRUD(t *testing.T) {
	s := newTestServer(t)

	created := s.createProgram(t, "sum", "CITESTE n\nSCRIE n + 1")
	if created.ID == uuid.Nil || created.Name != "sum" {
		t.Fatalf("unexpected program: %+v", created)
	}

	rec := s.do(t, http.MethodGet, "/api/v1/programs/"+created.ID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d", rec.Code)
	}
	if got := decodeData[ProgramResponse](t, rec); got.Source != created.Source {
		t.Errorf("source = %q", got.Source)
	}

	newSource := "SCRIE 42"
	rec = s.do(t, http.MethodPut, "/api/v1/programs/"+created.ID.String(), UpdateProgramRequest{Source: &newSource})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d: %s", rec.Code, rec.Body)
	}
	if got := decodeData[ProgramResponse](t, rec); got.Source != newSource || got.Name != "sum" {
		t.Errorf("after update: %+v", got)
	}

	rec = s.do(t, http.MethodGet, "/api/v1/programs", nil)
	if got := decodeData[[]ProgramResponse](t, rec); len(got) != 1 {
		t.Errorf("list: got %d programs", len(got))
	}

	rec = s.do(t, http.MethodDelete, "/api/v1/programs/"+created.ID.String(), nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/v1/programs/"+created.ID.String(), nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d", rec.Code)
	}
}

func TestPrograms_InvalidSource(t *testing.T) {
	tests := []struct {
		name   string
		source string
		kind   engine.ErrorKind
		pos    engine.Pos
	}{
		{
			name:   "lexical",
			source: "SCRIE 1 # 2",
			kind:   engine.KindLexical,
			pos:    engine.Pos{Line: 1, Column: 9, Offset: 8},
		},
		{
			name:   "missing SFARSIT",
			source: "DACA 1 > 0 ATUNCI\nSCRIE 1\n",
			kind:   engine.KindSyntax,
			pos:    engine.Pos{Line: 3, Column: 1, Offset: 26},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodPost, "/api/v1/programs", CreateProgramRequest{Name: "bad", Source: tt.source})
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d, want 400", rec.Code)
			}

			detail := decodeError(t, rec)
			if detail.Code != ErrCodeInvalidProgram || detail.Kind != tt.kind {
				t.Errorf("error = %+v", detail)
			}
			if detail.Position == nil || *detail.Position != tt.pos {
				t.Errorf("position = %v, want %+v", detail.Position, tt.pos)
			}
			if len(s.store.programs) != 0 {
				t.Error("invalid program must not be stored")
			}
		})
	}
}

func TestPrograms_DuplicateName(t *testing.T) {
	s := newTestServer(t)
	s.createProgram(t, "dup", "SCRIE 1")

	rec := s.do(t, http.MethodPost, "/api/v1/programs", CreateProgramRequest{Name: "dup", Source: "SCRIE 2"})
	if rec.Code != http.StatusConflict {
		t.Errorf("status %d, want 409", rec.Code)
	}
}

func TestPrograms_BadRequests(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"empty name", http.MethodPost, "/api/v1/programs", CreateProgramRequest{Source: "SCRIE 1"}, http.StatusBadRequest},
		{"bad id", http.MethodGet, "/api/v1/programs/nope", nil, http.StatusBadRequest},
		{"unknown id", http.MethodGet, "/api/v1/programs/" + uuid.NewString(), nil, http.StatusNotFound},
		{"delete unknown", http.MethodDelete, "/api/v1/programs/" + uuid.NewString(), nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(t, tt.method, tt.path, tt.body); rec.Code != tt.want {
				t.Errorf("status %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

// --- Runs ---

func TestRuns_CreateAndPublish(t *testing.T) {
	s := newTestServer(t)
	p := s.createProgram(t, "p", "CITESTE x\nSCRIE x")

	rec := s.do(t, http.MethodPost, "/api/v1/programs/"+p.ID.String()+"/runs",
		CreateRunRequest{Inputs: map[string]int64{"x": -3}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	run := decodeData[RunResponse](t, rec)

	if run.Status != string(domain.RunStatusPending) || run.ProgramID != p.ID {
		t.Errorf("unexpected run: %+v", run)
	}
	if run.Inputs["x"] != -3 {
		t.Errorf("inputs = %v", run.Inputs)
	}
	if diff := cmp.Diff([]uuid.UUID{run.ID}, s.publisher.runIDs); diff != "" {
		t.Errorf("published (-want +got):\n%s", diff)
	}
}

func TestRuns_Idempotent(t *testing.T) {
	s := newTestServer(t)
	p := s.createProgram(t, "p", "SCRIE 1")
	path := "/api/v1/programs/" + p.ID.String() + "/runs"

	first := decodeData[RunResponse](t, s.do(t, http.MethodPost, path, CreateRunRequest{IdempotencyKey: "k1"}))

	rec := s.do(t, http.MethodPost, path, CreateRunRequest{IdempotencyKey: "k1"})
	if rec.Code != http.StatusOK {
		t.Fatalf("repeat: status %d", rec.Code)
	}
	second := decodeData[RunResponse](t, rec)

	if first.ID != second.ID {
		t.Errorf("expected the same run, got %s and %s", first.ID, second.ID)
	}
	if len(s.publisher.runIDs) != 1 {
		t.Errorf("published %d times, want 1", len(s.publisher.runIDs))
	}
}

func TestRuns_UnknownProgram(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/v1/programs/"+uuid.NewString()+"/runs", CreateRunRequest{})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status %d, want 404", rec.Code)
	}
}

func TestRuns_Cancel(t *testing.T) {
	s := newTestServer(t)
	p := s.createProgram(t, "p", "SCRIE 1")
	run := decodeData[RunResponse](t, s.do(t, http.MethodPost, "/api/v1/programs/"+p.ID.String()+"/runs", CreateRunRequest{}))

	rec := s.do(t, http.MethodPost, "/api/v1/runs/"+run.ID.String()+"/cancel", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status %d", rec.Code)
	}
	if got := decodeData[RunResponse](t, rec); got.Status != string(domain.RunStatusCancelled) {
		t.Errorf("status = %s", got.Status)
	}

	// Повторная отмена — run уже в финальном статусе
	rec = s.do(t, http.MethodPost, "/api/v1/runs/"+run.ID.String()+"/cancel", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("second cancel: status %d, want 422", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/v1/runs/"+uuid.NewString()+"/cancel", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown run: status %d, want 404", rec.Code)
	}
}

func TestRuns_ListFilters(t *testing.T) {
	s := newTestServer(t)
	a := s.createProgram(t, "a", "SCRIE 1")
	b := s.createProgram(t, "b", "SCRIE 2")
	s.do(t, http.MethodPost, "/api/v1/programs/"+a.ID.String()+"/runs", CreateRunRequest{})
	s.do(t, http.MethodPost, "/api/v1/programs/"+b.ID.String()+"/runs", CreateRunRequest{})

	rec := s.do(t, http.MethodGet, "/api/v1/runs?program_id="+a.ID.String(), nil)
	if got := decodeData[[]RunResponse](t, rec); len(got) != 1 || got[0].ProgramID != a.ID {
		t.Errorf("filtered list = %+v", got)
	}

	for _, q := range []string{"status=BOGUS", "limit=0", "offset=-1", "program_id=x"} {
		if rec := s.do(t, http.MethodGet, "/api/v1/runs?"+q, nil); rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status %d, want 400", q, rec.Code)
		}
	}
}

// --- Schedules ---

func TestSchedules_Create(t *testing.T) {
	s := newTestServer(t)
	p := s.createProgram(t, "p", "SCRIE 1")
	path := "/api/v1/programs/" + p.ID.String() + "/schedules"

	rec := s.do(t, http.MethodPost, path, CreateScheduleRequest{Name: "daily", CronExpr: "0 9 * * *"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d: %s", rec.Code, rec.Body)
	}
	sched := decodeData[ScheduleResponse](t, rec)

	want := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	if !sched.Enabled || sched.Timezone != "UTC" {
		t.Errorf("unexpected schedule: %+v", sched)
	}
	if sched.NextDueAt == nil || !sched.NextDueAt.Equal(want) {
		t.Errorf("next_due_at = %v, want %v", sched.NextDueAt, want)
	}

	bad := []CreateScheduleRequest{
		{Name: "none"},
		{Name: "both", CronExpr: "* * * * *", IntervalSec: 5},
		{Name: "cron", CronExpr: "sometimes"},
		{Name: "tz", IntervalSec: 5, Timezone: "Nowhere/City"},
		{IntervalSec: 5},
	}
	for _, req := range bad {
		if rec := s.do(t, http.MethodPost, path, req); rec.Code != http.StatusBadRequest {
			t.Errorf("%+v: status %d, want 400", req, rec.Code)
		}
	}
}

func TestSchedules_EnableRecomputesNextDue(t *testing.T) {
	s := newTestServer(t)
	p := s.createProgram(t, "p", "SCRIE 1")
	disabled := false
	sched := decodeData[ScheduleResponse](t, s.do(t, http.MethodPost,
		"/api/v1/programs/"+p.ID.String()+"/schedules",
		CreateScheduleRequest{Name: "every", IntervalSec: 60, Enabled: &disabled}))

	if sched.Enabled || sched.NextDueAt != nil {
		t.Fatalf("disabled schedule: %+v", sched)
	}

	rec := s.do(t, http.MethodPut, "/api/v1/schedules/"+sched.ID.String()+"/enabled", SetEnabledRequest{Enabled: true})
	if rec.Code != http.StatusOK {
		t.Fatalf("enable: status %d: %s", rec.Code, rec.Body)
	}
	got := decodeData[ScheduleResponse](t, rec)
	want := s.handler.now().Add(time.Minute)
	if !got.Enabled || got.NextDueAt == nil || !got.NextDueAt.Equal(want) {
		t.Errorf("after enable: %+v", got)
	}

	rec = s.do(t, http.MethodPut, "/api/v1/schedules/"+sched.ID.String()+"/enabled", SetEnabledRequest{Enabled: false})
	if got := decodeData[ScheduleResponse](t, rec); got.Enabled {
		t.Error("schedule still enabled")
	}
}

func TestSchedules_UpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	p := s.createProgram(t, "p", "SCRIE 1")
	sched := decodeData[ScheduleResponse](t, s.do(t, http.MethodPost,
		"/api/v1/programs/"+p.ID.String()+"/schedules",
		CreateScheduleRequest{Name: "every", IntervalSec: 60}))

	interval := 120
	rec := s.do(t, http.MethodPut, "/api/v1/schedules/"+sched.ID.String(), UpdateScheduleRequest{IntervalSec: &interval})
	if rec.Code != http.StatusOK {
		t.Fatalf("update: status %d: %s", rec.Code, rec.Body)
	}
	got := decodeData[ScheduleResponse](t, rec)
	if want := s.handler.now().Add(2 * time.Minute); got.NextDueAt == nil || !got.NextDueAt.Equal(want) {
		t.Errorf("next_due_at = %v, want %v", got.NextDueAt, want)
	}

	cron := "* * * * *"
	rec = s.do(t, http.MethodPut, "/api/v1/schedules/"+sched.ID.String(), UpdateScheduleRequest{CronExpr: &cron})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("cron with interval: status %d, want 400", rec.Code)
	}

	if rec := s.do(t, http.MethodDelete, "/api/v1/schedules/"+sched.ID.String(), nil); rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", rec.Code)
	}
	if rec := s.do(t, http.MethodGet, "/api/v1/schedules/"+sched.ID.String(), nil); rec.Code != http.StatusNotFound {
		t.Errorf("get after delete: status %d", rec.Code)
	}
}

// --- Eval ---

func TestEval(t *testing.T) {
	tests := []struct {
		name       string
		req        EvalRequest
		wantOutput []string
		wantKind   engine.ErrorKind
	}{
		{
			name:       "loop",
			req:        EvalRequest{Source: "DECLAR x VALOARE 3\nCATTIMP x > 0 EXECUTA\nSCRIE x\nx <- x - 1\nSFARSIT"},
			wantOutput: []string{"3", "2", "1"},
		},
		{
			name:       "inputs",
			req:        EvalRequest{Source: "CITESTE x\nDACA x > 0 ATUNCI SCRIE 1 ALTFEL SCRIE 0 SFARSIT", Inputs: map[string]int64{"x": -3}},
			wantOutput: []string{"0"},
		},
		{
			name:       "partial output before runtime error",
			req:        EvalRequest{Source: "SCRIE 1\nSCRIE 1 / 0\nSCRIE 2"},
			wantOutput: []string{"1"},
			wantKind:   engine.KindRuntime,
		},
		{
			name:       "missing input",
			req:        EvalRequest{Source: "CITESTE y"},
			wantOutput: []string{},
			wantKind:   engine.KindRuntime,
		},
		{
			name:       "syntax",
			req:        EvalRequest{Source: "DECLAR x 5"},
			wantOutput: []string{},
			wantKind:   engine.KindSyntax,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodPost, "/api/v1/eval", tt.req)
			if rec.Code != http.StatusOK {
				t.Fatalf("status %d: %s", rec.Code, rec.Body)
			}
			resp := decodeData[EvalResponse](t, rec)

			if diff := cmp.Diff(tt.wantOutput, resp.Output); diff != "" {
				t.Errorf("output (-want +got):\n%s", diff)
			}
			switch {
			case tt.wantKind == "" && resp.Error != nil:
				t.Errorf("unexpected error: %+v", resp.Error)
			case tt.wantKind != "" && (resp.Error == nil || resp.Error.Kind != tt.wantKind):
				t.Errorf("error = %+v, want kind %s", resp.Error, tt.wantKind)
			case tt.wantKind != "" && resp.Error.Position == nil:
				t.Error("error position missing")
			}
		})
	}
}

func TestEval_Timeout(t *testing.T) {
	s := newTestServer(t)
	s.handler.executor.Timeout = 20 * time.Millisecond

	rec := s.do(t, http.MethodPost, "/api/v1/eval", EvalRequest{Source: "CATTIMP 1 == 1 EXECUTA SFARSIT"})
	resp := decodeData[EvalResponse](t, rec)
	if resp.Error == nil || resp.Error.Kind != engine.KindRuntime {
		t.Fatalf("expected runtime error, got %+v", resp.Error)
	}
}

func TestRequestBodyLimit(t *testing.T) {
	huge := strings.Repeat("SCRIE 1\n", MaxBodyBytes/8+1)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"eval", "/api/v1/eval", EvalRequest{Source: huge}},
		{"create program", "/api/v1/programs", CreateProgramRequest{Name: "big", Source: huge}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != http.StatusRequestEntityTooLarge {
				t.Fatalf("status %d, want 413", rec.Code)
			}
			if got := decodeError(t, rec).Code; got != ErrCodeTooLarge {
				t.Errorf("code %s, want %s", got, ErrCodeTooLarge)
			}
			if len(s.store.programs) != 0 {
				t.Errorf("stored %d programs, want 0", len(s.store.programs))
			}
		})
	}
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/eval", strings.NewReader("{\"source\":"))
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	if got := decodeError(t, rec).Code; got != ErrCodeBadRequest {
		t.Errorf("code %s, want %s", got, ErrCodeBadRequest)
	}
}

// --- Middleware ---

func TestRecovery(t *testing.T) {
	h := Recovery(telemetry.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status %d, want 500", rec.Code)
	}
}

func TestResponseWriterCapturesStatus(t *testing.T) {
	var captured int
	inner := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		NotFound(w, "nope")
	})
	outer := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := wrapResponseWriter(w)
			next.ServeHTTP(rw, r)
			captured = rw.status
		})
	}

	outer(inner).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if captured != http.StatusNotFound {
		t.Errorf("captured %d, want 404", captured)
	}
}
