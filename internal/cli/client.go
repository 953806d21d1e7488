package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// --- Response types (дублируются из api/dto.go, клиент не импортирует internal/api) ---

// ProgramResponse — программа из API.
type ProgramResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Source    string `json:"source"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// RunResponse — run из API.
type RunResponse struct {
	ID             string           `json:"id"`
	ProgramID      string           `json:"program_id"`
	Status         string           `json:"status"`
	Inputs         map[string]int64 `json:"inputs,omitempty"`
	Output         []string         `json:"output"`
	Error          string           `json:"error,omitempty"`
	ErrorKind      string           `json:"error_kind,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	StartedAt      string           `json:"started_at,omitempty"`
	FinishedAt     string           `json:"finished_at,omitempty"`
	CreatedAt      string           `json:"created_at"`
}

// IsFinished возвращает true для финальных статусов.
func (r *RunResponse) IsFinished() bool {
	switch r.Status {
	case "SUCCEEDED", "FAILED", "CANCELLED":
		return true
	}
	return false
}

// ScheduleResponse — schedule из API.
type ScheduleResponse struct {
	ID          string           `json:"id"`
	ProgramID   string           `json:"program_id"`
	Name        string           `json:"name"`
	CronExpr    string           `json:"cron_expr,omitempty"`
	IntervalSec int              `json:"interval_sec,omitempty"`
	Timezone    string           `json:"timezone"`
	Enabled     bool             `json:"enabled"`
	NextDueAt   string           `json:"next_due_at,omitempty"`
	LastRunAt   string           `json:"last_run_at,omitempty"`
	LastRunID   string           `json:"last_run_id,omitempty"`
	Inputs      map[string]int64 `json:"inputs,omitempty"`
	CreatedAt   string           `json:"created_at"`
	UpdatedAt   string           `json:"updated_at"`
}

// Position — позиция в исходном тексте программы.
type Position struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// EvalResponse — результат синхронного выполнения.
type EvalResponse struct {
	Output []string `json:"output"`
	Error  *struct {
		Kind     string    `json:"kind"`
		Message  string    `json:"message"`
		Position *Position `json:"position,omitempty"`
	} `json:"error,omitempty"`
	Steps int `json:"steps"`
}

// --- Request types ---

// UpdateProgramRequest — обновление программы.
type UpdateProgramRequest struct {
	Name   *string `json:"name,omitempty"`
	Source *string `json:"source,omitempty"`
}

// CreateRunRequest — создание run.
type CreateRunRequest struct {
	Inputs         map[string]int64 `json:"inputs,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
}

// CreateScheduleRequest — создание schedule.
type CreateScheduleRequest struct {
	Name        string           `json:"name"`
	CronExpr    string           `json:"cron_expr,omitempty"`
	IntervalSec int              `json:"interval_sec,omitempty"`
	Timezone    string           `json:"timezone,omitempty"`
	Enabled     *bool            `json:"enabled,omitempty"`
	Inputs      map[string]int64 `json:"inputs,omitempty"`
}

// UpdateScheduleRequest — обновление schedule.
type UpdateScheduleRequest struct {
	Name        *string           `json:"name,omitempty"`
	CronExpr    *string           `json:"cron_expr,omitempty"`
	IntervalSec *int              `json:"interval_sec,omitempty"`
	Timezone    *string           `json:"timezone,omitempty"`
	Inputs      *map[string]int64 `json:"inputs,omitempty"`
}

// ListSchedulesOpts — фильтры для списка schedules.
type ListSchedulesOpts struct {
	ProgramID string
	Enabled   *bool
}

// ListRunsOpts — параметры фильтрации runs.
type ListRunsOpts struct {
	ProgramID string
	Status    string
	Limit     int
}

// --- API response wrappers ---

type dataResponse struct {
	Data json.RawMessage `json:"data"`
}

type listResponse struct {
	Data  json.RawMessage `json:"data"`
	Total int             `json:"total"`
}

type errorResponse struct {
	Error APIError `json:"error"`
}

// APIError — ошибка, возвращённая API.
// Для INVALID_PROGRAM заполнены Kind и Position.
type APIError struct {
	Status   int       `json:"-"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Kind     string    `json:"kind,omitempty"`
	Position *Position `json:"position,omitempty"`
}

// Error реализует интерфейс error.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// --- Client ---

// Client — HTTP-клиент для KALK API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// --- Programs ---

// ListPrograms возвращает все программы.
func (c *Client) ListPrograms() ([]ProgramResponse, error) {
	var programs []ProgramResponse
	err := c.list("/api/v1/programs", nil, &programs)
	return programs, err
}

// CreateProgram сохраняет программу.
func (c *Client) CreateProgram(name, source string) (*ProgramResponse, error) {
	body := map[string]string{"name": name, "source": source}
	var program ProgramResponse
	err := c.post("/api/v1/programs", body, &program)
	return &program, err
}

// GetProgram возвращает программу по ID.
func (c *Client) GetProgram(id string) (*ProgramResponse, error) {
	var program ProgramResponse
	err := c.get("/api/v1/programs/"+id, &program)
	return &program, err
}

// UpdateProgram обновляет программу.
func (c *Client) UpdateProgram(id string, req UpdateProgramRequest) (*ProgramResponse, error) {
	var program ProgramResponse
	err := c.put("/api/v1/programs/"+id, req, &program)
	return &program, err
}

// DeleteProgram удаляет программу.
func (c *Client) DeleteProgram(id string) error {
	return c.delete("/api/v1/programs/" + id)
}

// --- Runs ---

// ListRuns возвращает список runs с фильтрацией.
func (c *Client) ListRuns(opts ListRunsOpts) ([]RunResponse, error) {
	params := url.Values{}
	if opts.ProgramID != "" {
		params.Set("program_id", opts.ProgramID)
	}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}

	var runs []RunResponse
	err := c.list("/api/v1/runs", params, &runs)
	return runs, err
}

// CreateRun создаёт run для программы.
func (c *Client) CreateRun(programID string, req CreateRunRequest) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/programs/"+programID+"/runs", req, &run)
	return &run, err
}

// GetRun возвращает run по ID.
func (c *Client) GetRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.get("/api/v1/runs/"+id, &run)
	return &run, err
}

// CancelRun отменяет run.
func (c *Client) CancelRun(id string) (*RunResponse, error) {
	var run RunResponse
	err := c.post("/api/v1/runs/"+id+"/cancel", nil, &run)
	return &run, err
}

// WaitRun опрашивает run, пока он не перейдёт в финальный статус.
func (c *Client) WaitRun(id string, interval, timeout time.Duration) (*RunResponse, error) {
	deadline := time.Now().Add(timeout)
	for {
		run, err := c.GetRun(id)
		if err != nil {
			return nil, err
		}
		if run.IsFinished() {
			return run, nil
		}
		if time.Now().After(deadline) {
			return run, fmt.Errorf("run %s is still %s after %s", id, run.Status, timeout)
		}
		time.Sleep(interval)
	}
}

// --- Schedules ---

// ListSchedules возвращает schedules с фильтрацией.
func (c *Client) ListSchedules(opts ListSchedulesOpts) ([]ScheduleResponse, error) {
	params := url.Values{}
	if opts.ProgramID != "" {
		params.Set("program_id", opts.ProgramID)
	}
	if opts.Enabled != nil {
		params.Set("enabled", strconv.FormatBool(*opts.Enabled))
	}

	var schedules []ScheduleResponse
	err := c.list("/api/v1/schedules", params, &schedules)
	return schedules, err
}

// CreateSchedule создаёт schedule для программы.
func (c *Client) CreateSchedule(programID string, req CreateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.post("/api/v1/programs/"+programID+"/schedules", req, &schedule)
	return &schedule, err
}

// GetSchedule возвращает schedule по ID.
func (c *Client) GetSchedule(id string) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.get("/api/v1/schedules/"+id, &schedule)
	return &schedule, err
}

// UpdateSchedule обновляет schedule.
func (c *Client) UpdateSchedule(id string, req UpdateScheduleRequest) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	err := c.put("/api/v1/schedules/"+id, req, &schedule)
	return &schedule, err
}

// DeleteSchedule удаляет schedule.
func (c *Client) DeleteSchedule(id string) error {
	return c.delete("/api/v1/schedules/" + id)
}

// SetScheduleEnabled включает или выключает schedule.
func (c *Client) SetScheduleEnabled(id string, enabled bool) (*ScheduleResponse, error) {
	var schedule ScheduleResponse
	body := map[string]bool{"enabled": enabled}
	err := c.put("/api/v1/schedules/"+id+"/enabled", body, &schedule)
	return &schedule, err
}

// --- Eval ---

// Eval выполняет исходный текст на сервере без сохранения.
func (c *Client) Eval(source string, inputs map[string]int64) (*EvalResponse, error) {
	body := map[string]any{"source": source, "inputs": inputs}
	var resp EvalResponse
	err := c.post("/api/v1/eval", body, &resp)
	return &resp, err
}

// --- HTTP helpers ---

func (c *Client) get(path string, result any) error {
	return c.doData(http.MethodGet, path, nil, result)
}

func (c *Client) post(path string, body any, result any) error {
	return c.doData(http.MethodPost, path, body, result)
}

func (c *Client) put(path string, body any, result any) error {
	return c.doData(http.MethodPut, path, body, result)
}

func (c *Client) delete(path string) error {
	resp, err := c.do(http.MethodDelete, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return c.checkError(resp)
}

func (c *Client) list(path string, params url.Values, result any) error {
	if len(params) > 0 {
		path = path + "?" + params.Encode()
	}

	resp, err := c.do(http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	var lr listResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return json.Unmarshal(lr.Data, result)
}

func (c *Client) doData(method, path string, body any, result any) error {
	resp, err := c.do(method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := c.checkError(resp); err != nil {
		return err
	}

	// 204 No Content
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var dr dataResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if result != nil {
		return json.Unmarshal(dr.Data, result)
	}
	return nil
}

func (c *Client) do(method, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func (c *Client) checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		return fmt.Errorf("API error: HTTP %d", resp.StatusCode)
	}

	er.Error.Status = resp.StatusCode
	return &er.Error
}
