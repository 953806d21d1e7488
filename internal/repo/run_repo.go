package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shaiso/kalk/internal/domain"
)

// RunRepo — репозиторий для работы с runs.
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

const runColumns = `
	id, program_id, status, inputs, output, error, error_kind,
	idempotency_key, started_at, finished_at, created_at`

// Create создаёт новый run.
// При повторе ключа идемпотентности для той же программы возвращает ErrAlreadyExists.
func (r *RunRepo) Create(ctx context.Context, run *domain.Run) error {
	inputsJSON, err := json.Marshal(run.Inputs)
	if err != nil {
		return fmt.Errorf("marshal inputs: %w", err)
	}

	query := `
		INSERT INTO runs (id, program_id, status, inputs, idempotency_key, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING created_at
	`
	err = r.pool.QueryRow(ctx, query,
		run.ID,
		run.ProgramID,
		run.Status,
		inputsJSON,
		nullString(run.IdempotencyKey),
	).Scan(&run.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("run %q: %w", run.IdempotencyKey, ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = $1`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// GetByIdempotencyKey возвращает run по ключу идемпотентности.
func (r *RunRepo) GetByIdempotencyKey(ctx context.Context, programID uuid.UUID, key string) (*domain.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE program_id = $1 AND idempotency_key = $2`
	return scanRun(r.pool.QueryRow(ctx, query, programID, key))
}

// List возвращает список runs с фильтрацией.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.Run, error) {
	query := `SELECT ` + runColumns + `
		FROM runs
		WHERE ($1::uuid IS NULL OR program_id = $1)
		  AND ($2::text IS NULL OR status = $2::run_status)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullUUID(filter.ProgramID),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return collectRuns(rows)
}

// ListPending возвращает самые старые runs в статусе PENDING.
func (r *RunRepo) ListPending(ctx context.Context, limit int) ([]domain.Run, error) {
	query := `SELECT ` + runColumns + `
		FROM runs
		WHERE status = 'PENDING'
		ORDER BY created_at ASC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending runs: %w", err)
	}
	return collectRuns(rows)
}

// Claim атомарно переводит run из PENDING в RUNNING.
//
// Если run уже взят другим воркером или отменён, возвращает ErrInvalidState.
// Это единственный путь в RUNNING, поэтому один run не выполняется дважды.
func (r *RunRepo) Claim(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		UPDATE runs
		SET status = 'RUNNING', started_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + runColumns
	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, ErrNotFound) {
		return nil, r.stateError(ctx, id, "claim")
	}
	return run, err
}

// Cancel переводит run из PENDING в CANCELLED.
// Runs, уже взятые воркером, отменить нельзя (ErrInvalidState).
func (r *RunRepo) Cancel(ctx context.Context, id uuid.UUID) (*domain.Run, error) {
	query := `
		UPDATE runs
		SET status = 'CANCELLED', finished_at = NOW()
		WHERE id = $1 AND status = 'PENDING'
		RETURNING ` + runColumns
	run, err := scanRun(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, ErrNotFound) {
		return nil, r.stateError(ctx, id, "cancel")
	}
	return run, err
}

// SaveResult сохраняет финальный статус, вывод и ошибку run.
// Обновляются только runs в статусе RUNNING.
func (r *RunRepo) SaveResult(ctx context.Context, run *domain.Run) error {
	outputJSON, err := json.Marshal(run.Output)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}

	query := `
		UPDATE runs
		SET status = $2, output = $3, error = $4, error_kind = $5, finished_at = $6
		WHERE id = $1 AND status = 'RUNNING'
	`
	result, err := r.pool.Exec(ctx, query,
		run.ID,
		run.Status,
		outputJSON,
		nullString(run.Error),
		nullString(run.ErrorKind),
		run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("save run result: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.stateError(ctx, run.ID, "save result")
	}
	return nil
}

// Release возвращает run из RUNNING в PENDING, чтобы его выполнил следующий poll.
// Используется, когда воркер взял run, но не смог довести его до результата.
func (r *RunRepo) Release(ctx context.Context, id uuid.UUID) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET status = 'PENDING', started_at = NULL
		WHERE id = $1 AND status = 'RUNNING'
	`, id)
	if err != nil {
		return fmt.Errorf("release run: %w", err)
	}
	if result.RowsAffected() == 0 {
		return r.stateError(ctx, id, "release")
	}
	return nil
}

// FailStale переводит в FAILED runs, которые находятся в RUNNING дольше olderThan.
// Время отсчитывается по часам БД. Возвращает число затронутых runs.
func (r *RunRepo) FailStale(ctx context.Context, olderThan time.Duration, reason string) (int64, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE runs
		SET status = 'FAILED', error = $2, finished_at = NOW()
		WHERE status = 'RUNNING'
		  AND started_at < NOW() - make_interval(secs => $1)
	`, olderThan.Seconds(), reason)
	if err != nil {
		return 0, fmt.Errorf("fail stale runs: %w", err)
	}
	return result.RowsAffected(), nil
}

// stateError различает отсутствующий run и run в неподходящем статусе.
func (r *RunRepo) stateError(ctx context.Context, id uuid.UUID, op string) error {
	var status domain.RunStatus
	err := r.pool.QueryRow(ctx, `SELECT status FROM runs WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("%s run: %w", op, err)
	}
	return fmt.Errorf("%s run in status %s: %w", op, status, ErrInvalidState)
}

// --- Helpers ---

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	ProgramID *uuid.UUID
	Status    domain.RunStatus
	Limit     int
	Offset    int
}

func collectRuns(rows pgx.Rows) ([]domain.Run, error) {
	defer rows.Close()

	var runs []domain.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanRun сканирует одну строку в Run.
func scanRun(row pgx.Row) (*domain.Run, error) {
	var run domain.Run
	var inputsJSON, outputJSON []byte
	var runError, errorKind, idempotencyKey *string

	err := row.Scan(
		&run.ID,
		&run.ProgramID,
		&run.Status,
		&inputsJSON,
		&outputJSON,
		&runError,
		&errorKind,
		&idempotencyKey,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if inputsJSON != nil {
		if err := json.Unmarshal(inputsJSON, &run.Inputs); err != nil {
			return nil, fmt.Errorf("unmarshal inputs: %w", err)
		}
	}
	if outputJSON != nil {
		if err := json.Unmarshal(outputJSON, &run.Output); err != nil {
			return nil, fmt.Errorf("unmarshal output: %w", err)
		}
	}

	run.Error = derefString(runError)
	run.ErrorKind = derefString(errorKind)
	run.IdempotencyKey = derefString(idempotencyKey)

	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nullUUID возвращает nil для пустого UUID.
func nullUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil || *id == uuid.Nil {
		return nil
	}
	return id
}
