package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/repo"
	"github.com/shaiso/kalk/internal/telemetry"
)

// ScheduleStore — операции с schedules. Реализация: repo.ScheduleRepo.
type ScheduleStore interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Schedule, error)
	Update(ctx context.Context, schedule *domain.Schedule) error
}

// RunStore — создание runs. Реализация: repo.RunRepo.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByIdempotencyKey(ctx context.Context, programID uuid.UUID, key string) (*domain.Run, error)
}

// ProgramStore — чтение программ. Реализация: repo.ProgramRepo.
type ProgramStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Program, error)
}

// RunPublisher будит воркер. Реализация: mq.Publisher.
type RunPublisher interface {
	PublishRunPending(ctx context.Context, runID, programID uuid.UUID) error
}

// Scheduler — планировщик, обрабатывающий due schedules.
type Scheduler struct {
	schedules ScheduleStore
	runs      RunStore
	programs  ProgramStore
	publisher RunPublisher
	logger    *slog.Logger
	batchSize int
	now       func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	ScheduleRepo ScheduleStore
	RunRepo      RunStore
	ProgramRepo  ProgramStore
	Publisher    RunPublisher // опционально
	Logger       *slog.Logger
	BatchSize    int // количество schedules за один тик (default: 100)
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		schedules: cfg.ScheduleRepo,
		runs:      cfg.RunRepo,
		programs:  cfg.ProgramRepo,
		publisher: cfg.Publisher,
		logger:    logger,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Tick выполняет один тик планировщика.
//
// 1. Находит due schedules (enabled=true, next_due_at <= now)
// 2. Для каждого schedule создаёт run с Inputs расписания
// 3. Обновляет next_due_at
// 4. Публикует run.pending в RabbitMQ
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	now := s.now()

	schedules, err := s.schedules.ListDue(ctx, now, s.batchSize)
	if err != nil {
		return fmt.Errorf("list due schedules: %w", err)
	}
	if len(schedules) == 0 {
		return nil
	}

	s.logger.Debug("found due schedules", "count", len(schedules))

	var processed, created int
	for i := range schedules {
		sched := &schedules[i]

		runCreated, err := s.processSchedule(ctx, sched, now)
		if err != nil {
			telemetry.WithScheduleID(s.logger, sched.ID.String()).Error("failed to process schedule",
				"schedule_name", sched.Name,
				"error", err,
			)
			continue
		}

		processed++
		if runCreated {
			created++
		}
	}

	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"processed", processed,
		"runs_created", created,
	)
	return nil
}

// processSchedule обрабатывает один schedule.
// Возвращает true, если run был создан (не был дубликатом).
func (s *Scheduler) processSchedule(ctx context.Context, sched *domain.Schedule, now time.Time) (bool, error) {
	logger := telemetry.WithProgramID(telemetry.WithScheduleID(s.logger, sched.ID.String()), sched.ProgramID.String())

	if _, err := s.programs.GetByID(ctx, sched.ProgramID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			logger.Warn("program not found for schedule, skipping")
			return false, nil
		}
		return false, fmt.Errorf("get program: %w", err)
	}

	// Один run на пару (schedule, момент срабатывания)
	idempKey := fmt.Sprintf("%s_%d", sched.ID, sched.NextDueAt.Unix())

	run, runCreated, err := s.ensureRun(ctx, sched, idempKey)
	if err != nil {
		return false, err
	}

	nextDue, err := CalculateNextDue(sched, now)
	if err != nil {
		// Некорректное расписание: выключаем, иначе оно будет срабатывать каждый тик
		logger.Error("failed to calculate next due, disabling schedule", "error", err)
		sched.Enabled = false
		sched.NextDueAt = nil
	} else {
		sched.RecordRun(run.ID, nextDue)
	}

	if err := s.schedules.Update(ctx, sched); err != nil {
		return runCreated, fmt.Errorf("update schedule: %w", err)
	}

	if runCreated {
		telemetry.SchedulesFiredTotal.Inc()
		logger.Info("created run from schedule", "run_id", run.ID, "next_due_at", sched.NextDueAt)

		if s.publisher != nil {
			if err := s.publisher.PublishRunPending(ctx, run.ID, run.ProgramID); err != nil {
				// Run уже в БД, воркер заберёт его через polling
				logger.Warn("failed to publish run.pending", "run_id", run.ID, "error", err)
			}
		}
	}

	return runCreated, nil
}

// ensureRun возвращает run для ключа идемпотентности, создавая его при необходимости.
func (s *Scheduler) ensureRun(ctx context.Context, sched *domain.Schedule, key string) (*domain.Run, bool, error) {
	existing, err := s.runs.GetByIdempotencyKey(ctx, sched.ProgramID, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, repo.ErrNotFound) {
		return nil, false, fmt.Errorf("check idempotency: %w", err)
	}

	run := &domain.Run{
		ID:             uuid.New(),
		ProgramID:      sched.ProgramID,
		Status:         domain.RunStatusPending,
		Inputs:         sched.Inputs,
		IdempotencyKey: key,
	}
	if err := s.runs.Create(ctx, run); err != nil {
		return nil, false, fmt.Errorf("create run: %w", err)
	}
	return run, true, nil
}
