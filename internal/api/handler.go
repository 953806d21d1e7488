package api

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/repo"
	"github.com/shaiso/kalk/internal/worker"
)

// ProgramStore — хранилище программ. Реализация: repo.ProgramRepo.
type ProgramStore interface {
	Create(ctx context.Context, p *domain.Program) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Program, error)
	List(ctx context.Context) ([]domain.Program, error)
	Update(ctx context.Context, p *domain.Program) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// RunStore — хранилище runs. Реализация: repo.RunRepo.
type RunStore interface {
	Create(ctx context.Context, run *domain.Run) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	GetByIdempotencyKey(ctx context.Context, programID uuid.UUID, key string) (*domain.Run, error)
	List(ctx context.Context, filter repo.RunFilter) ([]domain.Run, error)
	Cancel(ctx context.Context, id uuid.UUID) (*domain.Run, error)
}

// ScheduleStore — хранилище schedules. Реализация: repo.ScheduleRepo.
type ScheduleStore interface {
	Create(ctx context.Context, s *domain.Schedule) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Schedule, error)
	List(ctx context.Context, filter repo.ScheduleFilter) ([]domain.Schedule, error)
	Update(ctx context.Context, s *domain.Schedule) error
	Delete(ctx context.Context, id uuid.UUID) error
	SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error
}

// RunPublisher уведомляет воркер о новом run. Реализация: mq.Publisher.
type RunPublisher interface {
	PublishRunPending(ctx context.Context, runID, programID uuid.UUID) error
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	programs  ProgramStore
	runs      RunStore
	schedules ScheduleStore
	publisher RunPublisher
	executor  *worker.Executor
	logger    *slog.Logger
	now       func() time.Time
}

// Config — конфигурация для создания Handler.
type Config struct {
	ProgramRepo  ProgramStore
	RunRepo      RunStore
	ScheduleRepo ScheduleStore
	Publisher    RunPublisher // опционально; без него воркер найдёт run через polling
	EvalTimeout  time.Duration
	Logger       *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		programs:  cfg.ProgramRepo,
		runs:      cfg.RunRepo,
		schedules: cfg.ScheduleRepo,
		publisher: cfg.Publisher,
		executor:  &worker.Executor{Timeout: cfg.EvalTimeout},
		logger:    logger,
		now:       time.Now,
	}
}
