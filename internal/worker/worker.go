package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/mq"
	"github.com/shaiso/kalk/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval = 10 * time.Second
	defaultBatchSize    = 50

	// staleGrace — запас сверх RunTimeout, после которого RUNNING run считается брошенным.
	staleGrace = time.Minute
)

// RunStore — операции с runs, нужные воркеру. Реализация: repo.RunRepo.
type RunStore interface {
	ListPending(ctx context.Context, limit int) ([]domain.Run, error)
	Claim(ctx context.Context, id uuid.UUID) (*domain.Run, error)
	SaveResult(ctx context.Context, run *domain.Run) error
	Release(ctx context.Context, id uuid.UUID) error
	FailStale(ctx context.Context, olderThan time.Duration, reason string) (int64, error)
}

// ProgramStore — чтение программ. Реализация: repo.ProgramRepo.
type ProgramStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Program, error)
}

// Worker выполняет runs.
//
// Worker — stateless компонент системы, который:
//   - Получает run.pending из очереди RabbitMQ (event-driven)
//   - Периодически проверяет PENDING runs в БД (polling fallback)
//   - Атомарно забирает run (PENDING → RUNNING)
//   - Выполняет программу с ограничением по времени
//   - Сохраняет вывод, статус и класс ошибки
//
// Внутри одного процесса программы выполняются строго по одной.
// Несколько экземпляров Worker могут работать параллельно: Claim
// гарантирует, что каждый run выполнит только один из них.
type Worker struct {
	runs     RunStore
	programs ProgramStore
	conn     *mq.Connection
	executor *Executor

	pollInterval time.Duration
	batchSize    int
	staleAfter   time.Duration

	// execMu сериализует выполнение программ между consumer и polling
	execMu sync.Mutex

	consumer   *mq.Consumer
	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Worker.
type Config struct {
	RunRepo     RunStore
	ProgramRepo ProgramStore

	// Conn — соединение с RabbitMQ. Если nil, работает только polling.
	Conn *mq.Connection

	// RunTimeout — ограничение времени выполнения одной программы (default: 10s).
	RunTimeout time.Duration

	PollInterval time.Duration // интервал polling (default: 10s)
	BatchSize    int           // количество runs за один poll (default: 50)

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = defaultRunTimeout
	}

	return &Worker{
		runs:         cfg.RunRepo,
		programs:     cfg.ProgramRepo,
		conn:         cfg.Conn,
		executor:     &Executor{Timeout: runTimeout},
		pollInterval: pollInterval,
		batchSize:    batchSize,
		staleAfter:   runTimeout + staleGrace,
		logger:       logger,
	}
}

// Start запускает consumer runs.pending (если есть соединение) и polling.
func (w *Worker) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	w.cancelFunc = cancel

	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"run_timeout", w.executor.Timeout,
	)

	if w.conn != nil {
		w.consumer = mq.NewConsumer(w.conn, w.logger, mq.ConsumerConfig{
			Queue:    mq.QueueRunsPending,
			Handler:  w.handleRunPending,
			Prefetch: 1,
		})

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				w.logger.Error("run consumer error", "error", err)
			}
		}()
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.pollLoop(ctx)
	}()

	w.logger.Info("worker started")
	return nil
}

// Stop останавливает Worker и ждёт завершения текущего run.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker...")

	if w.cancelFunc != nil {
		w.cancelFunc()
	}
	if w.consumer != nil {
		w.consumer.Stop()
	}
	w.wg.Wait()

	w.logger.Info("worker stopped")
}

func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	// Первый poll сразу: подхватываем runs, созданные пока воркер был выключен
	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll выполняет один цикл polling.
func (w *Worker) poll(ctx context.Context) {
	w.reapStale(ctx)

	runs, err := w.runs.ListPending(ctx, w.batchSize)
	if err != nil {
		w.logger.Error("failed to list pending runs", "error", err)
		return
	}
	if len(runs) == 0 {
		return
	}

	w.logger.Debug("poll found pending runs", "count", len(runs))

	for i := range runs {
		if ctx.Err() != nil {
			return
		}
		err := w.ProcessRun(ctx, runs[i].ID)
		if err != nil && !errors.Is(err, ErrRunNotPending) && !errors.Is(err, ErrRunNotFound) {
			w.logger.Error("failed to process run from poll", "run_id", runs[i].ID, "error", err)
		}
	}
}

// reapStale завершает runs, зависшие в RUNNING дольше RunTimeout + staleGrace.
// Так заканчиваются runs воркера, который упал между Claim и сохранением результата.
func (w *Worker) reapStale(ctx context.Context) {
	n, err := w.runs.FailStale(ctx, w.staleAfter, ErrRunAbandoned.Error())
	if err != nil {
		w.logger.Error("failed to reap stale runs", "error", err)
		return
	}
	if n > 0 {
		w.logger.Warn("stale runs marked FAILED", "count", n, "older_than", w.staleAfter)
		telemetry.RunsTotal.WithLabelValues(string(domain.RunStatusFailed)).Add(float64(n))
	}
}
