package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shaiso/kalk/internal/domain"
	"github.com/shaiso/kalk/internal/engine"
	"github.com/shaiso/kalk/internal/mq"
	"github.com/shaiso/kalk/internal/repo"
	"github.com/shaiso/kalk/internal/telemetry"
)

// handleRunPending обрабатывает событие из очереди runs.pending.
func (w *Worker) handleRunPending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.RunPendingPayload](&delivery.Message)
	if err != nil {
		return mq.Reject(fmt.Errorf("parse run.pending payload: %w", err))
	}

	w.logger.Debug("received run.pending event", "run_id", payload.RunID)

	err = w.ProcessRun(ctx, payload.RunID)
	// Run уже взят, отменён или удалён — сообщение больше не нужно
	if errors.Is(err, ErrRunNotFound) || errors.Is(err, ErrRunNotPending) {
		w.logger.Debug("run not processed", "run_id", payload.RunID, "reason", err)
		return nil
	}
	return err
}

// ProcessRun забирает run, выполняет программу и сохраняет результат.
//
// Возвращает ErrRunNotPending, если run уже не в PENDING.
// Ошибки самой программы не являются ошибками ProcessRun:
// они сохраняются в run со статусом FAILED. При ошибке инфраструктуры
// или остановке воркера взятый run возвращается в PENDING.
func (w *Worker) ProcessRun(ctx context.Context, runID uuid.UUID) error {
	w.execMu.Lock()
	defer w.execMu.Unlock()

	run, err := w.runs.Claim(ctx, runID)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	case errors.Is(err, repo.ErrInvalidState):
		return fmt.Errorf("%w: %s", ErrRunNotPending, runID)
	case err != nil:
		return fmt.Errorf("claim run: %w", err)
	}

	logger := telemetry.WithProgramID(telemetry.WithRunID(w.logger, run.ID.String()), run.ProgramID.String())
	logger.Info("run started")

	program, err := w.programs.GetByID(ctx, run.ProgramID)
	if err != nil {
		if !errors.Is(err, repo.ErrNotFound) {
			w.release(ctx, run.ID)
			return fmt.Errorf("get program: %w", err)
		}
		run.MarkFailed(nil, "", "program not found")
		return w.save(ctx, run)
	}

	res := w.executor.Execute(ctx, program.Source, run.Inputs)
	// Воркер останавливается: run выполнит кто-то другой
	if ctx.Err() != nil && errors.Is(res.Err, engine.ErrCancelled) {
		w.release(ctx, run.ID)
		return ctx.Err()
	}
	if res.Err != nil {
		run.MarkFailed(res.Output, string(res.Kind), res.Err.Error())
		logger.Warn("run failed", "kind", res.Kind, "error", res.Err, "steps", res.Steps, "duration", res.Elapsed)
	} else {
		run.MarkSucceeded(res.Output)
		logger.Info("run succeeded", "lines", len(res.Output), "steps", res.Steps, "duration", res.Elapsed)
	}
	telemetry.ObserveRun(string(run.Status), string(res.Kind), len(res.Output), res.Elapsed)

	return w.save(ctx, run)
}

// save сохраняет результат даже если ctx воркера уже отменён.
// Если сохранить не удалось, run возвращается в PENDING.
func (w *Worker) save(ctx context.Context, run *domain.Run) error {
	err := w.runs.SaveResult(context.WithoutCancel(ctx), run)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repo.ErrInvalidState) {
		w.release(ctx, run.ID)
	}
	return fmt.Errorf("save run result: %w", err)
}

// release возвращает взятый run в PENDING.
// Если и это не удалось, run завершит reapStale.
func (w *Worker) release(ctx context.Context, id uuid.UUID) {
	if err := w.runs.Release(context.WithoutCancel(ctx), id); err != nil {
		w.logger.Error("failed to return run to PENDING", "run_id", id, "error", err)
		return
	}
	w.logger.Warn("run returned to PENDING", "run_id", id)
}
