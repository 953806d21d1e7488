// kalk-worker выполняет runs.
//
// Worker:
//   - Получает run.pending из RabbitMQ
//   - Раз в WORKER_POLL_SEC подбирает PENDING runs из БД
//   - Выполняет программу с ограничением RUN_TIMEOUT_SEC
//   - Сохраняет вывод, статус и класс ошибки
//
// Workers масштабируются горизонтально.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/kalk/internal/config"
	"github.com/shaiso/kalk/internal/mq"
	"github.com/shaiso/kalk/internal/repo"
	"github.com/shaiso/kalk/internal/telemetry"
	"github.com/shaiso/kalk/internal/worker"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting kalk-worker")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	mqConn, err := mq.NewConnection(mq.Config{
		URL:       mq.URLFromEnv(),
		OnConnect: mq.DeclareTopology,
		Logger:    logger,
	})
	if err != nil {
		logger.Warn("RabbitMQ not available, running in polling-only mode", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")
	}

	w := worker.New(worker.Config{
		RunRepo:      repo.NewRunRepo(pool),
		ProgramRepo:  repo.NewProgramRepo(pool),
		Conn:         mqConn,
		RunTimeout:   cfg.RunTimeout,
		PollInterval: cfg.WorkerPollInterval,
		BatchSize:    cfg.WorkerBatch,
		Logger:       logger,
	})

	if err := w.Start(ctx); err != nil {
		logger.Error("failed to start worker", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              config.Addr(cfg.WorkerPort),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()

	w.Stop()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("kalk-worker stopped")
}
