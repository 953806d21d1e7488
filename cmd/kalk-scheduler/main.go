// kalk-scheduler создаёт runs по расписаниям.
//
// Несколько экземпляров можно запускать одновременно: тикает только
// держатель advisory lock в PostgreSQL.
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
	"github.com/shaiso/kalk/internal/scheduler"
	"github.com/shaiso/kalk/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting kalk-scheduler")

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

	schedCfg := scheduler.Config{
		ScheduleRepo: repo.NewScheduleRepo(pool),
		RunRepo:      repo.NewRunRepo(pool),
		ProgramRepo:  repo.NewProgramRepo(pool),
		BatchSize:    cfg.SchedulerBatch,
		Logger:       logger,
	}

	mqConn, err := mq.NewConnection(mq.Config{
		URL:       mq.URLFromEnv(),
		OnConnect: mq.DeclareTopology,
		Logger:    logger,
	})
	if err != nil {
		logger.Warn("RabbitMQ not available, workers will poll for runs", "error", err)
	} else {
		defer mqConn.Close()
		schedCfg.Publisher = mq.NewPublisher(mqConn, logger)
		logger.Info("RabbitMQ connected")
	}

	s := scheduler.New(schedCfg)
	leader := scheduler.NewPGLeader(pool, scheduler.LockKey)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Run(ctx, cfg.SchedulerTick, leader)
	}()

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              config.Addr(cfg.SchedulerPort),
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

	// Ждём, пока текущий тик закончится и lock будет отпущен
	<-done
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	server.Shutdown(shutdownCtx)

	logger.Info("kalk-scheduler stopped")
}
