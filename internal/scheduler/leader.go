package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// LockKey — ключ pg advisory lock для выбора лидера.
const LockKey int64 = 0x6b616c6b // "kalk"

// Elector решает, является ли процесс лидером.
type Elector interface {
	// TryAcquire пытается стать лидером или подтверждает лидерство.
	TryAcquire(ctx context.Context) (bool, error)
	// Release отдаёт лидерство.
	Release(ctx context.Context)
}

// PGLeader — выбор лидера через pg_try_advisory_lock.
//
// Advisory lock принадлежит сессии, поэтому лидер держит одно выделенное
// соединение из пула. При разрыве соединения lock снимается сервером
// и лидерство может перейти к другому экземпляру.
type PGLeader struct {
	pool *pgxpool.Pool
	key  int64
	conn *pgxpool.Conn
}

// NewPGLeader создаёт PGLeader.
func NewPGLeader(pool *pgxpool.Pool, key int64) *PGLeader {
	return &PGLeader{pool: pool, key: key}
}

// TryAcquire реализует Elector.
func (l *PGLeader) TryAcquire(ctx context.Context) (bool, error) {
	if l.conn != nil {
		// Проверяем, что сессия с lock жива
		if err := l.conn.Ping(ctx); err == nil {
			return true, nil
		}
		l.conn.Release()
		l.conn = nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire conn: %w", err)
	}

	var ok bool
	if err := conn.QueryRow(ctx, "SELECT pg_try_advisory_lock($1)", l.key).Scan(&ok); err != nil {
		conn.Release()
		return false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !ok {
		conn.Release()
		return false, nil
	}

	l.conn = conn
	return true, nil
}

// Release реализует Elector.
func (l *PGLeader) Release(ctx context.Context) {
	if l.conn == nil {
		return
	}
	_, _ = l.conn.Exec(ctx, "SELECT pg_advisory_unlock($1)", l.key)
	l.conn.Release()
	l.conn = nil
}

// Run вызывает Tick с заданным интервалом, пока процесс остаётся лидером.
// Блокируется до отмены ctx.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration, elector Elector) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer elector.Release(context.WithoutCancel(ctx))

	var leader bool
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		ok, err := elector.TryAcquire(ctx)
		if err != nil {
			s.logger.Warn("leader election failed", "error", err)
			continue
		}
		if ok != leader {
			s.logger.Info("leadership changed", "leader", ok)
			leader = ok
		}
		if !leader {
			continue
		}

		if err := s.Tick(ctx); err != nil {
			s.logger.Error("scheduler tick failed", "error", err)
		}
	}
}
