// Package scheduler запускает программы по расписанию.
//
// Scheduler периодически проверяет schedules с истекшим next_due_at
// и создаёт новые runs для выполнения.
//
// Структура:
//   - scheduler.go — основная логика Scheduler (Tick, processSchedule)
//   - cron.go      — парсинг cron-выражений и вычисление следующего времени
//   - leader.go    — выбор лидера через pg_try_advisory_lock и цикл Run
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    ScheduleRepo: scheduleRepo,
//	    RunRepo:      runRepo,
//	    ProgramRepo:  programRepo,
//	    Publisher:    publisher, // опционально
//	    Logger:       logger,
//	})
//
//	sched.Run(ctx, time.Second, scheduler.NewPGLeader(pool, scheduler.LockKey))
//
// Tick выполняет только лидер, поэтому несколько экземпляров kalk-scheduler
// не создают дубликатов. Дополнительно каждый run получает ключ
// идемпотентности "{schedule_id}_{next_due_unix}".
package scheduler
