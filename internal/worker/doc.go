// Package worker выполняет runs: программы KALK, запущенные через API или scheduler.
//
// # Обработка run
//
//  1. Получение run (из очереди runs.pending или polling БД)
//  2. Claim: атомарный перевод PENDING → RUNNING; если run уже взят
//     или отменён, обработка пропускается
//  3. Загрузка программы, разбор и выполнение с Inputs run в роли CITESTE
//  4. SUCCEEDED с выводом или FAILED с частичным выводом, текстом и классом ошибки
//
// Выполнение ограничено RunTimeout: бесконечный цикл прерывается и run
// завершается runtime ошибкой "execution cancelled".
//
// # Пример
//
//	w := worker.New(worker.Config{
//	    RunRepo:     runRepo,
//	    ProgramRepo: programRepo,
//	    Conn:        mqConn,
//	    RunTimeout:  10 * time.Second,
//	    Logger:      logger,
//	})
//	if err := w.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Stop()
//
// # Ошибки
//
// Ошибки программы (lexical, syntax, runtime) — штатный исход run.
// Ошибки инфраструктуры (БД недоступна) возвращаются из ProcessRun;
// сообщение из очереди при этом возвращается в очередь.
package worker
