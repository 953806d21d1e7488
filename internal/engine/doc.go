// Package engine — интерпретатор учебного языка KALK.
//
// Включает:
//   - token.go   — лексемы и ключевые слова
//   - lexer.go   — лексер (NextToken, по одной лексеме за вызов)
//   - ast.go     — узлы дерева: выражения, условия, инструкции
//   - parser.go  — рекурсивный спуск, Parse(src)
//   - eval.go    — вычисление выражений и условий
//   - exec.go    — выполнение инструкций, Run(ctx, program, context)
//   - context.go — переменные, журнал вывода, источник ввода
//   - format.go  — канонический вывод программы
//   - errors.go  — LexError, SyntaxError, RuntimeError
//
// Конвейер: текст → Lexer → Parser → Program → Run(Program, Context) → вывод или ошибка.
//
// Пакет полностью синхронный и не хранит глобального состояния.
// Единственная точка блокировки — вызов InputProvider для CITESTE.
//
// Пример:
//
//	prog, err := engine.Parse("DECLAR x VALOARE 5\nSCRIE x")
//	if err != nil {
//	    return err
//	}
//	ec := engine.NewContext()
//	if err := engine.Run(ctx, prog, ec); err != nil {
//	    return err
//	}
//	fmt.Println(ec.Output()) // [5]
package engine
