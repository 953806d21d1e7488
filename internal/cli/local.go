package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/kalk/internal/engine"
)

// openTerminal открывает интерактивный ввод для CITESTE.
// Подменяется в тестах.
var openTerminal = func() (LineReader, func() error) {
	term := NewTerminal()
	return term, term.Close
}

// lazyPrompt открывает терминал только при первом CITESTE.
type lazyPrompt struct {
	errW    io.Writer
	prompt  *PromptInput
	closeFn func() error
}

// Input реализует engine.InputProvider.
func (l *lazyPrompt) Input(ctx context.Context, name string) (int64, error) {
	if l.prompt == nil {
		var reader LineReader
		reader, l.closeFn = openTerminal()
		l.prompt = NewPromptInput(reader, l.errW)
	}
	return l.prompt.Input(ctx, name)
}

// Close возвращает терминал в исходный режим.
func (l *lazyPrompt) Close() {
	if l.closeFn != nil {
		l.closeFn()
	}
}

// execResult — результат exec в режиме --json.
type execResult struct {
	Output []string `json:"output"`
	Error  *struct {
		Kind    engine.ErrorKind `json:"kind"`
		Message string           `json:"message"`
	} `json:"error,omitempty"`
}

// NewExecCmd создаёт команду локального выполнения программы.
func NewExecCmd(outputFn func() *Output) *cobra.Command {
	var inputsFile string
	var inputPairs []string
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "exec FILE",
		Short: "Execute a .kalk program locally",
		Long: `Execute a program without the API.

Values for CITESTE come from --inputs (YAML file) and --input KEY=VALUE flags.
Without them every CITESTE prompts on the terminal; Ctrl-C aborts the program.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			prog, err := parseFile(args[0])
			if err != nil {
				return err
			}

			var provider engine.InputProvider
			if inputsFile != "" || len(inputPairs) > 0 {
				inputs, err := collectInputs(inputsFile, inputPairs)
				if err != nil {
					return err
				}
				provider = engine.MapInput(inputs)
			} else {
				prompt := &lazyPrompt{errW: cmd.ErrOrStderr()}
				defer prompt.Close()
				provider = prompt
			}

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			ec := engine.NewContext(engine.WithInput(provider))
			runErr := engine.Run(ctx, prog, ec)

			if out.jsonMode {
				res := execResult{Output: ec.Output()}
				if res.Output == nil {
					res.Output = []string{}
				}
				if runErr != nil {
					res.Error = &struct {
						Kind    engine.ErrorKind `json:"kind"`
						Message string           `json:"message"`
					}{engine.KindOf(runErr), runErr.Error()}
				}
				out.JSON(res)
				return runErr
			}

			// Вывод до ошибки тоже показываем
			out.Lines(ec.Output())
			return runErr
		},
	}

	cmd.Flags().StringVar(&inputsFile, "inputs", "", "YAML file with values for CITESTE")
	cmd.Flags().StringSliceVar(&inputPairs, "input", nil, "Input values as KEY=VALUE (repeatable)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Abort execution after this duration (0 = no limit)")

	return cmd
}

// NewCheckCmd создаёт команду проверки синтаксиса.
func NewCheckCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE...",
		Short: "Check .kalk programs for lexical and syntax errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			var failed int
			for _, path := range args {
				if _, err := parseFile(path); err != nil {
					out.Report(err)
					failed++
					continue
				}
				out.Success(path + ": ok")
			}

			if failed > 0 {
				return &checkFailed{failed: failed, total: len(args)}
			}
			return nil
		},
	}
}

// NewFmtCmd создаёт команду канонического форматирования.
func NewFmtCmd(outputFn func() *Output) *cobra.Command {
	var write bool

	cmd := &cobra.Command{
		Use:   "fmt FILE",
		Short: "Print a program in canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			path := args[0]

			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			prog, err := engine.Parse(string(src))
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			formatted := engine.Format(prog)

			if !write {
				out.Text(formatted)
				return nil
			}
			if formatted == string(src) {
				return nil
			}

			info, err := os.Stat(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(formatted), info.Mode().Perm()); err != nil {
				return err
			}
			out.Success("formatted " + path)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "Write result to the file instead of stdout")

	return cmd
}

// NewEvalCmd создаёт команду выполнения программы на сервере без сохранения.
func NewEvalCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var inputsFile string
	var inputPairs []string

	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Execute a program on the API server without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			inputs, err := collectInputs(inputsFile, inputPairs)
			if err != nil {
				return err
			}

			resp, err := client.Eval(string(src), inputs)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(resp)
			} else {
				out.Lines(resp.Output)
			}
			if resp.Error != nil {
				return &APIError{Code: "PROGRAM_ERROR", Message: resp.Error.Message, Kind: resp.Error.Kind, Position: resp.Error.Position}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&inputsFile, "inputs", "", "YAML file with values for CITESTE")
	cmd.Flags().StringSliceVar(&inputPairs, "input", nil, "Input values as KEY=VALUE (repeatable)")

	return cmd
}

// parseFile читает и разбирает программу. Ошибка разбора содержит имя файла.
func parseFile(path string) (*engine.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	prog, err := engine.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// collectInputs объединяет YAML-файл и флаги --input; флаги важнее.
func collectInputs(inputsFile string, pairs []string) (map[string]int64, error) {
	var fromFile map[string]int64
	if inputsFile != "" {
		var err error
		if fromFile, err = LoadInputsFile(inputsFile); err != nil {
			return nil, err
		}
	}
	fromFlags, err := ParseInputs(pairs)
	if err != nil {
		return nil, err
	}
	return MergeInputs(fromFile, fromFlags), nil
}

// checkFailed — check нашёл ошибки и уже вывел их по одной на файл.
type checkFailed struct {
	failed, total int
}

func (e *checkFailed) Error() string {
	return fmt.Sprintf("%d of %d files have errors", e.failed, e.total)
}

// IsReported сообщает, что команда уже вывела ошибку сама.
func IsReported(err error) bool {
	var cf *checkFailed
	return errors.As(err, &cf)
}

// IsProgramError сообщает, вызвана ли ошибка самой программой, а не CLI.
func IsProgramError(err error) bool {
	if engine.KindOf(err) != "" || IsReported(err) {
		return true
	}
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind != ""
}
