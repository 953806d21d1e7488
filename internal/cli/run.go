package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunCancelCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var programID string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				ProgramID: programID,
				Status:    status,
				Limit:     limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "PROGRAM_ID", "STATUS", "ERROR_KIND", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.ProgramID, r.Status, r.ErrorKind, r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&programID, "program-id", "", "Filter by program ID")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCEEDED, FAILED, CANCELLED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var inputPairs []string
	var inputsFile string
	var idempotencyKey string
	var wait bool
	var waitTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "start PROGRAM_ID",
		Short: "Start a new run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			inputs, err := collectInputs(inputsFile, inputPairs)
			if err != nil {
				return err
			}

			run, err := client.CreateRun(args[0], CreateRunRequest{
				Inputs:         inputs,
				IdempotencyKey: idempotencyKey,
			})
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Run started: %s", run.ID))

			if !wait {
				out.Print(
					[]string{"ID", "PROGRAM_ID", "STATUS", "CREATED"},
					[][]string{{run.ID, run.ProgramID, run.Status, run.CreatedAt}},
					run,
				)
				return nil
			}

			run, err = client.WaitRun(run.ID, 500*time.Millisecond, waitTimeout)
			if err != nil {
				return err
			}
			return printRunResult(out, run)
		},
	}

	cmd.Flags().StringSliceVar(&inputPairs, "input", nil, "Input values as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&inputsFile, "inputs-file", "", "YAML file with input values")
	cmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Reuse the run created with the same key")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the run to finish and print its output")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", time.Minute, "Give up waiting after this duration")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run status and output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(run)
				return nil
			}

			out.Table(
				[]string{"ID", "PROGRAM_ID", "STATUS", "STARTED", "FINISHED"},
				[][]string{{run.ID, run.ProgramID, run.Status, run.StartedAt, run.FinishedAt}},
			)
			if len(run.Output) > 0 {
				out.Text("\n")
				out.Lines(run.Output)
			}
			if run.Error != "" {
				out.ProgramError(run.ErrorKind, run.Error)
			}
			return nil
		},
	}
}

func newRunCancelCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel ID",
		Short: "Cancel a pending run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.CancelRun(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run cancelled: %s", run.ID))
			return nil
		},
	}
}

// printRunResult выводит вывод завершённого run; для FAILED возвращает ошибку программы.
func printRunResult(out *Output, run *RunResponse) error {
	if out.jsonMode {
		out.JSON(run)
	} else {
		out.Lines(run.Output)
	}

	switch run.Status {
	case "FAILED":
		return &APIError{Code: "RUN_FAILED", Message: run.Error, Kind: run.ErrorKind}
	case "CANCELLED":
		return fmt.Errorf("run %s was cancelled", run.ID)
	}
	return nil
}
