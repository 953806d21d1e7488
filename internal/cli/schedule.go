package cli

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewScheduleCmd создаёт группу команд для управления schedules.
func NewScheduleCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run programs periodically",
	}

	cmd.AddCommand(
		newScheduleListCmd(clientFn, outputFn),
		newScheduleCreateCmd(clientFn, outputFn),
		newScheduleShowCmd(clientFn, outputFn),
		newScheduleUpdateCmd(clientFn, outputFn),
		newScheduleDeleteCmd(clientFn, outputFn),
		newScheduleToggleCmd(clientFn, outputFn, true),
		newScheduleToggleCmd(clientFn, outputFn, false),
	)

	return cmd
}

func newScheduleListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListSchedulesOpts
	var onlyEnabled, onlyDisabled bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List schedules",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case onlyEnabled && onlyDisabled:
				return fmt.Errorf("--enabled and --disabled are mutually exclusive")
			case onlyEnabled, onlyDisabled:
				opts.Enabled = &onlyEnabled
			}

			schedules, err := clientFn().ListSchedules(opts)
			if err != nil {
				return err
			}

			rows := make([][]string, len(schedules))
			for i := range schedules {
				s := &schedules[i]
				rows[i] = []string{
					s.ID, s.ProgramID, s.Name, formatWhen(s),
					strconv.FormatBool(s.Enabled), formatTime(s.NextDueAt), formatTime(s.LastRunAt),
				}
			}

			outputFn().Print(
				[]string{"ID", "PROGRAM_ID", "NAME", "WHEN", "ENABLED", "NEXT_DUE", "LAST_RUN"},
				rows, schedules,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.ProgramID, "program-id", "", "Filter by program ID")
	cmd.Flags().BoolVar(&onlyEnabled, "enabled", false, "Only enabled schedules")
	cmd.Flags().BoolVar(&onlyDisabled, "disabled", false, "Only disabled schedules")

	return cmd
}

func newScheduleCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var req CreateScheduleRequest
	var inputs []string
	var inputsFile string
	var disabled bool

	cmd := &cobra.Command{
		Use:   "create PROGRAM_ID",
		Short: "Create a schedule for a program",
		Long: `Create a schedule that starts a run of the program.

Exactly one of --cron or --interval is required. Values for CITESTE
come from --inputs-file and --input; every run gets the same values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			values, err := collectInputs(inputsFile, inputs)
			if err != nil {
				return err
			}
			req.Inputs = values
			if disabled {
				enabled := false
				req.Enabled = &enabled
			}

			schedule, err := clientFn().CreateSchedule(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Schedule created: %s", schedule.ID))
			printSchedule(out, schedule)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "Schedule name (required)")
	cmd.Flags().StringVar(&req.CronExpr, "cron", "", "Cron expression (e.g. '0 9 * * *')")
	cmd.Flags().IntVar(&req.IntervalSec, "interval", 0, "Interval in seconds")
	cmd.Flags().StringVar(&req.Timezone, "timezone", "", "Timezone for cron (default UTC)")
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "Input values as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&inputsFile, "inputs-file", "", "YAML file with input values")
	cmd.Flags().BoolVar(&disabled, "disabled", false, "Create the schedule disabled")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagsMutuallyExclusive("cron", "interval")

	return cmd
}

func newScheduleShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show schedule details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schedule, err := clientFn().GetSchedule(args[0])
			if err != nil {
				return err
			}
			printSchedule(outputFn(), schedule)
			return nil
		},
	}
}

func newScheduleUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, cronExpr, timezone string
	var intervalSec int
	var inputs []string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a schedule",
		Long: `Update only the given fields of a schedule.

--input replaces the whole set of input values.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			flags := cmd.Flags()

			var req UpdateScheduleRequest
			if flags.Changed("name") {
				req.Name = &name
			}
			if flags.Changed("cron") {
				req.CronExpr = &cronExpr
			}
			if flags.Changed("interval") {
				req.IntervalSec = &intervalSec
			}
			if flags.Changed("timezone") {
				req.Timezone = &timezone
			}
			if flags.Changed("input") {
				values, err := ParseInputs(inputs)
				if err != nil {
					return err
				}
				req.Inputs = &values
			}

			schedule, err := clientFn().UpdateSchedule(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Schedule updated")
			printSchedule(out, schedule)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New schedule name")
	cmd.Flags().StringVar(&cronExpr, "cron", "", "New cron expression")
	cmd.Flags().IntVar(&intervalSec, "interval", 0, "New interval in seconds")
	cmd.Flags().StringVar(&timezone, "timezone", "", "New timezone")
	cmd.Flags().StringSliceVar(&inputs, "input", nil, "Replace input values, KEY=VALUE (repeatable)")

	return cmd
}

func newScheduleDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a schedule (runs it created are kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteSchedule(args[0]); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Schedule deleted: %s", args[0]))
			return nil
		},
	}
}

// newScheduleToggleCmd создаёт enable или disable.
func newScheduleToggleCmd(clientFn func() *Client, outputFn func() *Output, enable bool) *cobra.Command {
	use, short := "disable ID", "Stop creating runs for a schedule"
	if enable {
		use, short = "enable ID", "Resume a schedule from the next due time"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			schedule, err := clientFn().SetScheduleEnabled(args[0], enable)
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(schedule)
				return nil
			}
			if !enable {
				out.Success(fmt.Sprintf("Schedule disabled: %s", schedule.ID))
				return nil
			}
			out.Success(fmt.Sprintf("Schedule enabled: %s, next run at %s", schedule.ID, formatTime(schedule.NextDueAt)))
			return nil
		},
	}
}

// printSchedule выводит один schedule со всеми полями.
func printSchedule(out *Output, s *ScheduleResponse) {
	out.Print(
		[]string{"ID", "PROGRAM_ID", "NAME", "WHEN", "TIMEZONE", "ENABLED", "NEXT_DUE", "LAST_RUN", "INPUTS"},
		[][]string{{
			s.ID, s.ProgramID, s.Name, formatWhen(s), s.Timezone,
			strconv.FormatBool(s.Enabled), formatTime(s.NextDueAt), formatTime(s.LastRunAt),
			formatInputs(s.Inputs),
		}},
		s,
	)
}

// formatWhen описывает расписание: cron-выражение или "every 1m30s".
func formatWhen(s *ScheduleResponse) string {
	if s.CronExpr != "" {
		return s.CronExpr
	}
	if s.IntervalSec > 0 {
		return "every " + (time.Duration(s.IntervalSec) * time.Second).String()
	}
	return ""
}

// formatTime сокращает RFC 3339 время из API до минут; пустое значение — "-".
func formatTime(ts string) string {
	if ts == "" {
		return "-"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04 MST")
}

// formatInputs выводит значения CITESTE в стабильном порядке: "a=1 b=2".
func formatInputs(inputs map[string]int64) string {
	if len(inputs) == 0 {
		return "-"
	}
	names := make([]string, 0, len(inputs))
	for name := range inputs {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, len(names))
	for i, name := range names {
		pairs[i] = name + "=" + strconv.FormatInt(inputs[name], 10)
	}
	return strings.Join(pairs, " ")
}
