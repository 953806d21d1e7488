package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewProgramCmd создаёт группу команд для управления программами.
func NewProgramCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "program",
		Short: "Manage stored programs",
	}

	cmd.AddCommand(
		newProgramListCmd(clientFn, outputFn),
		newProgramCreateCmd(clientFn, outputFn),
		newProgramShowCmd(clientFn, outputFn),
		newProgramUpdateCmd(clientFn, outputFn),
		newProgramDeleteCmd(clientFn, outputFn),
	)

	return cmd
}

func newProgramListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all programs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			programs, err := client.ListPrograms()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "UPDATED"}
			rows := make([][]string, len(programs))
			for i, p := range programs {
				rows[i] = []string{p.ID, p.Name, p.UpdatedAt}
			}

			out.Print(headers, rows, programs)
			return nil
		},
	}
}

func newProgramCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create FILE",
		Short: "Store a program from a .kalk file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			program, err := client.CreateProgram(name, string(src))
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Program created: %s", program.ID))
			out.Print(
				[]string{"ID", "NAME", "CREATED"},
				[][]string{{program.ID, program.Name, program.CreatedAt}},
				program,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Program name (required)")
	cmd.MarkFlagRequired("name")

	return cmd
}

func newProgramShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show program source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			program, err := client.GetProgram(args[0])
			if err != nil {
				return err
			}

			if out.jsonMode {
				out.JSON(program)
				return nil
			}
			out.Text(program.Source)
			return nil
		},
	}
}

func newProgramUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name string
	var file string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Rename a program or replace its source",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := UpdateProgramRequest{}
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if file != "" {
				src, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				source := string(src)
				req.Source = &source
			}

			program, err := client.UpdateProgram(args[0], req)
			if err != nil {
				return err
			}

			out.Success("Program updated")
			out.Print(
				[]string{"ID", "NAME", "UPDATED"},
				[][]string{{program.ID, program.Name, program.UpdatedAt}},
				program,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New program name")
	cmd.Flags().StringVar(&file, "file", "", "Replace source with the contents of this .kalk file")

	return cmd
}

func newProgramDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a program with its runs and schedules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteProgram(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Program deleted: %s", args[0]))
			return nil
		},
	}
}
