package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

// NewApplicationCmd создаёт группу команд для заявок.
func NewApplicationCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "application",
		Aliases: []string{"app"},
		Short:   "Change application status and assignments",
	}

	cmd.AddCommand(
		newApplicationStatusCmd(clientFn, outputFn),
		newApplicationAssignCmd(clientFn, outputFn),
		newApplicationCuratorCmd(clientFn, outputFn),
		newApplicationLogsCmd(clientFn, outputFn),
		newApplicationHistoryCmd(clientFn, outputFn),
	)

	return cmd
}

var applicationHeaders = []string{"ID", "NUMBER", "STATUS", "ASSIGNED_TO", "CURATOR"}

func applicationRow(a *ApplicationResponse) []string {
	return []string{a.ID, strconv.FormatInt(a.ApplicationNumber, 10), a.Status, deref(a.AssignedTo), deref(a.TechnicalCuratorID)}
}

func newApplicationStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "status ID NEW_STATUS",
		Short: "Change application status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, msg, err := clientFn().ChangeApplicationStatus(args[0], args[1], comment)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(msg)
			out.Print(applicationHeaders, [][]string{applicationRow(app)}, app)
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Comment for the history entry")
	return cmd
}

func newApplicationAssignCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "assign ID [USER_ID]",
		Short: "Assign a responsible user (omit USER_ID to unassign)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, msg, err := clientFn().Assign(args[0], optionalArg(args, 1))
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(msg)
			out.Print(applicationHeaders, [][]string{applicationRow(app)}, app)
			return nil
		},
	}
}

func newApplicationCuratorCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "curator ID [USER_ID]",
		Short: "Assign a technical curator (omit USER_ID to unassign)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, msg, err := clientFn().AssignTechnicalCurator(args[0], optionalArg(args, 1))
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(msg)
			out.Print(applicationHeaders, [][]string{applicationRow(app)}, app)
			return nil
		},
	}
}

func newApplicationLogsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "logs ID",
		Short: "Show the audit log of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logs, err := clientFn().ApplicationLogs(args[0])
			if err != nil {
				return err
			}

			headers := []string{"TIME", "ACTION", "USER", "DESCRIPTION"}
			rows := make([][]string, len(logs))
			for i, l := range logs {
				rows[i] = []string{l.CreatedAt, l.ActionType, deref(l.UserName), l.Description}
			}
			outputFn().Print(headers, rows, logs)
			return nil
		},
	}
}

func newApplicationHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show the status history of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := clientFn().ApplicationHistory(args[0])
			if err != nil {
				return err
			}
			printHistory(outputFn(), history)
			return nil
		},
	}
}
