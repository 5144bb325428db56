package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewStatusCmd создаёт группу команд для каталога статусов заявок.
func NewStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Manage application status catalog",
	}

	cmd.AddCommand(
		newStatusListCmd(clientFn, outputFn),
		newStatusCreateCmd(clientFn, outputFn),
		newStatusUpdateCmd(clientFn, outputFn),
		newStatusDeactivateCmd(clientFn, outputFn),
	)

	return cmd
}

var statusHeaders = []string{"ID", "CODE", "LABEL", "ORDER", "ACTIVE"}

func statusRow(s StatusResponse) []string {
	return []string{s.ID, s.Code, s.Label, strconv.Itoa(s.SortOrder), strconv.FormatBool(s.IsActive)}
}

func newStatusListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses, err := clientFn().ListStatuses(all)
			if err != nil {
				return err
			}

			rows := make([][]string, len(statuses))
			for i, s := range statuses {
				rows[i] = statusRow(s)
			}
			outputFn().Print(statusHeaders, rows, statuses)
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive statuses (admin only)")
	return cmd
}

func newStatusCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		code, label, description string
		sortOrder                int
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a status",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := StatusInput{Code: &code, Label: &label}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("sort-order") {
				in.SortOrder = &sortOrder
			}

			status, err := clientFn().CreateStatus(in)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Status created: %s", status.Code))
			out.Print(statusHeaders, [][]string{statusRow(*status)}, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Status code (required)")
	cmd.Flags().StringVar(&label, "label", "", "Display label (required)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().IntVar(&sortOrder, "sort-order", 0, "Position in the progression")
	_ = cmd.MarkFlagRequired("code")
	_ = cmd.MarkFlagRequired("label")

	return cmd
}

func newStatusUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		code, label, description string
		sortOrder                int
		active                   bool
	)

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in StatusInput
			if cmd.Flags().Changed("code") {
				in.Code = &code
			}
			if cmd.Flags().Changed("label") {
				in.Label = &label
			}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if cmd.Flags().Changed("sort-order") {
				in.SortOrder = &sortOrder
			}
			if cmd.Flags().Changed("active") {
				in.IsActive = &active
			}
			if in == (StatusInput{}) {
				return fmt.Errorf("nothing to update")
			}

			status, err := clientFn().UpdateStatus(args[0], in)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Status updated: %s", status.Code))
			out.Print(statusHeaders, [][]string{statusRow(*status)}, status)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "New code")
	cmd.Flags().StringVar(&label, "label", "", "New label")
	cmd.Flags().StringVar(&description, "description", "", "New description (empty clears)")
	cmd.Flags().IntVar(&sortOrder, "sort-order", 0, "New position")
	cmd.Flags().BoolVar(&active, "active", true, "Active flag")

	return cmd
}

func newStatusDeactivateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate ID",
		Short: "Deactivate a status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := clientFn().DeactivateStatus(args[0])
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Status deactivated: %s", status.Code))
			return nil
		},
	}
}
