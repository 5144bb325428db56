package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// NewWorkOrderCmd создаёт группу команд для нарядов.
func NewWorkOrderCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "work-order",
		Aliases: []string{"wo"},
		Short:   "Change work order status",
	}

	cmd.AddCommand(
		newWorkOrderStatusCmd(clientFn, outputFn),
		newWorkOrderCompleteCmd(clientFn, outputFn),
		newWorkOrderHistoryCmd(clientFn, outputFn),
	)

	return cmd
}

var workOrderHeaders = []string{"ID", "NUMBER", "TYPE", "STATUS", "STARTED", "FINISHED"}

func workOrderRow(w *WorkOrderResponse) []string {
	return []string{w.ID, strconv.FormatInt(w.WorkOrderNumber, 10), w.Type, w.Status, deref(w.ActualStartAt), deref(w.ActualEndAt)}
}

func newWorkOrderStatusCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var comment string

	cmd := &cobra.Command{
		Use:   "status ID STATUS",
		Short: "Change work order status (draft, assigned, in_progress, completed, cancelled)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			wo, err := clientFn().ChangeWorkOrderStatus(args[0], args[1], comment)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Status changed to %s", wo.Status))
			out.Print(workOrderHeaders, [][]string{workOrderRow(wo)}, wo)
			return nil
		},
	}

	cmd.Flags().StringVar(&comment, "comment", "", "Comment for the history entry")
	return cmd
}

func newWorkOrderCompleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var (
		notes string
		endAt string
	)

	cmd := &cobra.Command{
		Use:   "complete ID",
		Short: "Mark a work order as completed (requires login)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in CompleteInput
			if cmd.Flags().Changed("notes") {
				in.ResultNotes = &notes
			}
			if endAt != "" {
				t, err := time.Parse(time.RFC3339, endAt)
				if err != nil {
					return fmt.Errorf("invalid --end %q, expected RFC3339: %w", endAt, err)
				}
				in.ActualEndAt = &t
			}

			wo, err := clientFn().CompleteWorkOrder(args[0], in)
			if err != nil {
				return err
			}

			out := outputFn()
			out.Success(fmt.Sprintf("Work order %d completed", wo.WorkOrderNumber))
			out.Print(workOrderHeaders, [][]string{workOrderRow(wo)}, wo)
			return nil
		},
	}

	cmd.Flags().StringVar(&notes, "notes", "", "Result notes")
	cmd.Flags().StringVar(&endAt, "end", "", "Actual end time (RFC3339)")
	return cmd
}

func newWorkOrderHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show the status history of a work order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			history, err := clientFn().WorkOrderHistory(args[0])
			if err != nil {
				return err
			}
			printHistory(outputFn(), history)
			return nil
		},
	}
}

func printHistory(out *Output, history []HistoryResponse) {
	headers := []string{"TIME", "FROM", "TO", "BY", "COMMENT"}
	rows := make([][]string, len(history))
	for i, h := range history {
		var by string
		if h.User != nil {
			by = h.User.FullName
		}
		rows[i] = []string{h.ChangedAt, deref(h.OldStatusLabel), h.NewStatusLabel, by, deref(h.Comment)}
	}
	out.Print(headers, rows, history)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}
