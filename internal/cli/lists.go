package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/locvowork/tasktracker/internal/domain"
)

func newListsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "lists",
		Short: "List all task lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lists, err := opts.client().ListTaskLists(cmd.Context())
			if err != nil {
				return err
			}
			return printLists(cmd.OutOrStdout(), lists)
		},
	}
}

func newListCmd(opts *options) *cobra.Command {
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Show and change a task list",
	}

	showCmd := &cobra.Command{
		Use:   "show [list-id]",
		Short: "Show a task list and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := opts.client().GetTaskList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printList(cmd.OutOrStdout(), *l)
		},
	}

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task list",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			description, _ := cmd.Flags().GetString("description")
			in := domain.TaskListInput{Title: title, Description: description}
			if err := in.Validate(); err != nil {
				return err
			}
			l, err := opts.client().CreateTaskList(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task list %s\n", l.ID)
			return nil
		},
	}
	createCmd.Flags().String("title", "", "Title of the list")
	createCmd.Flags().String("description", "", "Description of the list")

	updateCmd := &cobra.Command{
		Use:   "update [list-id]",
		Short: "Change the title or description of a task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch domain.TaskListPatch
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				description, _ := cmd.Flags().GetString("description")
				patch.Description = &description
			}
			if patch.Title == nil && patch.Description == nil {
				return errors.New("nothing to update: pass --title or --description")
			}
			if err := patch.Validate(); err != nil {
				return err
			}
			l, err := opts.client().UpdateTaskList(cmd.Context(), args[0], patch)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task list %s\n", l.ID)
			return nil
		},
	}
	updateCmd.Flags().String("title", "", "New title")
	updateCmd.Flags().String("description", "", "New description")

	deleteCmd := &cobra.Command{
		Use:   "delete [list-id]",
		Short: "Delete a task list and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DeleteTaskList(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task list %s\n", args[0])
			return nil
		},
	}

	listCmd.AddCommand(showCmd, createCmd, updateCmd, deleteCmd)
	return listCmd
}

func newStatsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [list-id]",
		Short: "Show completion statistics of a task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.client().GetTaskListStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printStats(cmd.OutOrStdout(), s)
		},
	}
}

func newSummaryCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Show totals across all task lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := opts.client().Summary(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Lists: %d\nTasks: %d\nCompleted: %d\nOverdue: %d\nProgress: %d%%\n",
				s.Lists, s.Total, s.Completed, s.Overdue, s.Progress)
			return err
		},
	}
}
