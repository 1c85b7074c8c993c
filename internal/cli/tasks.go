package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/internal/taskquery"
)

func newTasksCmd(opts *options) *cobra.Command {
	tasksCmd := &cobra.Command{
		Use:   "tasks [list-id]",
		Short: "List the tasks of a task list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, _ := cmd.Flags().GetString("status")
			priority, _ := cmd.Flags().GetString("priority")
			sortBy, _ := cmd.Flags().GetString("sort")
			params, err := taskquery.ParseParams(status, priority, sortBy)
			if err != nil {
				return err
			}
			l, err := opts.client().GetTaskList(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTasks(cmd.OutOrStdout(), taskquery.Apply(l.Tasks, params), time.Now())
		},
	}
	tasksCmd.Flags().String("status", "all", "Filter by status: all, open, closed")
	tasksCmd.Flags().String("priority", "all", "Filter by priority: all, low, medium, high")
	tasksCmd.Flags().String("sort", "dueDate", "Sort by dueDate, priority or created")
	return tasksCmd
}

func newTaskCmd(opts *options) *cobra.Command {
	taskCmd := &cobra.Command{
		Use:   "task",
		Short: "Add and change tasks",
	}

	addCmd := &cobra.Command{
		Use:   "add [list-id]",
		Short: "Add a task to a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := taskInputFromFlags(cmd)
			if err != nil {
				return err
			}
			t, err := opts.client().CreateTask(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", t.ID)
			return nil
		},
	}
	taskFlags(addCmd)
	addCmd.Flags().String("status", "", "OPEN or CLOSED (default OPEN)")

	updateCmd := &cobra.Command{
		Use:   "update [list-id] [task-id]",
		Short: "Change fields of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			patch, err := taskPatchFromFlags(cmd)
			if err != nil {
				return err
			}
			return updateTask(cmd, opts, args[0], args[1], patch)
		},
	}
	taskFlags(updateCmd)
	updateCmd.Flags().String("status", "", "OPEN or CLOSED")

	closeCmd := &cobra.Command{
		Use:   "close [list-id] [task-id]",
		Short: "Mark a task as closed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTask(cmd, opts, args[0], args[1], domain.StatusPatch(domain.StatusClosed))
		},
	}

	reopenCmd := &cobra.Command{
		Use:   "reopen [list-id] [task-id]",
		Short: "Mark a task as open again",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return updateTask(cmd, opts, args[0], args[1], domain.StatusPatch(domain.StatusOpen))
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete [list-id] [task-id]",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.client().DeleteTask(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", args[1])
			return nil
		},
	}

	taskCmd.AddCommand(addCmd, updateCmd, closeCmd, reopenCmd, deleteCmd)
	return taskCmd
}

func taskFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "Task title")
	cmd.Flags().String("description", "", "Task description")
	cmd.Flags().String("due", "", `Due date, e.g. 2024-02-01T23:59:59Z or 2024-02-01 ("none" clears it)`)
	cmd.Flags().String("priority", "", "LOW, MEDIUM or HIGH")
}

func taskInputFromFlags(cmd *cobra.Command) (domain.TaskInput, error) {
	var in domain.TaskInput
	in.Title, _ = cmd.Flags().GetString("title")
	in.Description, _ = cmd.Flags().GetString("description")

	due, _ := cmd.Flags().GetString("due")
	var err error
	if in.DueDate, err = parseDue(due); err != nil {
		return in, err
	}
	if s, _ := cmd.Flags().GetString("status"); s != "" {
		if in.Status, err = domain.ParseStatus(s); err != nil {
			return in, err
		}
	}
	if p, _ := cmd.Flags().GetString("priority"); p != "" {
		if in.Priority, err = domain.ParsePriority(p); err != nil {
			return in, err
		}
	}
	return in, in.Validate()
}

func taskPatchFromFlags(cmd *cobra.Command) (domain.TaskPatch, error) {
	var patch domain.TaskPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		title, _ := flags.GetString("title")
		patch.Title = &title
	}
	if flags.Changed("description") {
		description, _ := flags.GetString("description")
		patch.Description = &description
	}
	if flags.Changed("due") {
		raw, _ := flags.GetString("due")
		due, err := parseDue(raw)
		if err != nil {
			return patch, err
		}
		patch.DueDate = &due
	}
	if flags.Changed("status") {
		raw, _ := flags.GetString("status")
		s, err := domain.ParseStatus(raw)
		if err != nil {
			return patch, err
		}
		patch.Status = &s
	}
	if flags.Changed("priority") {
		raw, _ := flags.GetString("priority")
		p, err := domain.ParsePriority(raw)
		if err != nil {
			return patch, err
		}
		patch.Priority = &p
	}
	if patch.IsEmpty() {
		return patch, errors.New("nothing to update: pass at least one of --title, --description, --due, --status, --priority")
	}
	return patch, patch.Validate()
}

func updateTask(cmd *cobra.Command, opts *options, listID, taskID string, patch domain.TaskPatch) error {
	t, err := opts.client().UpdateTask(cmd.Context(), listID, taskID, patch)
	if err != nil {
		return err
	}
	return printTask(cmd.OutOrStdout(), *t)
}
