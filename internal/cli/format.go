package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/locvowork/tasktracker/internal/domain"
	"github.com/locvowork/tasktracker/pkg/taskapi"
)

const timeLayout = "2006-01-02 15:04"

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(timeLayout)
}

func printLists(w io.Writer, lists []domain.TaskList) error {
	if len(lists) == 0 {
		_, err := fmt.Fprintln(w, "No task lists.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tTITLE\tTASKS\tDONE\tPROGRESS\tUPDATED")
	for _, l := range lists {
		s := l.Stats()
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d%%\t%s\n", l.ID, l.Title, s.Total, s.Completed, s.Progress, formatTime(l.Updated))
	}
	return tw.Flush()
}

func printList(w io.Writer, l domain.TaskList) error {
	s := l.Stats()
	fmt.Fprintf(w, "%s (%s)\n", l.Title, l.ID)
	if l.Description != "" {
		fmt.Fprintln(w, l.Description)
	}
	fmt.Fprintf(w, "Progress: %d/%d (%d%%)\n\n", s.Completed, s.Total, s.Progress)
	return printTasks(w, l.Tasks, time.Now())
}

func printTasks(w io.Writer, tasks []domain.Task, now time.Time) error {
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range tasks {
		due := formatTime(t.DueDate)
		if t.IsOverdue(now) {
			due += " (overdue)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due, t.Title)
	}
	return tw.Flush()
}

func printTask(w io.Writer, t domain.Task) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%s\n", t.ID)
	fmt.Fprintf(tw, "Title:\t%s\n", t.Title)
	if t.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", t.Description)
	}
	fmt.Fprintf(tw, "Status:\t%s\n", t.Status)
	fmt.Fprintf(tw, "Priority:\t%s\n", t.Priority)
	fmt.Fprintf(tw, "Due:\t%s\n", formatTime(t.DueDate))
	fmt.Fprintf(tw, "Updated:\t%s\n", formatTime(t.Updated))
	return tw.Flush()
}

func printStats(w io.Writer, s domain.Stats) error {
	_, err := fmt.Fprintf(w, "Total: %d\nCompleted: %d\nProgress: %d%%\n", s.Total, s.Completed, s.Progress)
	return err
}

// parseDue reads a --due value. "" and "none" clear the due date.
func parseDue(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return time.Time{}, nil
	}
	t, err := taskapi.ParseTime(s)
	if err != nil {
		return t, fmt.Errorf("%w: --due: %v", domain.ErrValidation, err)
	}
	return t, nil
}
