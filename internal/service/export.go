package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/locvowork/tasktracker/internal/taskquery"
	"github.com/locvowork/tasktracker/pkg/simpleexcel"
)

// DefaultExportTemplate lays out one task list: its title, a progress block
// and the tasks sorted by due date.
const DefaultExportTemplate = `
sheets:
  - name: Tasks
    sections:
      - id: list
        type: title
        col_span: 6
        title_style:
          font:
            bold: true
            color: "1F4E79"
      - id: stats
        title: Progress
        show_header: true
        columns:
          - field_name: Metric
            header: Metric
            width: 36
          - field_name: Value
            header: Value
            width: 48
      - id: tasks
        title: Tasks
        show_header: true
        has_filter: true
        header_style:
          font:
            bold: true
          fill:
            color: "D9E1F2"
        columns:
          - field_name: Title
            header: Title
          - field_name: Description
            header: Description
          - field_name: DueDate
            header: Due
            width: 18
            formatter: date
          - field_name: Status
            header: Status
            width: 10
          - field_name: Priority
            header: Priority
            width: 10
          - field_name: Overdue
            header: Overdue
            width: 10
            formatter: yesno
`

type statRow struct {
	Metric string
	Value  interface{}
}

type taskRow struct {
	Title       string
	Description string
	DueDate     time.Time
	Status      string
	Priority    string
	Overdue     bool
}

func (s *taskListService) ExportTaskList(ctx context.Context, listID string) ([]byte, error) {
	exporter, err := s.exporter(ctx, listID)
	if err != nil {
		return nil, err
	}
	b, err := exporter.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("export task list %s: %w", listID, err)
	}
	return b, nil
}

// ExportTaskListCSV renders the same sections as ExportTaskList as CSV.
func (s *taskListService) ExportTaskListCSV(ctx context.Context, listID string) ([]byte, error) {
	exporter, err := s.exporter(ctx, listID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := exporter.ToCSV(&buf); err != nil {
		return nil, fmt.Errorf("export task list %s as csv: %w", listID, err)
	}
	return buf.Bytes(), nil
}

func (s *taskListService) exporter(ctx context.Context, listID string) (*simpleexcel.DataExporter, error) {
	l, err := s.repo.GetTaskList(ctx, listID)
	if err != nil {
		return nil, err
	}
	exporter, err := simpleexcel.NewDataExporterFromYAML(s.exportTemplate)
	if err != nil {
		return nil, fmt.Errorf("load export template: %w", err)
	}
	if sec := exporter.Section("list"); sec != nil {
		sec.Title = l.Title
	}

	now := s.now()
	stats := l.Stats()
	tasks := taskquery.Apply(l.Tasks, taskquery.DefaultParams())
	rows := make([]taskRow, len(tasks))
	for i, t := range tasks {
		rows[i] = taskRow{
			Title:       t.Title,
			Description: t.Description,
			DueDate:     t.DueDate,
			Status:      string(t.Status),
			Priority:    string(t.Priority),
			Overdue:     t.IsOverdue(now),
		}
	}

	exporter.
		RegisterFormatter("date", formatDate).
		RegisterFormatter("yesno", formatYesNo).
		BindSectionData("stats", []statRow{
			{Metric: "Description", Value: l.Description},
			{Metric: "Total", Value: stats.Total},
			{Metric: "Completed", Value: stats.Completed},
			{Metric: "Progress (%)", Value: stats.Progress},
		}).
		BindSectionData("tasks", rows)
	return exporter, nil
}

func formatDate(v interface{}) interface{} {
	t, ok := v.(time.Time)
	if !ok {
		return v
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func formatYesNo(v interface{}) interface{} {
	if b, ok := v.(bool); ok && b {
		return "yes"
	}
	return ""
}
