package domain

import (
	"math"
	"time"
)

// Stats is the derived completion state of a list. Progress is 0-100.
type Stats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Progress  int `json:"progress"`
}

// ComputeStats counts closed tasks and rounds the completion percentage.
func ComputeStats(tasks []Task) Stats {
	st := Stats{Total: len(tasks)}
	for _, t := range tasks {
		if t.Status == StatusClosed {
			st.Completed++
		}
	}
	st.Progress = Percent(st.Completed, st.Total)
	return st
}

// Percent returns round(part/total*100), or 0 when total is zero.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// Summary aggregates statistics across every list, as shown on a dashboard.
type Summary struct {
	Lists     int `json:"lists"`
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
	Progress  int `json:"progress"`
}

// Summarize folds the stats of all lists into a Summary.
func Summarize(lists []TaskList, now time.Time) Summary {
	var s Summary
	s.Lists = len(lists)
	for _, l := range lists {
		st := l.Stats()
		s.Total += st.Total
		s.Completed += st.Completed
		for _, t := range l.Tasks {
			if t.IsOverdue(now) {
				s.Overdue++
			}
		}
	}
	s.Progress = Percent(s.Completed, s.Total)
	return s
}
