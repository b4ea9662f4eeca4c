// Package stats derives aggregate views from the task collection. Everything
// here is recomputed from the full collection on demand; there are no
// maintained counters to drift out of sync.
package stats

import "taskdash-api/domain"

// PriorityCounts breaks a task count down by priority.
type PriorityCounts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// CategoryCounts breaks a task count down by category.
type CategoryCounts struct {
	Work     int `json:"work"`
	Personal int `json:"personal"`
	Health   int `json:"health"`
	Learning int `json:"learning"`
}

// Stats is the aggregate served over HTTP. InProgress counts tasks that are
// pending and due today.
type Stats struct {
	Pending    int            `json:"pending"`
	InProgress int            `json:"inProgress"`
	Completed  int            `json:"completed"`
	Total      int            `json:"total"`
	ByCategory CategoryCounts `json:"byCategory"`
	ByPriority PriorityCounts `json:"byPriority"`
}

// Summary is the smaller breakdown behind the terminal's show-stats command.
type Summary struct {
	Total      int            `json:"total"`
	Completed  int            `json:"completed"`
	Pending    int            `json:"pending"`
	ByPriority PriorityCounts `json:"byPriority"`
}

// Compute walks the full collection once and counts by status, category and
// priority. The today argument is the reference date for InProgress.
func Compute(tasks []domain.Task, today string) Stats {
	var s Stats
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
			if t.DueDate == today {
				s.InProgress++
			}
		}
		switch t.Category {
		case domain.CategoryWork:
			s.ByCategory.Work++
		case domain.CategoryPersonal:
			s.ByCategory.Personal++
		case domain.CategoryHealth:
			s.ByCategory.Health++
		case domain.CategoryLearning:
			s.ByCategory.Learning++
		}
		switch t.Priority {
		case domain.PriorityHigh:
			s.ByPriority.High++
		case domain.PriorityMedium:
			s.ByPriority.Medium++
		case domain.PriorityLow:
			s.ByPriority.Low++
		}
	}
	return s
}

// Summarize counts tasks by status and priority for the terminal.
func Summarize(tasks []domain.Task) Summary {
	var s Summary
	s.Total = len(tasks)
	for _, t := range tasks {
		if t.Completed {
			s.Completed++
		} else {
			s.Pending++
		}
		switch t.Priority {
		case domain.PriorityHigh:
			s.ByPriority.High++
		case domain.PriorityMedium:
			s.ByPriority.Medium++
		case domain.PriorityLow:
			s.ByPriority.Low++
		}
	}
	return s
}
