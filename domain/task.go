package domain

import "sort"

// DateFormat is the calendar-date layout used everywhere a date crosses a
// boundary: due dates, creation stamps and the calendar grid.
const DateFormat = "2006-01-02"

// Priority is the closed set of task priorities.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// ParsePriority returns the Priority for s, or false when s is not one of the
// enumerated values.
func ParsePriority(s string) (Priority, bool) {
	switch Priority(s) {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s), true
	}
	return "", false
}

// Weight orders priorities for sorting, higher first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Category is the closed set of task categories.
type Category string

const (
	CategoryWork     Category = "work"
	CategoryPersonal Category = "personal"
	CategoryHealth   Category = "health"
	CategoryLearning Category = "learning"
)

// ParseCategory returns the Category for s, or false when s is not one of the
// enumerated values.
func ParseCategory(s string) (Category, bool) {
	switch Category(s) {
	case CategoryWork, CategoryPersonal, CategoryHealth, CategoryLearning:
		return Category(s), true
	}
	return "", false
}

// Task represents a single dashboard item.
type Task struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority"`
	Category    Category `json:"category"`
	DueDate     string   `json:"dueDate,omitempty"`
	Completed   bool     `json:"completed"`
	CreatedAt   string   `json:"createdAt"`
}

// TaskFields carries the caller-supplied attributes for task creation. The
// store applies defaults for the zero-valued optional fields.
type TaskFields struct {
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	Category    Category `json:"category,omitempty"`
	DueDate     string   `json:"dueDate,omitempty"`
}

// TaskPatch is a partial update. Nil fields are left untouched. Completion is
// deliberately absent: completed only ever transitions via CompleteTask.
type TaskPatch struct {
	Title       *string   `json:"title,omitempty"`
	Description *string   `json:"description,omitempty"`
	Priority    *Priority `json:"priority,omitempty"`
	Category    *Category `json:"category,omitempty"`
	DueDate     *string   `json:"dueDate,omitempty"`
}

// SortTasks orders tasks by priority descending, then due date ascending with
// dated tasks before undated ones. Equal entries keep their relative order.
func SortTasks(tasks []Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if a.Priority.Weight() != b.Priority.Weight() {
			return a.Priority.Weight() > b.Priority.Weight()
		}
		if a.DueDate != "" && b.DueDate != "" {
			return a.DueDate < b.DueDate
		}
		return a.DueDate != "" && b.DueDate == ""
	})
}
