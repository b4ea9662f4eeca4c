package stats

import (
	"time"

	"taskdash-api/domain"
)

// calendarCells is 6 weeks of 7 days: a month plus the leading and trailing
// adjacent-month days that complete each week row.
const calendarCells = 42

// DayCell is one day in the calendar grid. Pending counts non-completed tasks
// due that date, split by priority; the UI renders them as presence
// indicators, one per priority, never summed.
type DayCell struct {
	Day     int            `json:"day"`
	Date    string         `json:"date"`
	InMonth bool           `json:"inCurrentMonth"`
	Today   bool           `json:"isToday"`
	Pending PriorityCounts `json:"pending"`
}

// Month produces the Sunday-first 42-cell grid for the given year and month.
// The today argument marks the current date cell.
func Month(year int, month time.Month, tasks []domain.Task, today string) []DayCell {
	pendingByDate := make(map[string]PriorityCounts)
	for _, t := range tasks {
		if t.Completed || t.DueDate == "" {
			continue
		}
		counts := pendingByDate[t.DueDate]
		switch t.Priority {
		case domain.PriorityHigh:
			counts.High++
		case domain.PriorityMedium:
			counts.Medium++
		case domain.PriorityLow:
			counts.Low++
		}
		pendingByDate[t.DueDate] = counts
	}

	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	start := first.AddDate(0, 0, -int(first.Weekday()))

	cells := make([]DayCell, 0, calendarCells)
	for i := 0; i < calendarCells; i++ {
		d := start.AddDate(0, 0, i)
		date := d.Format(domain.DateFormat)
		cells = append(cells, DayCell{
			Day:     d.Day(),
			Date:    date,
			InMonth: d.Year() == year && d.Month() == month,
			Today:   date == today,
			Pending: pendingByDate[date],
		})
	}
	return cells
}
