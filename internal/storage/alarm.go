package storage

import (
	"time"
)

// Recurrence codes match the values persisted in the recurrence column.
type Recurrence int

const (
	RecurrenceNone Recurrence = iota
	RecurrenceDaily
	RecurrenceWeekly
	RecurrenceMonthly
	RecurrenceYearly
)

type Alarm struct {
	ID          int64      `json:"id"`
	Description string     `json:"description"`
	DueAt       time.Time  `json:"dueAt"`
	Recurrence  Recurrence `json:"recurrence"`
}

func (r Recurrence) String() string {
	switch r {
	case RecurrenceDaily:
		return "Daily"
	case RecurrenceWeekly:
		return "Weekly"
	case RecurrenceMonthly:
		return "Monthly"
	case RecurrenceYearly:
		return "Yearly"
	default:
		return "None"
	}
}

func RecurrenceFromString(s string) Recurrence {
	switch s {
	case "Daily":
		return RecurrenceDaily
	case "Weekly":
		return RecurrenceWeekly
	case "Monthly":
		return RecurrenceMonthly
	case "Yearly":
		return RecurrenceYearly
	default:
		return RecurrenceNone
	}
}
