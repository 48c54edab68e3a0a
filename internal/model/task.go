package model

import "time"

// RepeatType is the recurrence rule of a task.
type RepeatType string

const (
	RepeatNone        RepeatType = "none"
	RepeatDaily       RepeatType = "daily"
	RepeatWeekly      RepeatType = "weekly"
	RepeatFortnightly RepeatType = "fortnightly"
)

// Valid reports whether r is one of the known recurrence rules.
func (r RepeatType) Valid() bool {
	switch r {
	case RepeatNone, RepeatDaily, RepeatWeekly, RepeatFortnightly:
		return true
	default:
		return false
	}
}

// Task is a one-off or recurring task definition.
// StartDate and EndDate hold calendar dates as YYYY-MM-DD.
type Task struct {
	ID          string `gorm:"primaryKey;size:36"`
	UserID      uint   `gorm:"index"`
	Title       string `gorm:"not null"`
	Description *string
	StartDate   string     `gorm:"size:10;not null"`
	EndDate     *string    `gorm:"size:10"`
	RepeatType  RepeatType `gorm:"size:16;default:none"`
	RepeatDay   *int
	SortOrder   int `gorm:"index;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRepeating reports whether the task has more than one occurrence.
func (t Task) IsRepeating() bool {
	return t.RepeatType != RepeatNone
}
