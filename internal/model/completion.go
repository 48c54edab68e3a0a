package model

import "time"

// TaskCompletion records that a task was done on a given date.
// At most one row exists per (task, date).
type TaskCompletion struct {
	ID            string    `gorm:"primaryKey;size:36"`
	TaskID        string    `gorm:"size:36;not null;uniqueIndex:idx_completion_task_date"`
	CompletedDate string    `gorm:"size:10;not null;uniqueIndex:idx_completion_task_date"`
	CompletedAt   time.Time `gorm:"autoCreateTime"`
}
