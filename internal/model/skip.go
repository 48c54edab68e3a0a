package model

import "time"

// TaskSkip suppresses a single occurrence of a task.
type TaskSkip struct {
	ID          string `gorm:"primaryKey;size:36"`
	TaskID      string `gorm:"size:36;not null;uniqueIndex:idx_skip_task_date"`
	SkippedDate string `gorm:"size:10;not null;uniqueIndex:idx_skip_task_date"`
	CreatedAt   time.Time
}
