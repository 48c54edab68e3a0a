package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-calendar/internal/model"
)

// CompletionRepository stores per-day completion marks.
type CompletionRepository struct {
	db *gorm.DB
}

func NewCompletionRepository(db *gorm.DB) *CompletionRepository {
	return &CompletionRepository{db: db}
}

// ListByUser returns the completions of every task owned by the user.
func (r *CompletionRepository) ListByUser(ctx context.Context, userID uint) ([]model.TaskCompletion, error) {
	var completions []model.TaskCompletion
	err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = task_completions.task_id").
		Where("tasks.user_id = ?", userID).
		Find(&completions).Error
	if err != nil {
		return nil, fmt.Errorf("list completions: %w", err)
	}
	return completions, nil
}

// Toggle inserts the (task, date) completion when absent and removes it when
// present. It reports whether the pair is completed afterwards.
func (r *CompletionRepository) Toggle(ctx context.Context, taskID, date string) (bool, error) {
	var completed bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("task_id = ? AND completed_date = ?", taskID, date).Delete(&model.TaskCompletion{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			completed = false
			return nil
		}
		completion := model.TaskCompletion{
			ID:            uuid.NewString(),
			TaskID:        taskID,
			CompletedDate: date,
		}
		if err := tx.Create(&completion).Error; err != nil {
			return err
		}
		completed = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle completion: %w", err)
	}
	return completed, nil
}
