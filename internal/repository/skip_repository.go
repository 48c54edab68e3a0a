package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"task-calendar/internal/model"
)

// SkipRepository stores suppressed single occurrences.
type SkipRepository struct {
	db *gorm.DB
}

func NewSkipRepository(db *gorm.DB) *SkipRepository {
	return &SkipRepository{db: db}
}

// ListByUser returns the skips of every task owned by the user.
func (r *SkipRepository) ListByUser(ctx context.Context, userID uint) ([]model.TaskSkip, error) {
	var skips []model.TaskSkip
	err := r.db.WithContext(ctx).
		Joins("JOIN tasks ON tasks.id = task_skips.task_id").
		Where("tasks.user_id = ?", userID).
		Find(&skips).Error
	if err != nil {
		return nil, fmt.Errorf("list skips: %w", err)
	}
	return skips, nil
}

// Create records a skip. Skipping an already skipped occurrence is a no-op.
func (r *SkipRepository) Create(ctx context.Context, taskID, date string) error {
	skip := model.TaskSkip{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		SkippedDate: date,
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&skip).Error
	if err != nil {
		return fmt.Errorf("create skip: %w", err)
	}
	return nil
}

// Delete restores a skipped occurrence. It reports whether a skip existed.
func (r *SkipRepository) Delete(ctx context.Context, taskID, date string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("task_id = ? AND skipped_date = ?", taskID, date).
		Delete(&model.TaskSkip{})
	if res.Error != nil {
		return false, fmt.Errorf("delete skip: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}
