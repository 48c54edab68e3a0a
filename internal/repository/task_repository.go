package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"task-calendar/internal/model"
)

// TaskRepository handles CRUD for task definitions.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create persists a task, generating its ID when empty.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if err := r.db.WithContext(ctx).Create(task).Error; err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// ListByUser returns every task of the user in display order.
func (r *TaskRepository) ListByUser(ctx context.Context, userID uint) ([]model.Task, error) {
	var tasks []model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("sort_order ASC, created_at DESC").
		Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (r *TaskRepository) FindByID(ctx context.Context, userID uint, taskID string) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, taskID).First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// NextSortOrder returns the position after the last task of the user.
func (r *TaskRepository) NextSortOrder(ctx context.Context, userID uint) (int, error) {
	var result struct {
		Max sql.NullInt64
	}
	if err := r.db.WithContext(ctx).Model(&model.Task{}).
		Select("MAX(sort_order) AS max").
		Where("user_id = ?", userID).
		Scan(&result).Error; err != nil {
		return 0, fmt.Errorf("max sort order: %w", err)
	}
	if !result.Max.Valid {
		return 0, nil
	}
	return int(result.Max.Int64) + 1, nil
}

// UpdateDefinition saves the editable fields of a task: title, description
// and the recurrence rule.
func (r *TaskRepository) UpdateDefinition(ctx context.Context, task *model.Task) error {
	err := r.db.WithContext(ctx).Model(task).
		Select("title", "description", "repeat_type", "repeat_day").
		Updates(task).Error
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// SetEndDate truncates a task so that it has no occurrence on or after endDate.
func (r *TaskRepository) SetEndDate(ctx context.Context, task *model.Task, endDate string) error {
	if err := r.db.WithContext(ctx).Model(task).Update("end_date", endDate).Error; err != nil {
		return fmt.Errorf("end task: %w", err)
	}
	task.EndDate = &endDate
	return nil
}

// Delete removes a task together with its completions and skips.
func (r *TaskRepository) Delete(ctx context.Context, userID uint, taskID string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND id = ?", userID, taskID).Delete(&model.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Where("task_id = ?", taskID).Delete(&model.TaskCompletion{}).Error; err != nil {
			return err
		}
		return tx.Where("task_id = ?", taskID).Delete(&model.TaskSkip{}).Error
	})
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// DeleteAllByUser wipes every task of the user and everything recorded against them.
func (r *TaskRepository) DeleteAllByUser(ctx context.Context, userID uint) (int64, error) {
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&model.Task{}).Select("id").Where("user_id = ?", userID)
		if err := tx.Where("task_id IN (?)", owned).Delete(&model.TaskCompletion{}).Error; err != nil {
			return err
		}
		if err := tx.Where("task_id IN (?)", owned).Delete(&model.TaskSkip{}).Error; err != nil {
			return err
		}
		res := tx.Where("user_id = ?", userID).Delete(&model.Task{})
		deleted = res.RowsAffected
		return res.Error
	})
	if err != nil {
		return 0, fmt.Errorf("delete tasks: %w", err)
	}
	return deleted, nil
}

// Reorder assigns sort_order by position in orderedIDs. IDs that do not
// belong to the user are ignored.
func (r *TaskRepository) Reorder(ctx context.Context, userID uint, orderedIDs []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range orderedIDs {
			if err := tx.Model(&model.Task{}).
				Where("user_id = ? AND id = ?", userID, id).
				Update("sort_order", i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reorder tasks: %w", err)
	}
	return nil
}
