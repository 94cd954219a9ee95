package job

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// PostgresJobRepository stores jobs in the jobs table via gorm.
type PostgresJobRepository struct {
	db *gorm.DB
}

func NewPostgresJobRepository(db *gorm.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

// Create inserts a pending job and returns it with its assigned ID.
func (r *PostgresJobRepository) Create(ctx context.Context, taskType string, payload json.RawMessage) (*Job, error) {
	j := &Job{
		TaskType: taskType,
		Payload:  payload,
		Status:   JobStatusPending,
	}

	if result := r.db.WithContext(ctx).Create(j); result.Error != nil {
		return nil, result.Error
	}

	return j, nil
}

// Get returns the job with the given ID, or nil when no such job exists.
func (r *PostgresJobRepository) Get(ctx context.Context, id int) (*Job, error) {
	var j Job
	result := r.db.WithContext(ctx).First(&j, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}

	return &j, nil
}

// UpdateStatus moves a job to a new status, recording the failure message
// when there is one.
func (r *PostgresJobRepository) UpdateStatus(ctx context.Context, id int, status JobStatus, errStr *string) error {
	result := r.db.WithContext(ctx).Model(&Job{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status": status,
		"error":  errStr,
	})

	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return fmt.Errorf("no job with id %d", id)
	}

	return nil
}
