package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// Task type constants
const (
	// Removes a deleted account's ID card upload
	TypeIDCardCleanup = "idcard:cleanup"

	// Removes uploads no account references any more
	TypeUploadsSweep = "uploads:sweep"
)

// TaskPayload is the common payload for all tasks
type TaskPayload struct {
	UserID string `json:"user_id,omitempty"`
	Path   string `json:"path,omitempty"`
}

// NewIDCardCleanupTask creates a task to delete the ID card at path
func NewIDCardCleanupTask(userID, path string) (*asynq.Task, error) {
	payload, err := json.Marshal(TaskPayload{
		UserID: userID,
		Path:   path,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return asynq.NewTask(TypeIDCardCleanup, payload), nil
}

// NewUploadsSweepTask creates a task to sweep orphaned uploads
func NewUploadsSweepTask() *asynq.Task {
	return asynq.NewTask(TypeUploadsSweep, nil)
}

// ParseTaskPayload parses task payload from Asynq task
func ParseTaskPayload(task *asynq.Task) (TaskPayload, error) {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return payload, nil
}

// Enqueuer is the part of *asynq.Client producers need
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}
