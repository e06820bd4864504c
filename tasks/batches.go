package tasks

import (
	"tokensmith.com/stl/redis"
)

const BatchesDB redis.DB = 2

type TaskStatus string

const (
	TaskStatusProcessing       TaskStatus = "processing"
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

func (s TaskStatus) Submitted() bool {
	return s == TaskStatusSubmitted || s == TaskStatusStarted || s == TaskStatusProcessing
}

// BatchTask is one batch of examples to tag within a job.
type BatchTask struct {
	JobID           string        `json:"job_id"`
	ExamplesFileKey string        `json:"examples_file_key"`
	ModelName       string        `json:"model_name"`
	TaskStatus      BatchTaskInfo `json:"task_status"`
}

type BatchTaskInfo struct {
	ResultsFileKey string     `json:"results_file_key"`
	StartedAt      *string    `json:"started_at"`
	CompletedAt    *string    `json:"completed_at"`
	Attempts       int        `json:"attempts"`
	Status         TaskStatus `json:"status"`
	ErrorMessages  []string   `json:"error_messages"`
}

type BatchTasks struct {
	client redis.Client
}

func (tasks BatchTasks) Get(redisKey string) (*BatchTask, error) {
	var task BatchTask
	err := tasks.client.GetDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks BatchTasks) Update(redisKey string, updateFunc func(task *BatchTask)) error {
	var task BatchTask
	return tasks.client.UpdateDocument(redisKey, &task, func() {
		updateFunc(&task)
	})
}
