package tasks

import (
	"tokensmith.com/stl/redis"
)

const JobsDB redis.DB = 1

// JobTask groups the batches of one tagging job.
type JobTask struct {
	UserCanceled         bool     `json:"user_canceled"`
	StopBatchesOnFailure bool     `json:"stop_batches_on_failure"`
	FailedBatches        []string `json:"failed_batches"`
}

type JobTasks struct {
	client redis.Client
}

func (tasks JobTasks) Get(redisKey string) (*JobTask, error) {
	var task JobTask
	err := tasks.client.GetDocument(redisKey, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks JobTasks) Update(redisKey string, updateFunc func(task *JobTask)) error {
	var task JobTask
	return tasks.client.UpdateDocument(redisKey, &task, func() {
		updateFunc(&task)
	})
}
