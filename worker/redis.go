package worker

import (
	"fmt"
	"tokensmith.com/stl/tasks"
)

type redisTransactions interface {
	getBatchTask(redisKey string) (*tasks.BatchTask, error)
	getJobTask(task *Task) (*tasks.JobTask, error)
	onTaskStarted(task *Task) error
	onTaskCancelled(task *Task, errorMessages ...string) error
	onTaskExceededRetries(task *Task, maxRetries int) error
	onTaskFailedWithError(task *Task, err error) error
	onTaskComplete(task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) onTaskStarted(task *Task) error {
	err := wrapper.tasksClient.Batches.Update(task.redisKey, func(task *tasks.BatchTask) {
		task.TaskStatus.Status = tasks.TaskStatusStarted
		task.TaskStatus.Attempts += 1
		task.TaskStatus.StartedAt = getFormattedNow()
		task.TaskStatus.CompletedAt = nil
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskCancelled(task *Task, errorMessages ...string) error {
	err := wrapper.tasksClient.Batches.Update(task.redisKey, func(batchTask *tasks.BatchTask) {
		batchTask.TaskStatus.Status = tasks.TaskStatusCanceled
		batchTask.TaskStatus.StartedAt = getFormattedNow()
		batchTask.TaskStatus.CompletedAt = getFormattedNow()
		batchTask.TaskStatus.Attempts += 1
		batchTask.TaskStatus.ErrorMessages = append(
			batchTask.TaskStatus.ErrorMessages,
			errorMessages...,
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(task *Task, maxRetries int) error {
	err := wrapper.tasksClient.Jobs.Update(task.batchTask.JobID, func(jobTask *tasks.JobTask) {
		jobTask.FailedBatches = append(jobTask.FailedBatches, task.redisKey)
	})
	if err != nil {
		return err
	}
	err = wrapper.tasksClient.Batches.Update(task.redisKey, func(batchTask *tasks.BatchTask) {
		batchTask.TaskStatus.Status = tasks.TaskStatusCompletedFailure
		batchTask.TaskStatus.StartedAt = getFormattedNow()
		batchTask.TaskStatus.CompletedAt = getFormattedNow()
		batchTask.TaskStatus.Attempts += 1
		batchTask.TaskStatus.ErrorMessages = append(
			batchTask.TaskStatus.ErrorMessages,
			fmt.Sprintf(
				"Task has exceeded retries. (Attempts: %d, max retries: %d )",
				batchTask.TaskStatus.Attempts,
				maxRetries,
			),
		)
	})
	return err
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(task *Task, err error) error {
	return wrapper.tasksClient.Batches.Update(task.redisKey, func(batchTask *tasks.BatchTask) {
		batchTask.TaskStatus.Status = tasks.TaskStatusFailed
		batchTask.TaskStatus.CompletedAt = getFormattedNow()
		batchTask.TaskStatus.ErrorMessages = append(batchTask.TaskStatus.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(task *Task) error {
	return wrapper.tasksClient.Batches.Update(task.redisKey, func(batchTask *tasks.BatchTask) {
		if !batchTask.TaskStatus.Status.Complete() {
			batchTask.TaskStatus.Status = tasks.TaskStatusCompletedSuccess
		}
		batchTask.TaskStatus.CompletedAt = getFormattedNow()
		batchTask.TaskStatus.ResultsFileKey = getResultsFileKey(task)
	})
}

func (wrapper *redisClientWrapper) getBatchTask(redisKey string) (*tasks.BatchTask, error) {
	return wrapper.tasksClient.Batches.Get(redisKey)
}

func (wrapper *redisClientWrapper) getJobTask(task *Task) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.Get(task.batchTask.JobID)
}
