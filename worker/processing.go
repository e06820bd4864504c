package worker

import (
	"encoding/json"
	"fmt"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"tokensmith.com/stl/tasks"
	"tokensmith.com/stl/types"
	"tokensmith.com/stl/utils"
)

type Message struct {
	WorkType string `json:"work_type"`
	RedisKey string `json:"redis_key"`
	Sender   string `json:"sender"`
	Version  string `json:"version"`
}

type Task struct {
	delivery  *amqp.Delivery
	batchTask *tasks.BatchTask
	message   *Message
	redisKey  string
	stlLogger *zerolog.Logger
}

func (worker *Worker) processMessage(delivery *amqp.Delivery) {
	task, err := worker.createTask(delivery)
	rejectLogger := worker.stlLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.stlLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("tid", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.pingSequencer(task, *task.message); err != nil {
		task.stlLogger.Err(err).Msg("Got error while sending message to sequencer queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.stlLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.stlLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(delivery *amqp.Delivery) (*Task, error) {
	var message Message
	err := json.Unmarshal(delivery.Body, &message)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	batchTask, err := worker.redis.getBatchTask(message.RedisKey)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch task for message, got error %w", err)
	}
	taskLogger := worker.stlLogger.With().Str("tid", message.RedisKey).Logger()
	task := Task{
		delivery:  delivery,
		batchTask: batchTask,
		redisKey:  message.RedisKey,
		message:   &message,
		stlLogger: &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(task)
	if err != nil {
		task.stlLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(task); err != nil {
		task.stlLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update task info: %w", err)
	}
	if err = worker.runTagger(task); err != nil {
		task.stlLogger.Err(err).Msg("Got error while tagging batch")
		if err = worker.redis.onTaskFailedWithError(task, err); err != nil {
			return err
		}
		return nil
	}
	task.stlLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(task); err != nil {
		task.stlLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	return nil
}

func (worker *Worker) runTagger(task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.stlLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.batchTask.TaskStatus.Attempts)
	data, err := worker.s3.getExamples(task)
	if err != nil {
		task.stlLogger.Err(err).Caller().Msg("Could not fetch example batch from s3")
		return fmt.Errorf("failed to fetch examples from s3: %w", err)
	}
	var examples []types.Example
	if err = json.Unmarshal(data, &examples); err != nil {
		return fmt.Errorf("failed to unmarshal example batch: %w", err)
	}
	predictions, err := worker.tgr.PredictProba(examples)
	if err != nil {
		return fmt.Errorf("failed to tag batch: %w", err)
	}
	result, err := json.Marshal(predictions)
	if err != nil {
		return err
	}
	task.stlLogger.Info().Msg("Finished tagging, saving results to s3")
	if err = worker.s3.savePredictions(task, string(result)); err != nil {
		task.stlLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(task *Task) (bool, error) {
	taskInfo := task.batchTask.TaskStatus
	taskLogger := task.stlLogger

	if taskInfo.Status.Complete() {
		taskLogger.Info().Msg("Task is already done. (might indicate issue acking message with RMQ). Sending back to Sequencer.")
		return false, nil
	}
	taskJob, err := worker.redis.getJobTask(task)
	if err != nil {
		taskLogger.Err(err).Msg("Failed to query job task for batch task")
		return false, err
	}
	if taskJob.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform this task. Sending back to Sequencer.")
		err := worker.redis.onTaskCancelled(task)
		return false, err
	}
	if taskJob.StopBatchesOnFailure && len(taskJob.FailedBatches) > 0 {
		failedBatch := taskJob.FailedBatches[0]
		taskLogger.Info().Msgf("Task is not required because batch \"%s\" already completed failure "+
			"and the job won't finish successfully. Sending back to Sequencer.", failedBatch)
		err := worker.redis.onTaskCancelled(
			task,
			fmt.Sprintf(
				"Task was marked as \"%s\" because batch \"%s\" of the current job has failed "+
					"and the job won't finish successfully.",
				tasks.TaskStatusCanceled,
				failedBatch,
			),
		)
		return false, err
	}
	if taskInfo.Attempts >= worker.config.TaskMaxRetries {
		taskLogger.Info().Msg("Tagger task has exceeded retries. Sending back to Sequencer.")
		err = worker.redis.onTaskExceededRetries(task, worker.config.TaskMaxRetries)
		return false, err
	}
	return true, nil
}
