package worker

import (
	"errors"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
	"tokensmith.com/stl/tagger"
	"tokensmith.com/stl/tasks"
	"tokensmith.com/stl/types"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type taggerMock struct {
	config taggerMockConfig
	calls  taggerCall
}

type taggerMockConfig struct {
	fail bool
}

type taggerCall struct {
	predictProba bool
}

func (mock *taggerMock) PredictProba(examples []types.Example) ([][]tagger.LabelConfidence, error) {
	mock.calls.predictProba = true
	if mock.config.fail {
		return nil, errors.New("mock: tagging failed")
	}
	result := make([][]tagger.LabelConfidence, len(examples))
	for i, example := range examples {
		pairs := make([]tagger.LabelConfidence, len(example.Tokens))
		for j := range example.Tokens {
			pairs[j] = tagger.LabelConfidence{Label: "O", Confidence: 1}
		}
		result[i] = pairs
	}
	return result, nil
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	getBatchTask          withValue
	getJobTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getBatchTask          bool
	getJobTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config rmqMockConfig
	calls  rmqMockCalls
}

type rmqMockConfig struct {
	pingSequencer       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	pingSequencer       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
}

type s3MockConfig struct {
	getExamples     withValue
	savePredictions failingMethod
}

type s3MockCalls struct {
	getExamples     bool
	savePredictions bool
}

func (mock s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func (mock *redisMock) getBatchTask(redisKey string) (*tasks.BatchTask, error) {
	mock.calls.getBatchTask = true
	if mock.config.getBatchTask.fail {
		return nil, errors.New("failed to get batch task")
	}
	switch task := mock.config.getBatchTask.returnedValue.(type) {
	case tasks.BatchTask:
		return &task, nil
	default:
		return &tasks.BatchTask{}, nil
	}
}

func (mock *redisMock) getJobTask(task *Task) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	switch jobTask := mock.config.getJobTask.returnedValue.(type) {
	case tasks.JobTask:
		return &jobTask, nil
	default:
		return &tasks.JobTask{}, nil
	}
}

func (mock *redisMock) onTaskStarted(task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update batch task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update batch task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update batch task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update batch task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(task *Task) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update batch task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, stlLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) pingSequencer(task *Task, message Message) error {
	mock.calls.pingSequencer = true
	if mock.config.pingSequencer.fail {
		return errors.New("failed to ping sequencer")
	}
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) getExamples(task *Task) ([]byte, error) {
	mock.calls.getExamples = true
	if mock.config.getExamples.fail {
		return nil, errors.New("mock: failed to load from s3")
	}
	switch data := mock.config.getExamples.returnedValue.(type) {
	case []byte:
		return data, nil
	default:
		return []byte(`[{"tokens":["some","input"]}]`), nil
	}
}

func (mock *s3Mock) savePredictions(task *Task, result string) error {
	mock.calls.savePredictions = true
	if mock.config.savePredictions.fail {
		return errors.New("failed to upload results")
	}
	return nil
}
