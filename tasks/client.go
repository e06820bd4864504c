package tasks

import (
	"tokensmith.com/stl/redis"
)

type Client struct {
	Batches BatchTasks
	Jobs    JobTasks
}

// NewClient is the preferred way of working with task documents.
func NewClient() (Client, error) {
	jobsRedisClient, err := redis.NewClient(JobsDB)
	if err != nil {
		return Client{}, err
	}
	batchesRedisClient, err := redis.NewClient(BatchesDB)
	if err != nil {
		return Client{}, err
	}
	return Client{
		Jobs:    JobTasks{client: jobsRedisClient},
		Batches: BatchTasks{client: batchesRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Batches.client.Close()
	_ = client.Jobs.client.Close()
}
