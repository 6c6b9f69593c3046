// Package reviewqueue dispatches human-review follow-up work onto an
// asynq/redis task queue so a separate worker process can notify operators
// without blocking the intake pipeline.
package reviewqueue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"campotech-ai-engine/platform/config"
)

// TaskHumanReviewDue is the asynq task type enqueued whenever a voice-intake
// message is written to the review queue. Invoice drafts do not enqueue it.
const TaskHumanReviewDue = "intake.review.due"

// HumanReviewDuePayload is the task payload for TaskHumanReviewDue.
type HumanReviewDuePayload struct {
	OrganizationID string  `json:"organizationId"`
	MessageID      string  `json:"messageId"`
	Phone          string  `json:"phone"`
	Confidence     float64 `json:"confidence"`
}

// NewHumanReviewDueTask builds the asynq task for a review-queue dispatch.
func NewHumanReviewDueTask(payload HumanReviewDuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskHumanReviewDue, data), nil
}

// ParseHumanReviewDuePayload decodes a TaskHumanReviewDue task's payload.
func ParseHumanReviewDuePayload(task *asynq.Task) (HumanReviewDuePayload, error) {
	var payload HumanReviewDuePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return HumanReviewDuePayload{}, err
	}
	return payload, nil
}

// Client dispatches review-queue notification tasks onto asynq.
type Client struct {
	client *asynq.Client
	queue  string
}

// NewClient builds a Client against the configured redis instance.
func NewClient(cfg config.QueueConfig) (*Client, error) {
	addr := cfg.GetRedisAddr()
	if addr == "" {
		return nil, fmt.Errorf("redis addr not configured")
	}

	opt := asynq.RedisClientOpt{
		Addr:     addr,
		Password: cfg.GetRedisPassword(),
		DB:       cfg.GetRedisDB(),
	}

	return &Client{
		client: asynq.NewClient(opt),
		queue:  "default",
	}, nil
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Notify enqueues a human-review-due task for a worker to pick up.
func (c *Client) Notify(ctx context.Context, payload HumanReviewDuePayload) error {
	if c == nil || c.client == nil {
		return nil
	}

	task, err := NewHumanReviewDueTask(payload)
	if err != nil {
		return err
	}

	_, err = c.client.EnqueueContext(ctx, task, asynq.Queue(c.queue))
	return err
}
