package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Job types accepted on the subscription.
const (
	JobTypeSnapshot    = "snapshot"
	JobTypeHealthCheck = "health_check"
)

// PubSubHandler triggers snapshot runs from Pub/Sub messages.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	processor        *MessageProcessor
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	SnapshotJob      *SnapshotJob
	Logger           zerolog.Logger
}

// JobMessage is the payload of a trigger message.
type JobMessage struct {
	JobType string `json:"job_type"`
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// One run at a time; a run can take a while with many locations.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 1
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		processor:        NewMessageProcessor(cfg.SnapshotJob, cfg.Logger),
		logger:           cfg.Logger,
	}, nil
}

// Start begins processing Pub/Sub messages. It blocks until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		logger := h.logger.With().
			Str("message_id", msg.ID).
			Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
			Logger()

		if err := h.processor.Process(ctx, msg.Data); err != nil {
			logger.Error().Err(err).Msg("job failed")
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

// MessageProcessor decodes trigger messages and runs the matching job.
type MessageProcessor struct {
	job    *SnapshotJob
	logger zerolog.Logger
}

// NewMessageProcessor creates a processor for job.
func NewMessageProcessor(job *SnapshotJob, logger zerolog.Logger) *MessageProcessor {
	return &MessageProcessor{job: job, logger: logger}
}

// Process handles one message payload. A nil error means the message should
// be acked; unknown job types are acked so they are not redelivered.
func (p *MessageProcessor) Process(ctx context.Context, data []byte) error {
	startTime := time.Now()

	var msg JobMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("parse message: %w", err)
	}

	var err error
	switch msg.JobType {
	case JobTypeSnapshot:
		err = p.handleSnapshot(ctx)
	case JobTypeHealthCheck:
		err = p.job.CheckUpstream(ctx)
	default:
		p.logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
	if err != nil {
		return err
	}

	p.logger.Info().
		Str("job_type", msg.JobType).
		Dur("duration", time.Since(startTime)).
		Msg("job completed successfully")

	return nil
}

func (p *MessageProcessor) handleSnapshot(ctx context.Context) error {
	result := p.job.Run(ctx)

	// Redeliver only when most locations failed.
	if result.Total > 0 && result.Failed > result.Successful {
		return fmt.Errorf("too many snapshot failures: %d/%d", result.Failed, result.Total)
	}
	return nil
}
