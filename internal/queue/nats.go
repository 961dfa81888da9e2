package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/ternarybob/arbor"

	"github.com/parlascope/parlascope/internal/interfaces"
)

// NATSQueue publishes tasks to a JetStream work queue. The stream is created
// on first use so deployments need no out-of-band provisioning.
type NATSQueue struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	stream string
	logger arbor.ILogger
}

var _ interfaces.TaskQueue = (*NATSQueue)(nil)

// NewNATSQueue connects to a NATS server and ensures the work-queue stream
// exists.
func NewNATSQueue(ctx context.Context, url, stream string, logger arbor.ILogger) (*NATSQueue, error) {
	nc, err := nats.Connect(url,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      stream,
		Subjects:  []string{stream + ".>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.WorkQueuePolicy,
	}); err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to ensure stream %s: %w", stream, err)
	}

	return &NATSQueue{
		nc:     nc,
		js:     js,
		stream: stream,
		logger: logger,
	}, nil
}

// Enqueue publishes one task. Fire-and-forget beyond the broker ack; retries
// and ordering are the consumer's concern.
func (q *NATSQueue) Enqueue(ctx context.Context, endpoint string, payload any) error {
	task := NewTask(endpoint, payload)

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to encode task: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", q.stream, endpoint)
	if _, err := q.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish task to %s: %w", subject, err)
	}

	q.logger.Debug().
		Str("task_id", task.ID).
		Str("endpoint", endpoint).
		Msg("Task enqueued")

	return nil
}

// Close drains the connection.
func (q *NATSQueue) Close() error {
	if q.nc != nil {
		q.nc.Close()
	}
	return nil
}
