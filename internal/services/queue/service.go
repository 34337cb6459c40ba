package queue

import (
	"context"
	"fmt"
	"sync"

	"github.com/phambaophuc/otsu-watermark/internal/services/pipeline"
	"github.com/phambaophuc/otsu-watermark/internal/services/storage"
	"github.com/streadway/amqp"
	"go.uber.org/zap"
)

const QueueName = "video_watermarking"

// Processor runs the watermarking pipeline for one file.
type Processor interface {
	Process(ctx context.Context, inputPath, outputPath string) (*pipeline.Result, error)
}

type QueueService struct {
	conn      *amqp.Connection
	channel   *amqp.Channel
	logger    *zap.Logger
	queueName string
	processor Processor
	storage   *storage.StorageService
	jobs      *JobStore

	// workers tracks running consumers so shutdown can wait for requeues.
	workers sync.WaitGroup
	running int
}

func NewQueueService(
	rabbitmqURL string,
	processor Processor,
	storage *storage.StorageService,
	jobs *JobStore,
	logger *zap.Logger,
) (*QueueService, error) {
	conn, err := amqp.Dial(rabbitmqURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// One unacknowledged video per consumer.
	if err := channel.Qos(1, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	_, err = channel.QueueDeclare(
		QueueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &QueueService{
		conn:      conn,
		channel:   channel,
		logger:    logger,
		queueName: QueueName,
		processor: processor,
		storage:   storage,
		jobs:      jobs,
	}, nil
}

// Jobs returns the store that tracks job status.
func (q *QueueService) Jobs() *JobStore {
	return q.jobs
}

// Close closes the queue connection. Call Wait first so interrupted jobs
// are handed back to the broker before the channel goes away.
func (q *QueueService) Close() error {
	if q.channel != nil {
		q.channel.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}
