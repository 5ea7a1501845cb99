// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list (queue) name for room action logs.
const DefaultQueueName = "show_actions"

// recordBufferSize bounds how many records may wait for Redis before new ones are dropped.
const recordBufferSize = 1024

// RoomActionRecord holds the minimal info needed by the historian. Room codes
// are reused once a room is gone, so SessionID identifies the room's lifetime.
type RoomActionRecord struct {
	RoomID        string                 `json:"room_id"`
	SessionID     uuid.UUID              `json:"session_id"`
	ActionIndex   int                    `json:"action_index"`
	ActorID       uuid.UUID              `json:"actor_id"`
	ActionType    string                 `json:"action_type"`
	ActionPayload map[string]interface{} `json:"action_payload"`
	Timestamp     int64                  `json:"timestamp"`
}

// Connect creates a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher pushes room action records onto a Redis list. Records handed to
// Record are pushed by a single goroutine, in the order they were recorded.
type Publisher struct {
	client  *redis.Client
	queue   string
	timeout time.Duration
	logger  logrus.FieldLogger

	publish func(ctx context.Context, record RoomActionRecord) error
	records chan RoomActionRecord
	done    chan struct{}
	mu      sync.RWMutex
	closed  bool
}

// NewPublisher wraps a connected client and starts its push loop. An empty
// queue name uses DefaultQueueName. Call Close to flush and stop.
func NewPublisher(client *redis.Client, queue string, logger logrus.FieldLogger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	p := &Publisher{
		client:  client,
		queue:   queue,
		timeout: 2 * time.Second,
		logger:  logger,
		records: make(chan RoomActionRecord, recordBufferSize),
		done:    make(chan struct{}),
	}
	p.publish = p.Publish
	go p.run()
	return p
}

// Publish serializes the record to JSON and pushes it to the queue.
func (p *Publisher) Publish(ctx context.Context, record RoomActionRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal RoomActionRecord: %w", err)
	}
	if err := p.client.RPush(ctx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", p.queue, err)
	}
	return nil
}

// Record queues the record without blocking so room logic never waits on
// Redis. A full buffer drops the record.
func (p *Publisher) Record(record RoomActionRecord) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	select {
	case p.records <- record:
	default:
		p.logger.WithFields(logrus.Fields{
			"room":   record.RoomID,
			"action": record.ActionIndex,
		}).Warn("action buffer full, dropping room action")
	}
}

func (p *Publisher) run() {
	defer close(p.done)
	for rec := range p.records {
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		if err := p.publish(ctx, rec); err != nil {
			p.logger.WithFields(logrus.Fields{
				"room":   rec.RoomID,
				"action": rec.ActionIndex,
			}).Warnf("publish room action: %v", err)
		}
		cancel()
	}
}

// Close stops accepting records and waits until the queued ones are pushed.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.records)
	}
	p.mu.Unlock()
	<-p.done
}

// Queue returns the list name records are pushed to.
func (p *Publisher) Queue() string {
	return p.queue
}
