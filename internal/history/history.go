// internal/history/history.go

// Package history streams session lifecycle records onto a Redis list for an
// out-of-process consumer. Recording is fire-and-forget: the hub keeps serving
// games when Redis is slow or down.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultQueueName is the Redis list records are pushed onto.
const DefaultQueueName = "gambit_session_events"

const pushTimeout = 3 * time.Second

// Record is one session lifecycle entry as it appears on the queue.
type Record struct {
	Event        string `json:"event"`
	SessionID    string `json:"session_id"`
	ConnectionID string `json:"connection_id"`
	Timestamp    int64  `json:"timestamp"`
}

// Connect builds a Redis client and verifies it with a ping.
func Connect(addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// Publisher buffers records on a channel and drains them onto the Redis list
// from a single Run loop, keeping Record callers non-blocking.
type Publisher struct {
	rdb   *redis.Client
	queue string
	log   *logrus.Logger
	in    chan Record
}

// NewPublisher wires a publisher. An empty queue name falls back to
// DefaultQueueName. Call Run to start draining.
func NewPublisher(rdb *redis.Client, queue string, log *logrus.Logger) *Publisher {
	if queue == "" {
		queue = DefaultQueueName
	}
	return &Publisher{
		rdb:   rdb,
		queue: queue,
		log:   log,
		in:    make(chan Record, 256),
	}
}

// Record enqueues one entry. Never blocks; when the buffer is full the record
// is dropped with a warning.
func (p *Publisher) Record(event, sessionID, connID string) {
	rec := Record{
		Event:        event,
		SessionID:    sessionID,
		ConnectionID: connID,
		Timestamp:    time.Now().Unix(),
	}
	select {
	case p.in <- rec:
	default:
		p.log.Warnf("history buffer full, dropped %q record for session %s", event, sessionID)
	}
}

// Run drains the buffer onto the Redis list until ctx is done. Push failures
// are logged and the record is lost; the queue is advisory, not durable.
func (p *Publisher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case rec := <-p.in:
			if err := p.push(ctx, rec); err != nil {
				p.log.Warnf("history push failed: %v", err)
			}
		}
	}
}

func (p *Publisher) push(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal history record: %w", err)
	}
	pushCtx, cancel := context.WithTimeout(ctx, pushTimeout)
	defer cancel()
	if err := p.rdb.RPush(pushCtx, p.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", p.queue, err)
	}
	return nil
}
