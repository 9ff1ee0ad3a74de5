package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by Queue.Pop when the poll window elapses with
// no item available.
var ErrQueueEmpty = errors.New("queue empty")

// Queue is a FIFO list of raw payloads shared between the exam flow
// (producer) and the archive worker (consumer).
type Queue interface {
	Push(ctx context.Context, queue string, payload []byte) error
	// Pop blocks up to timeout waiting for the next item.
	Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error)
}

// ─── Redis implementation ───────────────────────────────────────────

type redisQueue struct {
	rdb *redis.Client
}

// NewRedisQueue wraps a Redis client as the production queue (RPUSH/BLPOP).
func NewRedisQueue(rdb *redis.Client) Queue {
	return &redisQueue{rdb: rdb}
}

func (q *redisQueue) Push(ctx context.Context, queue string, payload []byte) error {
	return q.rdb.RPush(ctx, queue, payload).Err()
}

func (q *redisQueue) Pop(ctx context.Context, queue string, timeout time.Duration) ([]byte, error) {
	item, err := q.rdb.BLPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}
		return nil, err
	}
	if len(item) < 2 {
		return nil, ErrQueueEmpty
	}
	return []byte(item[1]), nil
}

// ─── In-memory implementation (tests, dev) ──────────────────────────

type memoryQueue struct {
	mu     sync.Mutex
	queues map[string][][]byte
}

// NewMemoryQueue returns a process-local queue. Pop does not block; an empty
// queue returns ErrQueueEmpty immediately, which the worker loop treats the
// same as a poll timeout.
func NewMemoryQueue() Queue {
	return &memoryQueue{queues: make(map[string][][]byte)}
}

func (q *memoryQueue) Push(_ context.Context, queue string, payload []byte) error {
	q.mu.Lock()
	q.queues[queue] = append(q.queues[queue], payload)
	q.mu.Unlock()
	return nil
}

func (q *memoryQueue) Pop(_ context.Context, queue string, _ time.Duration) ([]byte, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.queues[queue]
	if len(items) == 0 {
		return nil, ErrQueueEmpty
	}
	q.queues[queue] = items[1:]
	return items[0], nil
}
