package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// ErrQueueFull is returned when the in-process queue has no room left.
var ErrQueueFull = errors.New("notification queue full")

const (
	TypeDispatch  = "notification:dispatch"
	TypeBroadcast = "notification:broadcast"
)

// Queue hands events to whatever delivers them.
type Queue interface {
	Enqueue(ctx context.Context, ev Event) error
	EnqueueBroadcast(ctx context.Context, b Broadcast) error
}

func NewDispatchTask(ev Event) (*asynq.Task, error) {
	b, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeDispatch, b, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

func NewBroadcastTask(b Broadcast) (*asynq.Task, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeBroadcast, payload, asynq.MaxRetry(1), asynq.Timeout(10*time.Minute)), nil
}

// AsynqQueue pushes events onto Redis for the worker in package cron.
type AsynqQueue struct {
	client *asynq.Client
}

func NewAsynqQueue(opt asynq.RedisConnOpt) *AsynqQueue {
	return &AsynqQueue{client: asynq.NewClient(opt)}
}

func (q *AsynqQueue) Enqueue(ctx context.Context, ev Event) error {
	task, err := NewDispatchTask(ev)
	if err != nil {
		return fmt.Errorf("failed to build dispatch task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", ev.Kind, err)
	}
	return nil
}

func (q *AsynqQueue) EnqueueBroadcast(ctx context.Context, b Broadcast) error {
	task, err := NewBroadcastTask(b)
	if err != nil {
		return fmt.Errorf("failed to build broadcast task: %w", err)
	}
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue broadcast: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}

// InlineQueue delivers on the caller's goroutine. Tests use it so deliveries
// are visible as soon as the call returns.
type InlineQueue struct {
	d *Dispatcher
}

func NewInlineQueue(d *Dispatcher) *InlineQueue {
	return &InlineQueue{d: d}
}

func (q *InlineQueue) Enqueue(ctx context.Context, ev Event) error {
	_, err := q.d.Dispatch(ctx, ev)
	return err
}

func (q *InlineQueue) EnqueueBroadcast(ctx context.Context, b Broadcast) error {
	_, err := q.d.Broadcast(ctx, b)
	return err
}

// AsyncQueue delivers in process on a fixed pool of goroutines so request
// handlers never wait on push, SMS or mail providers. It stands in for
// AsynqQueue when Redis is down.
type AsyncQueue struct {
	d      *Dispatcher
	jobs   chan inlineJob
	wg     sync.WaitGroup
	once   sync.Once
	logger *zap.Logger
}

type inlineJob struct {
	timeout time.Duration
	run     func(context.Context)
}

func NewAsyncQueue(d *Dispatcher, workers, buffer int, logger *zap.Logger) *AsyncQueue {
	if workers < 1 {
		workers = 1
	}
	q := &AsyncQueue{d: d, jobs: make(chan inlineJob, buffer), logger: logger}
	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.run()
	}
	return q
}

func (q *AsyncQueue) run() {
	defer q.wg.Done()
	for job := range q.jobs {
		ctx, cancel := context.WithTimeout(context.Background(), job.timeout)
		job.run(ctx)
		cancel()
	}
}

func (q *AsyncQueue) submit(job inlineJob) error {
	select {
	case q.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *AsyncQueue) Enqueue(ctx context.Context, ev Event) error {
	return q.submit(inlineJob{timeout: 30 * time.Second, run: func(jobCtx context.Context) {
		if _, err := q.d.Dispatch(jobCtx, ev); err != nil {
			q.logger.Warn("inline dispatch failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
		}
	}})
}

func (q *AsyncQueue) EnqueueBroadcast(ctx context.Context, b Broadcast) error {
	return q.submit(inlineJob{timeout: 10 * time.Minute, run: func(jobCtx context.Context) {
		if _, err := q.d.Broadcast(jobCtx, b); err != nil {
			q.logger.Warn("inline broadcast failed", zap.String("audience", string(b.Audience)), zap.Error(err))
		}
	}})
}

// Close stops taking work and waits for queued deliveries until ctx expires.
// Enqueue must not be called after Close.
func (q *AsyncQueue) Close(ctx context.Context) error {
	q.once.Do(func() { close(q.jobs) })
	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
