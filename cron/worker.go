// Package cron runs the background side of the API: queued notification
// delivery and the periodic empty return sweep.
package cron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"camionback/apperr"
	"camionback/services/notification"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeEmptyReturnExpire = "emptyreturn:expire"

// Expirer deactivates empty returns whose date has passed.
type Expirer interface {
	ExpireEmptyReturns(ctx context.Context) (int64, error)
}

// Worker owns the asynq server and scheduler.
type Worker struct {
	srv       *asynq.Server
	scheduler *asynq.Scheduler
	mux       *asynq.ServeMux
	logger    *zap.Logger
}

// NewMux routes every task type to its handler.
func NewMux(d *notification.Dispatcher, expirer Expirer, logger *zap.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TypeDispatch, handleDispatch(d, logger))
	mux.HandleFunc(notification.TypeBroadcast, handleBroadcast(d, logger))
	mux.HandleFunc(TypeEmptyReturnExpire, handleExpire(expirer, logger))
	return mux
}

func NewWorker(opt asynq.RedisConnOpt, mux *asynq.ServeMux, sweepSpec string, logger *zap.Logger) (*Worker, error) {
	srv := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warn("task failed", zap.String("type", task.Type()), zap.Error(err))
		}),
	})

	scheduler := asynq.NewScheduler(opt, &asynq.SchedulerOpts{Location: time.UTC})
	if _, err := scheduler.Register(sweepSpec, asynq.NewTask(TypeEmptyReturnExpire, nil, asynq.MaxRetry(0))); err != nil {
		return nil, fmt.Errorf("failed to schedule %s: %w", TypeEmptyReturnExpire, err)
	}
	return &Worker{srv: srv, scheduler: scheduler, mux: mux, logger: logger}, nil
}

// Start runs the server and scheduler in the background, retrying the server
// start with a growing delay.
func (w *Worker) Start() {
	go func() {
		const maxAttempts = 5
		for attempts := 1; attempts <= maxAttempts; attempts++ {
			err := w.srv.Run(w.mux)
			if err == nil {
				return
			}
			w.logger.Error("worker failed to start",
				zap.Int("attempt", attempts),
				zap.Int("maxAttempts", maxAttempts),
				zap.Error(err))
			time.Sleep(time.Duration(attempts*2) * time.Second)
		}
		w.logger.Error("worker gave up; queued notifications will wait for the next start")
	}()
	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.logger.Error("scheduler stopped", zap.Error(err))
		}
	}()
}

func (w *Worker) Shutdown() {
	w.scheduler.Shutdown()
	w.srv.Shutdown()
}

func handleDispatch(d *notification.Dispatcher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var ev notification.Event
		if err := json.Unmarshal(task.Payload(), &ev); err != nil {
			logger.Error("invalid dispatch payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		delivered, err := d.Dispatch(ctx, ev)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, apperr.ErrNotFound):
			logger.Warn("dropping notification for unknown recipient",
				zap.String("kind", string(ev.Kind)),
				zap.String("recipientId", ev.RecipientID))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		case delivered > 0:
			// A retry would resend the channels that already went out.
			return nil
		}
		return err
	}
}

// handleBroadcast only asks for a retry when nobody was reached, so a partial
// failure does not text the whole audience twice.
func handleBroadcast(d *notification.Dispatcher, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var b notification.Broadcast
		if err := json.Unmarshal(task.Payload(), &b); err != nil {
			logger.Error("invalid broadcast payload", zap.Error(err))
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		sent, err := d.Broadcast(ctx, b)
		if err != nil && sent > 0 {
			logger.Warn("broadcast partially failed", zap.Int("sent", sent), zap.Error(err))
			return nil
		}
		return err
	}
}

func handleExpire(expirer Expirer, logger *zap.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		n, err := expirer.ExpireEmptyReturns(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			logger.Info("expired empty returns", zap.Int64("count", n))
		}
		return nil
	}
}

// RunSweepLoop expires empty returns on a ticker. It replaces the scheduler
// when no Redis is available.
func RunSweepLoop(ctx context.Context, expirer Expirer, interval time.Duration, logger *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	handle := handleExpire(expirer, logger)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := handle(ctx, nil); err != nil {
				logger.Error("empty return sweep failed", zap.Error(err))
			}
		}
	}
}
