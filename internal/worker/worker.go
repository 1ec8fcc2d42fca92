// Package worker runs the background reminder sweep: each minute it finds
// users whose preferred check-in time just arrived in their timezone and
// nudges the ones who have not checked in today.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Sana-Rashid-135/coach/internal/config"
	"github.com/Sana-Rashid-135/coach/internal/messaging"
	"github.com/Sana-Rashid-135/coach/internal/store"
)

// Task type constants
const (
	TaskReminderSweep = "reminder:sweep"
)

const reminderText = "Good morning! Ready for today's check-in? Send it in this format: Sleep __h | Mood __ | Energy __ | Notes: __"

// asynqLoggerAdapter wraps slog.Logger to implement asynq.Logger interface
type asynqLoggerAdapter struct {
	logger *slog.Logger
}

func (a *asynqLoggerAdapter) Debug(args ...interface{}) { a.logger.Debug(fmt.Sprint(args...)) }
func (a *asynqLoggerAdapter) Info(args ...interface{})  { a.logger.Info(fmt.Sprint(args...)) }
func (a *asynqLoggerAdapter) Warn(args ...interface{})  { a.logger.Warn(fmt.Sprint(args...)) }
func (a *asynqLoggerAdapter) Error(args ...interface{}) { a.logger.Error(fmt.Sprint(args...)) }
func (a *asynqLoggerAdapter) Fatal(args ...interface{}) {
	a.logger.Error(fmt.Sprint(args...))
	panic(fmt.Sprint(args...))
}

// Start starts the Asynq worker in non-blocking mode and returns a stop
// function so the caller can coordinate shutdown.
func Start(cfg *config.Config, st store.Store, gateway messaging.Gateway) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	srv := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency:     2,
			ShutdownTimeout: 30 * time.Second,
			ErrorHandler:    asynq.ErrorHandlerFunc(makeErrorHandler(logger)),
			Logger:          &asynqLoggerAdapter{logger: logger},
		},
	)

	// Dedicated Redis client for the reminder sent-cache, separate from the
	// Asynq internal connection.
	rdb, err := newReminderRedisClient(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create reminder Redis client: %w", err)
	}

	sw := &sweeper{
		logger:  logger,
		store:   st,
		guard:   &redisSentGuard{rdb: rdb},
		gateway: gateway,
		now:     time.Now,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskReminderSweep, sw.handle)

	if err := srv.Start(mux); err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}

	logger.Info("Worker started", "concurrency", 2, "redis", cfg.RedisURL)
	return func() {
		srv.Shutdown()
		_ = rdb.Close()
	}, nil
}

func newReminderRedisClient(redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// SentGuard marks a reminder as sent for (userID, date) and reports whether
// this caller was first. Overlapping sweeps racing on the same user get
// exactly one true.
type SentGuard interface {
	MarkSent(ctx context.Context, userID uint, date string) (bool, error)
}

// redisSentGuard implements SentGuard with a SETNX key expiring after a day.
type redisSentGuard struct {
	rdb *redis.Client
}

func (g *redisSentGuard) MarkSent(ctx context.Context, userID uint, date string) (bool, error) {
	key := fmt.Sprintf("reminder:sent:%d:%s", userID, date)
	return g.rdb.SetNX(ctx, key, 1, 24*time.Hour).Result()
}

// sweeper holds the reminder sweep's collaborators. The clock is injected so
// tests can pin the minute being matched.
type sweeper struct {
	logger  *slog.Logger
	store   store.Store
	guard   SentGuard
	gateway messaging.Gateway
	now     func() time.Time
}

func (s *sweeper) handle(ctx context.Context, task *asynq.Task) error {
	return s.run(ctx)
}

// run nudges every user whose preferred check-in time matches the current
// minute in their timezone and who has not checked in today. The sent guard
// keeps overlapping sweeps from double-sending.
func (s *sweeper) run(ctx context.Context) error {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		// Retryable: the next sweep minute will also miss if the DB stays down.
		return fmt.Errorf("failed to list users: %w", err)
	}

	now := s.now()
	sent := 0
	for i := range users {
		user := &users[i]

		local := now.In(user.Location())
		if local.Format("15:04") != user.PreferredCheckinTime {
			continue
		}

		date := local.Format("2006-01-02")
		if user.LastCheckinAt != nil && user.CalendarDate(*user.LastCheckinAt) == date {
			continue
		}

		first, err := s.guard.MarkSent(ctx, user.ID, date)
		if err != nil {
			s.logger.Warn("Reminder guard check failed", "user_id", user.ID, "error", err.Error())
			continue
		}
		if !first {
			continue
		}

		if _, err := s.gateway.Send(ctx, user.Phone, reminderText); err != nil {
			s.logger.Error("Failed to send reminder", "user_id", user.ID, "error", err.Error())
			continue
		}
		sent++
	}

	if sent > 0 {
		s.logger.Info("Reminder sweep completed", "sent", sent, "users", len(users))
	}
	return nil
}

// makeErrorHandler creates an error handler function with logger closure.
func makeErrorHandler(logger *slog.Logger) func(context.Context, *asynq.Task, error) {
	return func(ctx context.Context, task *asynq.Task, err error) {
		retried, _ := asynq.GetRetryCount(ctx)
		maxRetry, _ := asynq.GetMaxRetry(ctx)

		logger.Error(
			"Task execution failed",
			"task_type", task.Type(),
			"error", err.Error(),
			"retry_count", retried,
			"max_retry", maxRetry,
		)

		if retried >= maxRetry {
			logger.Error(
				"Task moved to dead letter queue (all retries exhausted)",
				"task_type", task.Type(),
			)
		}
	}
}
