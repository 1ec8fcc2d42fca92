package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Sana-Rashid-135/coach/internal/config"
)

// StartScheduler creates and starts an Asynq Scheduler that enqueues the
// reminder sweep on the configured cadence (per-minute by default).
// Returns a stop function for graceful shutdown.
func StartScheduler(cfg *config.Config) (stop func(), err error) {
	redisOpt, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	logger := NewLogger(cfg.LogLevel, cfg.LogFormat)

	scheduler := asynq.NewScheduler(
		redisOpt,
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
			Logger:   &asynqLoggerAdapter{logger: logger},
		},
	)

	// Preferred times are matched against each user's own timezone inside
	// the sweep, so the schedule itself runs in UTC.
	task := asynq.NewTask(
		TaskReminderSweep,
		nil,
		asynq.MaxRetry(1),
		asynq.Timeout(50*time.Second),
		asynq.Unique(time.Minute), // Prevent duplicate if scheduler runs twice
	)

	entryID, err := scheduler.Register(cfg.ReminderSchedule, task)
	if err != nil {
		return nil, fmt.Errorf("failed to register reminder schedule: %w", err)
	}

	if err := scheduler.Start(); err != nil {
		return nil, fmt.Errorf("failed to start scheduler: %w", err)
	}

	logger.Info(
		"Scheduler started",
		"schedule", cfg.ReminderSchedule,
		"entry_id", entryID,
	)

	return func() { scheduler.Shutdown() }, nil
}
