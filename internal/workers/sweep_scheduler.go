package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/campushire/campushire/internal/tasks"
)

// StartSweepScheduler enqueues an uploads sweep on every tick of schedule, a
// standard 5-field cron expression. Stop the returned cron to end it.
func StartSweepScheduler(client tasks.Enqueuer, schedule string, logger zerolog.Logger) (*cron.Cron, error) {
	c := cron.New()

	_, err := c.AddFunc(schedule, func() {
		enqueueSweep(client, logger)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	logger.Info().Str("schedule", schedule).Msg("Upload sweep scheduler started")
	return c, nil
}

func enqueueSweep(client tasks.Enqueuer, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// At most one sweep queued per hour
	info, err := client.EnqueueContext(ctx, tasks.NewUploadsSweepTask(),
		asynq.Queue("low"),
		asynq.Unique(time.Hour),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to enqueue upload sweep")
		return
	}

	logger.Debug().Str("task_id", info.ID).Msg("Upload sweep enqueued")
}
