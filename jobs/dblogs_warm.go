package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kosha-admin/kosha/internal/dictapi"
	"github.com/kosha-admin/kosha/internal/observability"
)

// Warmer reloads a month of logs into the query cache.
type Warmer interface {
	Warm(ctx context.Context, month dictapi.Month) (int, error)
}

// DBLogsWarmJob keeps the DB operations report cache hot.
type DBLogsWarmJob struct {
	Warmer  Warmer
	Logger  *slog.Logger
	Metrics *observability.Metrics
	clock   func() time.Time
}

// NewDBLogsWarmJob wires dependencies for the warm-up handler.
func NewDBLogsWarmJob(warmer Warmer, logger *slog.Logger, metrics *observability.Metrics) *DBLogsWarmJob {
	return &DBLogsWarmJob{
		Warmer:  warmer,
		Logger:  logger,
		Metrics: metrics,
		clock:   time.Now,
	}
}

// Handle processes dblogs:warm tasks.
func (j *DBLogsWarmJob) Handle(ctx context.Context, t *asynq.Task) (err error) {
	if j == nil || j.Warmer == nil {
		return errors.New("dblogs warm: handler not configured")
	}
	defer func() { j.Metrics.ObserveJob(TaskDBLogsWarm, err) }()

	var payload DBLogsWarmPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("dblogs warm: decode payload: %v: %w", err, asynq.SkipRetry)
	}
	month := dictapi.MonthOf(j.now())
	if payload.Month != "" {
		parsed, err := dictapi.ParseMonth(payload.Month)
		if err != nil {
			return fmt.Errorf("dblogs warm: %v: %w", err, asynq.SkipRetry)
		}
		month = parsed
	}

	logger := j.logger().With(slog.String("month", string(month)))
	start := time.Now()
	rows, err := j.Warmer.Warm(ctx, month)
	if err != nil {
		logger.Error("warm db logs", slog.Any("error", err))
		return err
	}
	logger.Info("warmed db logs", slog.Int("rows", rows), slog.Duration("duration", time.Since(start)))
	return nil
}

func (j *DBLogsWarmJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskDBLogsWarm))
	}
	return slog.Default().With(slog.String("job", TaskDBLogsWarm))
}

func (j *DBLogsWarmJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now()
}
