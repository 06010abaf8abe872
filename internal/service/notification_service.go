package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/alerts"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/jobs"
)

const criticalKeysCacheKey = "alerts:critical_keys"

// criticalKeysTTL outlives the overview cache by a wide margin so restarts
// inside a day do not re-notify the same alerts.
const criticalKeysTTL = 48 * time.Hour

// NotificationPayload is the job body handed to the fan-out workers.
type NotificationPayload struct {
	Alert alerts.Alert `json:"alert"`
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService watches successive alert feeds and enqueues one
// notification job per alert that newly turned critical. Alerts that were
// already critical last run stay silent.
type NotificationService struct {
	cache   *CacheService
	queue   jobEnqueuer
	logger  *zap.Logger
	enabled bool
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(cache *CacheService, queue jobEnqueuer, logger *zap.Logger, enabled bool) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{cache: cache, queue: queue, logger: logger, enabled: enabled}
}

// Publish diffs the feed's critical bucket against the previously seen key
// set and enqueues jobs for the newcomers. Failures are logged, never
// propagated: notification delivery must not break dashboard reads.
func (s *NotificationService) Publish(ctx context.Context, feed alerts.Feed) {
	if s == nil || !s.enabled || s.queue == nil {
		return
	}

	var previous []string
	if _, err := s.cache.Get(ctx, criticalKeysCacheKey, &previous); err != nil {
		s.logger.Warn("failed to load previous critical alert keys", zap.Error(err))
	}
	seen := make(map[string]struct{}, len(previous))
	for _, key := range previous {
		seen[key] = struct{}{}
	}

	enqueued := 0
	for _, alert := range feed.Critical {
		if _, ok := seen[alert.Key()]; ok {
			continue
		}
		job := jobs.Job{
			Type:    "critical_alert",
			Payload: NotificationPayload{Alert: alert},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Warn("failed to enqueue alert notification",
				zap.String("alert_key", alert.Key()), zap.Error(err))
			continue
		}
		enqueued++
	}
	if enqueued > 0 {
		s.logger.Info("queued critical alert notifications", zap.Int("count", enqueued))
	}

	if err := s.cache.Set(ctx, criticalKeysCacheKey, feed.CriticalKeys(), criticalKeysTTL); err != nil {
		s.logger.Warn("failed to persist critical alert keys", zap.Error(err))
	}
}

// Handle is the worker-side job handler. Outbound channels (email, SMS)
// plug in here; for now delivery is a structured log line to the program
// coordinator stream.
func (s *NotificationService) Handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(NotificationPayload)
	if !ok {
		s.logger.Warn("dropping notification job with unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	alert := payload.Alert
	s.logger.Info("critical alert notification",
		zap.String("student_id", alert.StudentID),
		zap.String("student_name", alert.StudentName),
		zap.String("type", string(alert.Type)),
		zap.String("message", alert.Message),
	)
	return nil
}
