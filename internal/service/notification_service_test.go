package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/alerts"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/jobs"
)

type capturingQueue struct {
	jobs []jobs.Job
	err  error
}

func (q *capturingQueue) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func criticalFeed(keys ...string) alerts.Feed {
	feed := alerts.Feed{GeneratedAt: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)}
	for _, key := range keys {
		feed.Critical = append(feed.Critical, alerts.Alert{
			Type:      alerts.TypeOverdueMilestone,
			Severity:  alerts.SeverityCritical,
			StudentID: key,
			Milestone: "phase_1_eval",
		})
	}
	return feed
}

func TestPublishEnqueuesOnlyNewCriticals(t *testing.T) {
	queue := &capturingQueue{}
	cacheSvc := NewCacheService(newMemCacheRepo(), nil, time.Minute, nil, true)
	svc := NewNotificationService(cacheSvc, queue, nil, true)

	svc.Publish(context.Background(), criticalFeed("stu-1", "stu-2"))
	require.Len(t, queue.jobs, 2)

	// Same feed again: everything already notified.
	svc.Publish(context.Background(), criticalFeed("stu-1", "stu-2"))
	assert.Len(t, queue.jobs, 2)

	// One newcomer among the repeats.
	svc.Publish(context.Background(), criticalFeed("stu-1", "stu-2", "stu-3"))
	require.Len(t, queue.jobs, 3)
	payload, ok := queue.jobs[2].Payload.(NotificationPayload)
	require.True(t, ok)
	assert.Equal(t, "stu-3", payload.Alert.StudentID)
}

func TestPublishForgetsResolvedAlerts(t *testing.T) {
	queue := &capturingQueue{}
	cacheSvc := NewCacheService(newMemCacheRepo(), nil, time.Minute, nil, true)
	svc := NewNotificationService(cacheSvc, queue, nil, true)

	svc.Publish(context.Background(), criticalFeed("stu-1"))
	svc.Publish(context.Background(), criticalFeed())
	// The alert resolved and later recurred, so it notifies again.
	svc.Publish(context.Background(), criticalFeed("stu-1"))
	assert.Len(t, queue.jobs, 2)
}

func TestPublishDisabledDoesNothing(t *testing.T) {
	queue := &capturingQueue{}
	cacheSvc := NewCacheService(newMemCacheRepo(), nil, time.Minute, nil, true)
	svc := NewNotificationService(cacheSvc, queue, nil, false)

	svc.Publish(context.Background(), criticalFeed("stu-1"))
	assert.Empty(t, queue.jobs)
}
