package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/alerts"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/overview"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
)

const (
	overviewCacheKey  = "overview:board"
	alertsCacheKey    = "overview:alerts"
	overviewCacheGlob = "overview:*"
)

type overviewStudentLister interface {
	ListActive(ctx context.Context) ([]models.StudentDetail, error)
}

type overviewInternshipLister interface {
	ListActive(ctx context.Context) ([]models.InternshipDetail, error)
}

type overviewComplianceLister interface {
	ListAll(ctx context.Context) (map[string][]models.ComplianceRecord, error)
}

// AlertPublisher receives every freshly generated feed so notification
// fan-out can diff it against the previous run.
type AlertPublisher interface {
	Publish(ctx context.Context, feed alerts.Feed)
}

// OverviewServiceConfig tunes cache behaviour for the dashboard.
type OverviewServiceConfig struct {
	CacheTTL time.Duration
}

// OverviewServiceParams groups constructor dependencies.
type OverviewServiceParams struct {
	Students    overviewStudentLister
	Internships overviewInternshipLister
	Compliance  overviewComplianceLister
	Generator   *alerts.Generator
	Cache       *CacheService
	Metrics     *MetricsService
	Publisher   AlertPublisher
	Logger      *zap.Logger
	Config      OverviewServiceConfig
}

// OverviewService assembles the program dashboard and the alert feed. Both
// are derived fresh from entity state; redis only holds short-lived
// snapshots to absorb dashboard refresh bursts.
type OverviewService struct {
	students    overviewStudentLister
	internships overviewInternshipLister
	compliance  overviewComplianceLister
	generator   *alerts.Generator
	cache       *CacheService
	metrics     *MetricsService
	publisher   AlertPublisher
	logger      *zap.Logger
	now         func() time.Time
	cfg         OverviewServiceConfig
}

// NewOverviewService constructs an OverviewService with sane defaults.
func NewOverviewService(params OverviewServiceParams) *OverviewService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 2 * time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	generator := params.Generator
	if generator == nil {
		generator = alerts.NewGenerator(alerts.Config{})
	}
	return &OverviewService{
		students:    params.Students,
		internships: params.Internships,
		compliance:  params.Compliance,
		generator:   generator,
		cache:       params.Cache,
		metrics:     params.Metrics,
		publisher:   params.Publisher,
		logger:      logger,
		now:         time.Now,
		cfg:         cfg,
	}
}

// Overview returns the dashboard projection. The second return value
// reports whether the payload came from cache.
func (s *OverviewService) Overview(ctx context.Context) (*dto.OverviewResponse, bool, error) {
	var cached dto.OverviewResponse
	if hit, err := s.cache.Get(ctx, overviewCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	rows, feed, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}

	resp := &dto.OverviewResponse{
		GeneratedAt: feed.GeneratedAt,
		Rows:        rows,
		Totals:      summarise(rows, feed),
	}
	if err := s.cache.Set(ctx, overviewCacheKey, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("overview cache write failed", zap.Error(err))
	}
	return resp, false, nil
}

// Alerts returns the severity-bucketed alert feed.
func (s *OverviewService) Alerts(ctx context.Context) (*dto.AlertFeedResponse, bool, error) {
	var cached dto.AlertFeedResponse
	if hit, err := s.cache.Get(ctx, alertsCacheKey, &cached); err == nil && hit {
		return &cached, true, nil
	}

	_, feed, err := s.snapshot(ctx)
	if err != nil {
		return nil, false, err
	}

	resp := &dto.AlertFeedResponse{
		GeneratedAt: feed.GeneratedAt,
		Critical:    feed.Critical,
		Warning:     feed.Warning,
		Info:        feed.Info,
		Counts: dto.AlertCounts{
			Critical: len(feed.Critical),
			Warning:  len(feed.Warning),
			Info:     len(feed.Info),
		},
	}
	if err := s.cache.Set(ctx, alertsCacheKey, resp, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("alert feed cache write failed", zap.Error(err))
	}
	return resp, false, nil
}

// Invalidate drops cached snapshots after any lifecycle or compliance write.
func (s *OverviewService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, overviewCacheGlob); err != nil {
		s.logger.Warn("overview cache invalidation failed", zap.Error(err))
	}
}

// snapshot loads entity state and derives the projection plus the alert
// feed in one pass so both endpoints agree on the same generation instant.
func (s *OverviewService) snapshot(ctx context.Context) ([]overview.Row, alerts.Feed, error) {
	start := s.now()
	today := start.UTC()

	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, alerts.Feed{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	internships, err := s.internships.ListActive(ctx)
	if err != nil {
		return nil, alerts.Feed{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internships")
	}
	complianceByStudent, err := s.compliance.ListAll(ctx)
	if err != nil {
		return nil, alerts.Feed{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance records")
	}

	feed := s.generator.Generate(internships, complianceByStudent, today)
	rows := overview.Build(students, internships, complianceByStudent, feed, today)

	if s.metrics != nil {
		s.metrics.ObserveAlertRun(time.Since(start), len(feed.Critical), len(feed.Warning), len(feed.Info))
	}
	if s.publisher != nil {
		s.publisher.Publish(ctx, feed)
	}
	return rows, feed, nil
}

func summarise(rows []overview.Row, feed alerts.Feed) dto.OverviewTotals {
	totals := dto.OverviewTotals{
		Students: len(rows),
		Critical: len(feed.Critical),
		Warning:  len(feed.Warning),
		Info:     len(feed.Info),
	}
	for _, row := range rows {
		if row.CriticalCount > 0 || row.WarningCount > 0 {
			totals.AtRisk++
		}
		if row.NeedsReview {
			totals.NeedsReview++
		}
	}
	return totals
}
