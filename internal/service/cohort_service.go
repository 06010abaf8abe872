package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
)

type cohortRepository interface {
	List(ctx context.Context, filter models.CohortFilter) ([]models.Cohort, int, error)
	FindByID(ctx context.Context, id string) (*models.Cohort, error)
	Create(ctx context.Context, cohort *models.Cohort) error
	Archive(ctx context.Context, id string) error
}

type cohortStudentArchiver interface {
	ArchiveByCohort(ctx context.Context, cohortID string) error
}

// CohortServiceParams groups constructor dependencies.
type CohortServiceParams struct {
	Repo      cohortRepository
	Students  cohortStudentArchiver
	Snapshots snapshotInvalidator
	Logger    *zap.Logger
}

// CohortService manages cohorts. Archiving a cohort deactivates its
// students in the same operation.
type CohortService struct {
	repo      cohortRepository
	students  cohortStudentArchiver
	snapshots snapshotInvalidator
	logger    *zap.Logger
}

// NewCohortService constructs a CohortService.
func NewCohortService(params CohortServiceParams) *CohortService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CohortService{
		repo:      params.Repo,
		students:  params.Students,
		snapshots: params.Snapshots,
		logger:    logger,
	}
}

// List returns cohorts matching the filter with pagination metadata.
func (s *CohortService) List(ctx context.Context, filter models.CohortFilter) ([]models.Cohort, int, error) {
	cohorts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohorts")
	}
	return cohorts, total, nil
}

// Get fetches a single cohort.
func (s *CohortService) Get(ctx context.Context, id string) (*models.Cohort, error) {
	cohort, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "cohort not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load cohort")
	}
	return cohort, nil
}

// Create opens a new cohort.
func (s *CohortService) Create(ctx context.Context, req dto.CreateCohortRequest) (*models.Cohort, error) {
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid start date")
	}
	cohort := &models.Cohort{
		Name:      req.Name,
		StartDate: *start,
	}
	if cohort.EndDate, err = parseOptionalDate(req.EndDate); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid end date")
	}
	if cohort.EndDate != nil && cohort.EndDate.Before(cohort.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date precedes start date")
	}

	if err := s.repo.Create(ctx, cohort); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create cohort")
	}
	return cohort, nil
}

// Archive closes a cohort and deactivates its students.
func (s *CohortService) Archive(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Archive(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive cohort")
	}
	if err := s.students.ArchiveByCohort(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate cohort students")
	}
	if s.snapshots != nil {
		s.snapshots.Invalidate(ctx)
	}
	return nil
}
