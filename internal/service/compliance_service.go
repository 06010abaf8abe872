package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/compliance"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
)

type complianceRepository interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ComplianceRecord, error)
	Upsert(ctx context.Context, record *models.ComplianceRecord) error
}

type complianceInternshipFinder interface {
	FindActiveByStudent(ctx context.Context, studentID string) (*models.Internship, error)
}

// ComplianceServiceParams groups constructor dependencies.
type ComplianceServiceParams struct {
	Repo        complianceRepository
	Students    internshipStudentFinder
	Internships complianceInternshipFinder
	Audit       auditRecorder
	Snapshots   snapshotInvalidator
	Logger      *zap.Logger
}

// ComplianceService manages clinical document records and readiness
// reporting. Upserts are idempotent on (student, document type).
type ComplianceService struct {
	repo        complianceRepository
	students    internshipStudentFinder
	internships complianceInternshipFinder
	audit       auditRecorder
	snapshots   snapshotInvalidator
	logger      *zap.Logger
	now         func() time.Time
}

// NewComplianceService constructs a ComplianceService.
func NewComplianceService(params ComplianceServiceParams) *ComplianceService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ComplianceService{
		repo:        params.Repo,
		students:    params.Students,
		internships: params.Internships,
		audit:       params.Audit,
		snapshots:   params.Snapshots,
		logger:      logger,
		now:         time.Now,
	}
}

// Upsert records a document state change. Repeating the same payload is a
// no-op at the readiness level.
func (s *ComplianceService) Upsert(ctx context.Context, studentID string, req dto.UpsertComplianceRequest, actorID string) (*models.ComplianceRecord, error) {
	docType, ok := compliance.Parse(req.DocType)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown document type %q", req.DocType))
	}
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	record := &models.ComplianceRecord{
		StudentID: studentID,
		DocType:   string(docType),
		Completed: *req.Completed,
	}
	if req.ExpiresAt != nil {
		expires, err := parseDate(*req.ExpiresAt)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid expiration date")
		}
		record.ExpiresAt = expires
	}

	if err := s.repo.Upsert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save compliance record")
	}

	if s.audit != nil {
		log := &models.AuditLog{
			Action:     models.AuditActionComplianceUpdate,
			Resource:   "compliance",
			ResourceID: &record.ID,
		}
		if actorID != "" {
			log.UserID = &actorID
		}
		if raw, err := json.Marshal(record); err == nil {
			log.NewValues = raw
		}
		if err := s.audit.CreateAuditLog(ctx, log); err != nil {
			s.logger.Warn("failed to record compliance audit log", zap.Error(err))
		}
	}
	if s.snapshots != nil {
		s.snapshots.Invalidate(ctx)
	}
	return record, nil
}

// Status reports a student's document readiness rollup, including the
// clearance booleans of the active internship when one exists.
func (s *ComplianceService) Status(ctx context.Context, studentID string) (*dto.ComplianceStatusResponse, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance records")
	}

	var internship models.Internship
	active, err := s.internships.FindActiveByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}
	if active != nil {
		internship = *active
	}

	today := s.now().UTC()
	readiness := compliance.ComputeReadiness(records, internship, today)

	byType := make(map[string]models.ComplianceRecord, len(records))
	for _, rec := range records {
		byType[rec.DocType] = rec
	}

	resp := &dto.ComplianceStatusResponse{
		StudentID:     studentID,
		NREMTEligible: readiness.NREMTEligible,
	}
	for _, dt := range compliance.AllDocTypes() {
		req := compliance.Catalog[dt]
		status := dto.ComplianceDocStatus{
			DocType:  string(dt),
			Label:    req.Label,
			Required: req.Required,
		}
		if rec, ok := byType[string(dt)]; ok {
			status.Completed = rec.Completed
			status.Satisfied = compliance.Satisfied(rec, today)
			if rec.ExpiresAt != nil {
				formatted := rec.ExpiresAt.Format(dateLayout)
				status.ExpiresAt = &formatted
			}
		}
		resp.Documents = append(resp.Documents, status)
	}
	for _, doc := range readiness.MissingDocs {
		resp.MissingDocs = append(resp.MissingDocs, string(doc))
	}
	for _, doc := range readiness.ExpiringDocs {
		resp.ExpiringDocs = append(resp.ExpiringDocs, dto.ComplianceExpiringDoc{
			DocType:   string(doc.DocType),
			ExpiresAt: doc.ExpiresAt.Format(dateLayout),
			DaysLeft:  int(doc.ExpiresAt.Sub(today).Hours() / 24),
		})
	}
	if active != nil {
		resp.MissingClears = compliance.MissingClearances(internship)
	}
	return resp, nil
}

// Records returns the raw document rows for a student.
func (s *ComplianceService) Records(ctx context.Context, studentID string) ([]models.ComplianceRecord, error) {
	records, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance records")
	}
	return records, nil
}
