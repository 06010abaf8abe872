package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/compliance"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
)

const dateLayout = "2006-01-02"

type internshipRepository interface {
	List(ctx context.Context, filter models.InternshipFilter) ([]models.InternshipDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Internship, error)
	FindActiveByStudent(ctx context.Context, studentID string) (*models.Internship, error)
	Create(ctx context.Context, internship *models.Internship) error
	Update(ctx context.Context, internship *models.Internship) error
}

type internshipStudentFinder interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type internshipComplianceLister interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.ComplianceRecord, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// snapshotInvalidator drops derived dashboard caches after lifecycle writes.
type snapshotInvalidator interface {
	Invalidate(ctx context.Context)
}

// allowedTransitions is the forward path of the lifecycle plus the
// withdrawal branch. Anything else is rejected.
var allowedTransitions = map[models.Phase][]models.Phase{
	models.PhasePreInternship: {models.PhaseOneMentorship, models.PhaseWithdrawn},
	models.PhaseOneMentorship: {models.PhaseTwoEvaluation, models.PhaseWithdrawn},
	models.PhaseTwoEvaluation: {models.PhaseCompleted, models.PhaseWithdrawn},
}

// InternshipServiceParams groups constructor dependencies.
type InternshipServiceParams struct {
	Repo       internshipRepository
	Students   internshipStudentFinder
	Compliance internshipComplianceLister
	Audit      auditRecorder
	Snapshots  snapshotInvalidator
	Logger     *zap.Logger
}

// InternshipService owns internship lifecycle writes: placement, milestone
// scheduling, phase transitions, clearances, extensions and withdrawal.
type InternshipService struct {
	repo       internshipRepository
	students   internshipStudentFinder
	compliance internshipComplianceLister
	audit      auditRecorder
	snapshots  snapshotInvalidator
	logger     *zap.Logger
	now        func() time.Time
}

// NewInternshipService constructs an InternshipService.
func NewInternshipService(params InternshipServiceParams) *InternshipService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InternshipService{
		repo:       params.Repo,
		students:   params.Students,
		compliance: params.Compliance,
		audit:      params.Audit,
		snapshots:  params.Snapshots,
		logger:     logger,
		now:        time.Now,
	}
}

// List returns internships matching the filter with pagination metadata.
func (s *InternshipService) List(ctx context.Context, filter models.InternshipFilter) ([]models.InternshipDetail, int, error) {
	internships, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list internships")
	}
	return internships, total, nil
}

// Get fetches a single internship by ID.
func (s *InternshipService) Get(ctx context.Context, id string) (*models.Internship, error) {
	internship, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "internship not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internship")
	}
	return internship, nil
}

// Place opens a new internship in the pre-internship phase. A student may
// hold at most one non-terminal internship at a time.
func (s *InternshipService) Place(ctx context.Context, req dto.PlaceInternshipRequest, actorID string) (*models.Internship, error) {
	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if !student.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot place an inactive student")
	}

	existing, err := s.repo.FindActiveByStudent(ctx, req.StudentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active internships")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has an active internship")
	}

	placement, err := parseDate(req.PlacementDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid placement date")
	}

	internship := &models.Internship{
		StudentID:     req.StudentID,
		AgencyName:    req.AgencyName,
		PreceptorID:   req.PreceptorID,
		CurrentPhase:  models.PhasePreInternship,
		PlacementDate: placement,
	}
	if internship.OrientationDate, err = parseOptionalDate(req.OrientationDate); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid orientation date")
	}
	if internship.ExpectedEndDate, err = parseOptionalDate(req.ExpectedEndDate); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid expected end date")
	}

	if err := s.repo.Create(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create internship")
	}

	s.recordAudit(ctx, actorID, models.AuditActionInternshipCreate, internship.ID, nil, internship)
	s.invalidate(ctx)
	return internship, nil
}

// UpdateSchedule applies milestone date changes. Fields not present in the
// request remain untouched.
func (s *InternshipService) UpdateSchedule(ctx context.Context, id string, req dto.UpdateScheduleRequest, actorID string) (*models.Internship, error) {
	internship, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if internship.CurrentPhase.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot reschedule a closed internship")
	}
	before := *internship

	if req.AgencyName != nil {
		internship.AgencyName = *req.AgencyName
	}
	if req.PreceptorID != nil {
		internship.PreceptorID = req.PreceptorID
	}
	dateFields := []struct {
		raw  *string
		dest **time.Time
		name string
	}{
		{req.OrientationDate, &internship.OrientationDate, "orientationDate"},
		{req.Phase1StartDate, &internship.Phase1StartDate, "phase1StartDate"},
		{req.Phase1EndDate, &internship.Phase1EndDate, "phase1EndDate"},
		{req.Phase1EvalScheduled, &internship.Phase1EvalScheduled, "phase1EvalScheduled"},
		{req.Phase2StartDate, &internship.Phase2StartDate, "phase2StartDate"},
		{req.Phase2EvalScheduled, &internship.Phase2EvalScheduled, "phase2EvalScheduled"},
		{req.ExpectedEndDate, &internship.ExpectedEndDate, "expectedEndDate"},
		{req.CloseoutMeetingDate, &internship.CloseoutMeetingDate, "closeoutMeetingDate"},
		{req.SNHDFieldDocsSubmitted, &internship.SNHDFieldDocsSubmitted, "snhdFieldDocsSubmitted"},
		{req.SNHDCourseCompSubmitted, &internship.SNHDCourseCompSubmitted, "snhdCourseCompSubmitted"},
	}
	for _, field := range dateFields {
		if field.raw == nil {
			continue
		}
		parsed, err := parseOptionalDate(*field.raw)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid %s", field.name))
		}
		*field.dest = parsed
	}

	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update internship")
	}
	s.recordAudit(ctx, actorID, models.AuditActionInternshipCreate, internship.ID, &before, internship)
	s.invalidate(ctx)
	return internship, nil
}

// UpdatePhase moves the internship along the lifecycle. Transitions are
// validated against the forward path; completing requires the exit
// milestones of phase 2 to be satisfied.
func (s *InternshipService) UpdatePhase(ctx context.Context, id string, req dto.UpdatePhaseRequest, actorID string) (*models.Internship, error) {
	target := models.Phase(req.Phase)
	if !target.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown phase %q", req.Phase))
	}

	internship, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := *internship

	if !transitionAllowed(internship.CurrentPhase, target) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("cannot move from %s to %s", internship.CurrentPhase, target))
	}
	if blockers := s.transitionBlockers(ctx, internship, target); len(blockers) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("cannot enter %s: %s", target, strings.Join(blockers, "; ")))
	}

	internship.CurrentPhase = target
	if target == models.PhaseWithdrawn {
		reason := req.Reason
		internship.WithdrawnReason = &reason
	}
	if target.Terminal() && internship.ActualEndDate == nil {
		endDate := s.now().UTC()
		internship.ActualEndDate = &endDate
	}

	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update phase")
	}
	s.recordAudit(ctx, actorID, models.AuditActionPhaseUpdate, internship.ID, &before, internship)
	s.invalidate(ctx)
	return internship, nil
}

// UpdateProgress toggles milestone completion flags. Marking NREMT cleared
// demands document readiness; the denial message names the gaps.
func (s *InternshipService) UpdateProgress(ctx context.Context, id string, req dto.UpdateProgressRequest, actorID string) (*models.Internship, error) {
	internship, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if internship.CurrentPhase.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot update a closed internship")
	}
	before := *internship

	applyBool(req.OrientationCompleted, &internship.OrientationCompleted)
	applyBool(req.Phase1EvalCompleted, &internship.Phase1EvalCompleted)
	applyBool(req.Phase2EvalCompleted, &internship.Phase2EvalCompleted)
	applyBool(req.ExtensionEvalCompleted, &internship.ExtensionEvalCompleted)
	applyBool(req.CloseoutCompleted, &internship.CloseoutCompleted)

	if req.NREMTCleared != nil {
		if *req.NREMTCleared && !internship.NREMTCleared {
			readiness, err := s.readiness(ctx, internship)
			if err != nil {
				return nil, err
			}
			if !readiness.NREMTEligible {
				return nil, appErrors.Clone(appErrors.ErrValidation,
					fmt.Sprintf("student is not NREMT eligible: %s", readinessGaps(readiness, *internship)))
			}
			clearedAt := s.now().UTC()
			internship.NREMTClearedAt = &clearedAt
		}
		if !*req.NREMTCleared {
			internship.NREMTClearedAt = nil
		}
		internship.NREMTCleared = *req.NREMTCleared
	}

	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update progress")
	}
	s.recordAudit(ctx, actorID, models.AuditActionPhaseUpdate, internship.ID, &before, internship)
	s.invalidate(ctx)
	return internship, nil
}

// UpdateClearances toggles placement clearance flags.
func (s *InternshipService) UpdateClearances(ctx context.Context, id string, req dto.UpdateClearancesRequest, actorID string) (*models.Internship, error) {
	internship, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if internship.CurrentPhase.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot update a closed internship")
	}
	before := *internship

	applyBool(req.BackgroundCheck, &internship.BackgroundCheck)
	applyBool(req.DrugScreen, &internship.DrugScreen)
	applyBool(req.Immunizations, &internship.Immunizations)
	applyBool(req.LiabilityForm, &internship.LiabilityForm)
	applyBool(req.CPRCurrent, &internship.CPRCurrent)
	applyBool(req.UniformIssued, &internship.UniformIssued)

	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update clearances")
	}
	s.recordAudit(ctx, actorID, models.AuditActionClearanceUpdate, internship.ID, &before, internship)
	s.invalidate(ctx)
	return internship, nil
}

// RecordExtension grants an extension. The extension evaluation date takes
// over from the expected end date as the deadline driving alerts.
func (s *InternshipService) RecordExtension(ctx context.Context, id string, req dto.ExtensionRequest, actorID string) (*models.Internship, error) {
	internship, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if internship.CurrentPhase.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot extend a closed internship")
	}
	before := *internship

	evalDate, err := parseDate(req.ExtensionEvalDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid extension evaluation date")
	}
	internship.IsExtended = true
	internship.ExtensionEvalDate = evalDate
	internship.ExtensionEvalCompleted = false

	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record extension")
	}
	s.recordAudit(ctx, actorID, models.AuditActionExtension, internship.ID, &before, internship)
	s.invalidate(ctx)
	return internship, nil
}

// Withdraw closes the internship on the withdrawal branch.
func (s *InternshipService) Withdraw(ctx context.Context, id string, req dto.WithdrawRequest, actorID string) (*models.Internship, error) {
	internship, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if internship.CurrentPhase.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "internship is already closed")
	}
	before := *internship

	internship.CurrentPhase = models.PhaseWithdrawn
	reason := req.Reason
	internship.WithdrawnReason = &reason
	endDate := s.now().UTC()
	internship.ActualEndDate = &endDate

	if err := s.repo.Update(ctx, internship); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to withdraw internship")
	}
	s.recordAudit(ctx, actorID, models.AuditActionWithdraw, internship.ID, &before, internship)
	s.invalidate(ctx)
	return internship, nil
}

// transitionBlockers names the unmet requirements for entering the target
// phase, empty when the move is clean.
func (s *InternshipService) transitionBlockers(ctx context.Context, in *models.Internship, target models.Phase) []string {
	var blockers []string
	switch target {
	case models.PhaseOneMentorship:
		if !in.OrientationCompleted {
			blockers = append(blockers, "orientation not completed")
		}
		if missing := compliance.MissingClearances(*in); len(missing) > 0 {
			blockers = append(blockers, "missing clearances: "+strings.Join(missing, ", "))
		}
	case models.PhaseTwoEvaluation:
		if !in.Phase1EvalCompleted {
			blockers = append(blockers, "phase 1 evaluation not completed")
		}
	case models.PhaseCompleted:
		if !in.Phase2EvalCompleted {
			blockers = append(blockers, "phase 2 evaluation not completed")
		}
		if !in.CloseoutCompleted {
			blockers = append(blockers, "closeout meeting not completed")
		}
		if in.SNHDFieldDocsSubmitted == nil || in.SNHDCourseCompSubmitted == nil {
			blockers = append(blockers, "SNHD submissions outstanding")
		}
		if !in.NREMTCleared {
			blockers = append(blockers, "NREMT clearance not recorded")
		}
		if in.IsExtended && !in.ExtensionEvalCompleted {
			blockers = append(blockers, "extension evaluation outstanding")
		}
	}
	return blockers
}

func (s *InternshipService) readiness(ctx context.Context, in *models.Internship) (compliance.Readiness, error) {
	records, err := s.compliance.ListByStudent(ctx, in.StudentID)
	if err != nil {
		return compliance.Readiness{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance records")
	}
	return compliance.ComputeReadiness(records, *in, s.now().UTC()), nil
}

func (s *InternshipService) recordAudit(ctx context.Context, actorID, action, resourceID string, before, after *models.Internship) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "internship",
		ResourceID: &resourceID,
	}
	if actorID != "" {
		log.UserID = &actorID
	}
	if before != nil {
		if raw, err := json.Marshal(before); err == nil {
			log.OldValues = raw
		}
	}
	if after != nil {
		if raw, err := json.Marshal(after); err == nil {
			log.NewValues = raw
		}
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *InternshipService) invalidate(ctx context.Context) {
	if s.snapshots != nil {
		s.snapshots.Invalidate(ctx)
	}
}

func transitionAllowed(from, to models.Phase) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func readinessGaps(r compliance.Readiness, in models.Internship) string {
	var parts []string
	if len(r.MissingDocs) > 0 {
		labels := make([]string, 0, len(r.MissingDocs))
		for _, doc := range r.MissingDocs {
			labels = append(labels, string(doc))
		}
		parts = append(parts, "missing documents: "+strings.Join(labels, ", "))
	}
	if missing := compliance.MissingClearances(in); len(missing) > 0 {
		parts = append(parts, "missing clearances: "+strings.Join(missing, ", "))
	}
	if len(parts) == 0 {
		return "expired documents on file"
	}
	return strings.Join(parts, "; ")
}

func applyBool(src *bool, dest *bool) {
	if src != nil {
		*dest = *src
	}
}

func parseDate(raw string) (*time.Time, error) {
	parsed, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	parsed = parsed.UTC()
	return &parsed, nil
}

func parseOptionalDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	return parseDate(raw)
}
