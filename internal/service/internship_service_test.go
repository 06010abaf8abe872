package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
)

type fakeInternshipRepo struct {
	byID    map[string]*models.Internship
	active  map[string]*models.Internship
	created []*models.Internship
	updated []*models.Internship
}

func newFakeInternshipRepo() *fakeInternshipRepo {
	return &fakeInternshipRepo{byID: map[string]*models.Internship{}, active: map[string]*models.Internship{}}
}

func (f *fakeInternshipRepo) List(context.Context, models.InternshipFilter) ([]models.InternshipDetail, int, error) {
	return nil, 0, nil
}

func (f *fakeInternshipRepo) FindByID(_ context.Context, id string) (*models.Internship, error) {
	in, ok := f.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *in
	return &copied, nil
}

func (f *fakeInternshipRepo) FindActiveByStudent(_ context.Context, studentID string) (*models.Internship, error) {
	return f.active[studentID], nil
}

func (f *fakeInternshipRepo) Create(_ context.Context, in *models.Internship) error {
	if in.ID == "" {
		in.ID = "int-" + in.StudentID
	}
	f.created = append(f.created, in)
	stored := *in
	f.byID[in.ID] = &stored
	f.active[in.StudentID] = &stored
	return nil
}

func (f *fakeInternshipRepo) Update(_ context.Context, in *models.Internship) error {
	f.updated = append(f.updated, in)
	stored := *in
	f.byID[in.ID] = &stored
	return nil
}

type fakeStudentFinder struct {
	students map[string]*models.StudentDetail
}

func (f *fakeStudentFinder) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	student, ok := f.students[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return student, nil
}

type fakeComplianceByStudent struct {
	records map[string][]models.ComplianceRecord
}

func (f *fakeComplianceByStudent) ListByStudent(_ context.Context, studentID string) ([]models.ComplianceRecord, error) {
	return f.records[studentID], nil
}

type fakeAudit struct {
	logs []*models.AuditLog
}

func (f *fakeAudit) CreateAuditLog(_ context.Context, log *models.AuditLog) error {
	f.logs = append(f.logs, log)
	return nil
}

type fakeInvalidator struct {
	calls int
}

func (f *fakeInvalidator) Invalidate(context.Context) {
	f.calls++
}

func internshipFixture() (*InternshipService, *fakeInternshipRepo, *fakeAudit, *fakeInvalidator) {
	repo := newFakeInternshipRepo()
	audit := &fakeAudit{}
	invalidator := &fakeInvalidator{}
	students := &fakeStudentFinder{students: map[string]*models.StudentDetail{
		"stu-1": {Student: models.Student{ID: "stu-1", FirstName: "Alex", LastName: "Rivera", Active: true}},
	}}
	docs := &fakeComplianceByStudent{records: map[string][]models.ComplianceRecord{}}
	svc := NewInternshipService(InternshipServiceParams{
		Repo:       repo,
		Students:   students,
		Compliance: docs,
		Audit:      audit,
		Snapshots:  invalidator,
	})
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }
	return svc, repo, audit, invalidator
}

func TestPlaceRejectsSecondActiveInternship(t *testing.T) {
	svc, _, _, _ := internshipFixture()
	req := dto.PlaceInternshipRequest{StudentID: "stu-1", AgencyName: "AMR", PlacementDate: "2025-06-01"}

	first, err := svc.Place(context.Background(), req, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhasePreInternship, first.CurrentPhase)

	_, err = svc.Place(context.Background(), req, "usr-1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
}

func TestPlaceUnknownStudent(t *testing.T) {
	svc, _, _, _ := internshipFixture()
	_, err := svc.Place(context.Background(), dto.PlaceInternshipRequest{
		StudentID: "ghost", AgencyName: "AMR", PlacementDate: "2025-06-01",
	}, "usr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpdatePhaseRejectsSkippingPhases(t *testing.T) {
	svc, repo, _, _ := internshipFixture()
	repo.byID["int-1"] = &models.Internship{ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhasePreInternship}

	_, err := svc.UpdatePhase(context.Background(), "int-1", dto.UpdatePhaseRequest{Phase: string(models.PhaseTwoEvaluation)}, "usr-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUpdatePhaseBlocksEntryWithoutClearances(t *testing.T) {
	svc, repo, _, _ := internshipFixture()
	repo.byID["int-1"] = &models.Internship{
		ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhasePreInternship,
		OrientationCompleted: true,
	}

	_, err := svc.UpdatePhase(context.Background(), "int-1", dto.UpdatePhaseRequest{Phase: string(models.PhaseOneMentorship)}, "usr-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing clearances")
}

func TestUpdatePhaseAdvancesWhenRequirementsMet(t *testing.T) {
	svc, repo, audit, invalidator := internshipFixture()
	repo.byID["int-1"] = &models.Internship{
		ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhasePreInternship,
		OrientationCompleted: true,
		BackgroundCheck:      true, DrugScreen: true, Immunizations: true, LiabilityForm: true,
	}

	updated, err := svc.UpdatePhase(context.Background(), "int-1", dto.UpdatePhaseRequest{Phase: string(models.PhaseOneMentorship)}, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseOneMentorship, updated.CurrentPhase)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPhaseUpdate, audit.logs[0].Action)
	assert.Equal(t, 1, invalidator.calls)
}

func TestCompletionRequiresExitMilestones(t *testing.T) {
	svc, repo, _, _ := internshipFixture()
	repo.byID["int-1"] = &models.Internship{
		ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhaseTwoEvaluation,
		Phase2EvalCompleted: true,
	}

	_, err := svc.UpdatePhase(context.Background(), "int-1", dto.UpdatePhaseRequest{Phase: string(models.PhaseCompleted)}, "usr-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "NREMT")
}

func TestNREMTClearanceRequiresEligibility(t *testing.T) {
	svc, repo, _, _ := internshipFixture()
	repo.byID["int-1"] = &models.Internship{
		ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhaseTwoEvaluation,
	}

	cleared := true
	_, err := svc.UpdateProgress(context.Background(), "int-1", dto.UpdateProgressRequest{NREMTCleared: &cleared}, "usr-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not NREMT eligible")
}

func TestWithdrawSetsReasonAndEndDate(t *testing.T) {
	svc, repo, audit, _ := internshipFixture()
	repo.byID["int-1"] = &models.Internship{ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhaseOneMentorship}

	updated, err := svc.Withdraw(context.Background(), "int-1", dto.WithdrawRequest{Reason: "left the program"}, "usr-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseWithdrawn, updated.CurrentPhase)
	require.NotNil(t, updated.WithdrawnReason)
	assert.Equal(t, "left the program", *updated.WithdrawnReason)
	require.NotNil(t, updated.ActualEndDate)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionWithdraw, audit.logs[0].Action)

	_, err = svc.Withdraw(context.Background(), "int-1", dto.WithdrawRequest{Reason: "again"}, "usr-1")
	require.Error(t, err)
}

func TestRecordExtensionResetsEvalFlag(t *testing.T) {
	svc, repo, _, _ := internshipFixture()
	repo.byID["int-1"] = &models.Internship{
		ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhaseTwoEvaluation,
		ExtensionEvalCompleted: true,
	}

	updated, err := svc.RecordExtension(context.Background(), "int-1", dto.ExtensionRequest{ExtensionEvalDate: "2025-08-01"}, "usr-1")
	require.NoError(t, err)
	assert.True(t, updated.IsExtended)
	assert.False(t, updated.ExtensionEvalCompleted)
	require.NotNil(t, updated.ExtensionEvalDate)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), *updated.ExtensionEvalDate)
}
