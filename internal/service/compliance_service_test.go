package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/compliance"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
)

type fakeComplianceRepo struct {
	records map[string][]models.ComplianceRecord
	upserts []*models.ComplianceRecord
}

func (f *fakeComplianceRepo) ListByStudent(_ context.Context, studentID string) ([]models.ComplianceRecord, error) {
	return f.records[studentID], nil
}

func (f *fakeComplianceRepo) Upsert(_ context.Context, record *models.ComplianceRecord) error {
	record.ID = "rec-1"
	f.upserts = append(f.upserts, record)
	return nil
}

type fakeActiveInternshipFinder struct {
	active map[string]*models.Internship
}

func (f *fakeActiveInternshipFinder) FindActiveByStudent(_ context.Context, studentID string) (*models.Internship, error) {
	return f.active[studentID], nil
}

func complianceFixture() (*ComplianceService, *fakeComplianceRepo, *fakeActiveInternshipFinder, *fakeAudit, *fakeInvalidator) {
	repo := &fakeComplianceRepo{records: map[string][]models.ComplianceRecord{}}
	internships := &fakeActiveInternshipFinder{active: map[string]*models.Internship{}}
	audit := &fakeAudit{}
	invalidator := &fakeInvalidator{}
	students := &fakeStudentFinder{students: map[string]*models.StudentDetail{
		"stu-1": {Student: models.Student{ID: "stu-1", FirstName: "Alex", LastName: "Rivera", Active: true}},
	}}
	svc := NewComplianceService(ComplianceServiceParams{
		Repo:        repo,
		Students:    students,
		Internships: internships,
		Audit:       audit,
		Snapshots:   invalidator,
	})
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }
	return svc, repo, internships, audit, invalidator
}

func boolPtr(v bool) *bool { return &v }

func strPtr(v string) *string { return &v }

func TestUpsertRejectsUnknownDocType(t *testing.T) {
	svc, repo, _, _, _ := complianceFixture()

	_, err := svc.Upsert(context.Background(), "stu-1", dto.UpsertComplianceRequest{
		DocType:   "polio",
		Completed: boolPtr(true),
	}, "usr-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.upserts)
}

func TestUpsertUnknownStudent(t *testing.T) {
	svc, _, _, _, _ := complianceFixture()

	_, err := svc.Upsert(context.Background(), "stu-missing", dto.UpsertComplianceRequest{
		DocType:   string(compliance.DocTBTest),
		Completed: boolPtr(true),
	}, "usr-1")

	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUpsertRecordsAuditAndInvalidatesSnapshot(t *testing.T) {
	svc, repo, _, audit, invalidator := complianceFixture()

	record, err := svc.Upsert(context.Background(), "stu-1", dto.UpsertComplianceRequest{
		DocType:   string(compliance.DocCPRCard),
		Completed: boolPtr(true),
		ExpiresAt: strPtr("2025-12-31"),
	}, "usr-1")

	require.NoError(t, err)
	assert.Equal(t, "rec-1", record.ID)
	assert.True(t, record.Completed)
	require.NotNil(t, record.ExpiresAt)
	assert.Equal(t, "2025-12-31", record.ExpiresAt.Format("2006-01-02"))

	require.Len(t, repo.upserts, 1)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionComplianceUpdate, audit.logs[0].Action)
	assert.Equal(t, 1, invalidator.calls)
}

func TestStatusReportsMissingAndExpiringDocs(t *testing.T) {
	svc, repo, _, _, _ := complianceFixture()
	expires := time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)
	for _, dt := range compliance.AllDocTypes() {
		rec := models.ComplianceRecord{StudentID: "stu-1", DocType: string(dt), Completed: true}
		if dt == compliance.DocTBTest {
			rec.ExpiresAt = &expires
		}
		if dt == compliance.DocHIPAATraining {
			rec.Completed = false
		}
		repo.records["stu-1"] = append(repo.records["stu-1"], rec)
	}

	status, err := svc.Status(context.Background(), "stu-1")
	require.NoError(t, err)

	assert.False(t, status.NREMTEligible)
	assert.Equal(t, []string{string(compliance.DocHIPAATraining)}, status.MissingDocs)
	require.Len(t, status.ExpiringDocs, 1)
	assert.Equal(t, string(compliance.DocTBTest), status.ExpiringDocs[0].DocType)
	assert.Equal(t, 10, status.ExpiringDocs[0].DaysLeft)
	assert.Len(t, status.Documents, len(compliance.AllDocTypes()))
	assert.Empty(t, status.MissingClears)
}

func TestStatusIncludesClearancesForActiveInternship(t *testing.T) {
	svc, _, internships, _, _ := complianceFixture()
	internships.active["stu-1"] = &models.Internship{
		ID:              "int-1",
		StudentID:       "stu-1",
		CurrentPhase:    models.PhasePreInternship,
		BackgroundCheck: true,
		DrugScreen:      true,
	}

	status, err := svc.Status(context.Background(), "stu-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"immunization verification", "liability form"}, status.MissingClears)
}
