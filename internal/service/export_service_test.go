package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
)

func exportFixture() *ExportService {
	cohort := "Cohort 12"
	students := &fakeStudentLister{students: []models.StudentDetail{
		{
			Student:    models.Student{ID: "stu-1", FirstName: "Alex", LastName: "Rivera", Active: true},
			CohortName: &cohort,
		},
	}}
	internships := &fakeInternshipLister{internships: []models.InternshipDetail{
		{
			Internship: models.Internship{
				ID:              "int-1",
				StudentID:       "stu-1",
				AgencyName:      "AMR",
				CurrentPhase:    models.PhaseOneMentorship,
				BackgroundCheck: true,
				DrugScreen:      true,
			},
			StudentFirstName: "Alex",
			StudentLastName:  "Rivera",
		},
	}}
	docs := &fakeComplianceLister{byStudent: map[string][]models.ComplianceRecord{}}

	svc := NewExportService(ExportServiceParams{
		Students:    students,
		Internships: internships,
		Compliance:  docs,
		ProgramName: "PMI Las Vegas Paramedic Program",
	})
	svc.now = func() time.Time { return time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) }
	return svc
}

func TestComplianceRosterCSV(t *testing.T) {
	svc := exportFixture()

	result, err := svc.ComplianceRoster(context.Background(), FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "compliance-roster-2025-06-15.csv", result.Filename)
	assert.Equal(t, "text/csv", result.ContentType)

	body := string(result.Data)
	assert.Contains(t, body, "Student,Cohort,Agency,Phase")
	assert.Contains(t, body, "Alex Rivera")
	assert.Contains(t, body, "Cohort 12")
	assert.Contains(t, body, "AMR")
	assert.Contains(t, body, "immunization verification, liability form")
}

func TestComplianceRosterPDF(t *testing.T) {
	svc := exportFixture()

	result, err := svc.ComplianceRoster(context.Background(), FormatPDF)
	require.NoError(t, err)

	assert.Equal(t, "compliance-roster-2025-06-15.pdf", result.Filename)
	assert.Equal(t, "application/pdf", result.ContentType)
	assert.NotEmpty(t, result.Data)
}

func TestComplianceRosterRejectsUnknownFormat(t *testing.T) {
	svc := exportFixture()

	_, err := svc.ComplianceRoster(context.Background(), ExportFormat("xlsx"))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
