package overview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/alerts"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/compliance"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/phase"
)

var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time { return &t }

func student(id, first, last string) models.StudentDetail {
	return models.StudentDetail{Student: models.Student{ID: id, FirstName: first, LastName: last, Active: true}}
}

func fullCompliance(studentID string) []models.ComplianceRecord {
	var records []models.ComplianceRecord
	for _, dt := range compliance.AllDocTypes() {
		records = append(records, models.ComplianceRecord{StudentID: studentID, DocType: string(dt), Completed: true})
	}
	return records
}

func TestBuildNoPlacementDateIsNotStarted(t *testing.T) {
	students := []models.StudentDetail{student("stu-1", "Alex", "Rivera")}
	internships := []models.InternshipDetail{{
		Internship: models.Internship{ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhasePreInternship},
	}}

	rows := Build(students, internships, nil, alerts.Feed{}, today)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusNotStarted, rows[0].ClinicalStatus)
	assert.Equal(t, string(phase.StatusNotStarted), rows[0].Status)
}

func TestBuildPhaseMapping(t *testing.T) {
	cases := []struct {
		phase models.Phase
		want  ClinicalStatus
	}{
		{models.PhasePreInternship, StatusPreparing},
		{models.PhaseOneMentorship, StatusActiveInternship},
		{models.PhaseTwoEvaluation, StatusActiveInternship},
		{models.PhaseCompleted, StatusCompleted},
	}

	for _, tc := range cases {
		students := []models.StudentDetail{student("stu-1", "Alex", "Rivera")}
		internships := []models.InternshipDetail{{
			Internship: models.Internship{
				ID:            "int-1",
				StudentID:     "stu-1",
				CurrentPhase:  tc.phase,
				PlacementDate: datePtr(today.AddDate(0, -1, 0)),
			},
		}}

		rows := Build(students, internships, nil, alerts.Feed{}, today)
		require.Len(t, rows, 1)
		assert.Equal(t, tc.want, rows[0].ClinicalStatus, "phase %s", tc.phase)
	}
}

func TestBuildUnknownPhaseDegradesSingleRow(t *testing.T) {
	students := []models.StudentDetail{
		student("stu-1", "Alex", "Rivera"),
		student("stu-2", "Blake", "Chen"),
	}
	internships := []models.InternshipDetail{
		{Internship: models.Internship{ID: "int-1", StudentID: "stu-1", CurrentPhase: models.Phase("mystery"), PlacementDate: datePtr(today)}},
		{Internship: models.Internship{ID: "int-2", StudentID: "stu-2", CurrentPhase: models.PhaseOneMentorship, PlacementDate: datePtr(today)}},
	}

	rows := Build(students, internships, nil, alerts.Feed{}, today)
	require.Len(t, rows, 2)

	byID := map[string]Row{}
	for _, row := range rows {
		byID[row.StudentID] = row
	}
	assert.Equal(t, "unknown", byID["stu-1"].Status)
	assert.True(t, byID["stu-1"].NeedsReview)
	assert.Equal(t, StatusActiveInternship, byID["stu-2"].ClinicalStatus, "one bad record never blanks its neighbors")
}

func TestBuildStudentWithoutInternshipButTrackedIsActiveClinicals(t *testing.T) {
	students := []models.StudentDetail{student("stu-1", "Alex", "Rivera")}
	state := map[string][]models.ComplianceRecord{"stu-1": fullCompliance("stu-1")}

	rows := Build(students, nil, state, alerts.Feed{}, today)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusActiveClinicals, rows[0].ClinicalStatus)
}

func TestBuildFlattensNextDue(t *testing.T) {
	due := today.AddDate(0, 0, 5)
	students := []models.StudentDetail{student("stu-1", "Alex", "Rivera")}
	internships := []models.InternshipDetail{{
		Internship: models.Internship{
			ID:                  "int-1",
			StudentID:           "stu-1",
			CurrentPhase:        models.PhaseOneMentorship,
			PlacementDate:       datePtr(today.AddDate(0, -1, 0)),
			Phase1EvalScheduled: &due,
		},
	}}

	rows := Build(students, internships, nil, alerts.Feed{}, today)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].NextDueDate)
	assert.Equal(t, due, *rows[0].NextDueDate)
	assert.Equal(t, phase.MilestonePhase1Eval, rows[0].NextDueType)
}

func TestBuildAlertCountsPerStudent(t *testing.T) {
	students := []models.StudentDetail{student("stu-1", "Alex", "Rivera")}
	feed := alerts.Feed{
		Critical: []alerts.Alert{{StudentID: "stu-1", Type: alerts.TypeOverdueMilestone}},
		Warning: []alerts.Alert{
			{StudentID: "stu-1", Type: alerts.TypeMissingDocument},
			{StudentID: "stu-other", Type: alerts.TypeMissingDocument},
		},
	}

	rows := Build(students, nil, nil, feed, today)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].CriticalCount)
	assert.Equal(t, 1, rows[0].WarningCount)
}

func TestBuildOrdersByLastName(t *testing.T) {
	students := []models.StudentDetail{
		student("stu-1", "Alex", "Zimmer"),
		student("stu-2", "Blake", "Abbott"),
		student("stu-3", "Casey", "Chen"),
	}

	rows := Build(students, nil, nil, alerts.Feed{}, today)
	require.Len(t, rows, 3)
	assert.Equal(t, "stu-2", rows[0].StudentID)
	assert.Equal(t, "stu-3", rows[1].StudentID)
	assert.Equal(t, "stu-1", rows[2].StudentID)
}

func TestBuildWithdrawnInternshipDoesNotShadowRow(t *testing.T) {
	students := []models.StudentDetail{student("stu-1", "Alex", "Rivera")}
	internships := []models.InternshipDetail{{
		Internship: models.Internship{ID: "int-1", StudentID: "stu-1", CurrentPhase: models.PhaseWithdrawn},
	}}

	rows := Build(students, internships, nil, alerts.Feed{}, today)
	require.Len(t, rows, 1)
	assert.Equal(t, StatusNotStarted, rows[0].ClinicalStatus)
}
