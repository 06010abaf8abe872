package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func internshipRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "student_id", "agency_name", "preceptor_id", "current_phase", "is_extended",
		"placement_date", "orientation_date", "orientation_completed",
		"phase_1_start_date", "phase_1_end_date", "phase_1_eval_scheduled", "phase_1_eval_completed",
		"phase_2_start_date", "phase_2_eval_scheduled", "phase_2_eval_completed",
		"expected_end_date", "actual_end_date", "extension_eval_date", "extension_eval_completed",
		"background_check", "drug_screen", "immunizations", "liability_form", "cpr_current", "uniform_issued",
		"snhd_field_docs_submitted", "snhd_course_comp_submitted", "closeout_meeting_date", "closeout_completed",
		"nremt_cleared", "nremt_cleared_at", "withdrawn_reason", "created_at", "updated_at",
		"student_first_name", "student_last_name",
	}).AddRow(
		"int-1", "stu-1", "AMR Las Vegas", nil, string(models.PhaseOneMentorship), false,
		now, now, true,
		now, nil, now, false,
		nil, nil, false,
		now, nil, nil, false,
		true, true, true, true, true, false,
		nil, nil, nil, false,
		false, nil, nil, now, now,
		"Alex", "Rivera",
	)
}

func TestInternshipRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInternshipRepository(db)

	mock.ExpectQuery("(?s)SELECT .* FROM student_internships i").
		WithArgs(models.PhaseCompleted, models.PhaseWithdrawn).
		WillReturnRows(internshipRows())

	internships, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, internships, 1)
	require.Equal(t, "Rivera", internships[0].StudentLastName)
	require.Equal(t, models.PhaseOneMentorship, internships[0].CurrentPhase)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInternshipRepositoryFindActiveByStudentNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInternshipRepository(db)

	mock.ExpectQuery("(?s)SELECT .* FROM student_internships i").
		WithArgs("stu-1", models.PhaseCompleted, models.PhaseWithdrawn).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	internship, err := repo.FindActiveByStudent(context.Background(), "stu-1")
	require.NoError(t, err)
	require.Nil(t, internship)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInternshipRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewInternshipRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO student_internships")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	internship := &models.Internship{StudentID: "stu-1", AgencyName: "AMR", CurrentPhase: models.PhasePreInternship}
	require.NoError(t, repo.Create(context.Background(), internship))
	require.NotEmpty(t, internship.ID)
	require.False(t, internship.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
