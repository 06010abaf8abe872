package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
)

func studentDetailRows() *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "email", "program", "cohort_id", "active",
		"created_at", "updated_at", "cohort_name", "cohort_start",
	}).AddRow("stu-1", "Alex", "Rivera", "alex.rivera@example.com", "paramedic", "coh-1", true, now, now, "Spring 2025", now)
}

func TestStudentRepositoryListWithFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("(?s)SELECT .* FROM students s").
		WithArgs("coh-1").
		WillReturnRows(studentDetailRows())
	mock.ExpectQuery("SELECT COUNT\\(s.id\\) FROM students s").
		WithArgs("coh-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{
		CohortID: "coh-1",
		Page:     1,
		PageSize: 20,
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, students, 1)
	require.NotNil(t, students[0].CohortName)
	require.Equal(t, "Spring 2025", *students[0].CohortName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryListRejectsUnknownSortColumn(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery("(?s)SELECT .* ORDER BY s.last_name ASC").
		WillReturnRows(studentDetailRows())
	mock.ExpectQuery("SELECT COUNT\\(s.id\\) FROM students s").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.List(context.Background(), models.StudentFilter{
		SortBy: "drop table students", SortOrder: "asc", Page: 1, PageSize: 20,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryArchiveByCohort(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("UPDATE students SET active = false").
		WithArgs("coh-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	require.NoError(t, repo.ArchiveByCohort(context.Background(), "coh-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
