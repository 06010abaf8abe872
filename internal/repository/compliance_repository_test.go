package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
)

func TestComplianceRepositoryListAllGroupsByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplianceRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "student_id", "doc_type", "completed", "expires_at", "created_at", "updated_at"}).
		AddRow("cr-1", "stu-1", "mmr", true, nil, now, now).
		AddRow("cr-2", "stu-1", "tb_test", true, now.AddDate(0, 6, 0), now, now).
		AddRow("cr-3", "stu-2", "cpr_card", false, nil, now, now)

	mock.ExpectQuery("(?s)SELECT .* FROM compliance_records ORDER BY student_id, doc_type").
		WillReturnRows(rows)

	byStudent, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, byStudent, 2)
	require.Len(t, byStudent["stu-1"], 2)
	require.Len(t, byStudent["stu-2"], 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestComplianceRepositoryUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewComplianceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO compliance_records")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	record := &models.ComplianceRecord{StudentID: "stu-1", DocType: "hep_b", Completed: true}
	require.NoError(t, repo.Upsert(context.Background(), record))
	require.NotEmpty(t, record.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
