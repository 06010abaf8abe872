package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
)

// ComplianceRepository manages per-student document tracking rows.
type ComplianceRepository struct {
	db *sqlx.DB
}

// NewComplianceRepository constructs a ComplianceRepository.
func NewComplianceRepository(db *sqlx.DB) *ComplianceRepository {
	return &ComplianceRepository{db: db}
}

// ListByStudent returns every compliance row for one student.
func (r *ComplianceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.ComplianceRecord, error) {
	const query = `SELECT id, student_id, doc_type, completed, expires_at, created_at, updated_at
        FROM compliance_records WHERE student_id = $1 ORDER BY doc_type`
	var records []models.ComplianceRecord
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list compliance records: %w", err)
	}
	return records, nil
}

// ListAll returns all compliance rows grouped by student, the input of a
// batch alert run.
func (r *ComplianceRepository) ListAll(ctx context.Context) (map[string][]models.ComplianceRecord, error) {
	const query = `SELECT id, student_id, doc_type, completed, expires_at, created_at, updated_at
        FROM compliance_records ORDER BY student_id, doc_type`
	var records []models.ComplianceRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list all compliance records: %w", err)
	}
	byStudent := make(map[string][]models.ComplianceRecord)
	for _, rec := range records {
		byStudent[rec.StudentID] = append(byStudent[rec.StudentID], rec)
	}
	return byStudent, nil
}

// Upsert writes the completion state for one (student, doc type) pair. Rows
// are never deleted; toggling simply flips completed.
func (r *ComplianceRepository) Upsert(ctx context.Context, record *models.ComplianceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
	const query = `INSERT INTO compliance_records (id, student_id, doc_type, completed, expires_at, created_at, updated_at)
        VALUES (:id, :student_id, :doc_type, :completed, :expires_at, :created_at, :updated_at)
        ON CONFLICT (student_id, doc_type)
        DO UPDATE SET completed = EXCLUDED.completed, expires_at = EXCLUDED.expires_at, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("upsert compliance record: %w", err)
	}
	return nil
}
