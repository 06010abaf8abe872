package models

import "time"

// ComplianceRecord tracks completion of one compliance document for a
// student. One row per (student, document type); rows are never deleted so
// updated_at doubles as the audit trail.
type ComplianceRecord struct {
	ID        string     `db:"id" json:"id"`
	StudentID string     `db:"student_id" json:"student_id"`
	DocType   string     `db:"doc_type" json:"doc_type"`
	Completed bool       `db:"completed" json:"completed"`
	ExpiresAt *time.Time `db:"expires_at" json:"expires_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}
