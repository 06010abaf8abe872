package models

import "time"

// Student represents a learner enrolled in the paramedic program.
type Student struct {
	ID        string    `db:"id" json:"id"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	Email     string    `db:"email" json:"email"`
	Program   string    `db:"program" json:"program"`
	CohortID  *string   `db:"cohort_id" json:"cohort_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// FullName returns the display name used in alerts and exports.
func (s Student) FullName() string {
	if s.FirstName == "" {
		return s.LastName
	}
	return s.FirstName + " " + s.LastName
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	CohortID  string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// StudentDetail contains student information with cohort context.
type StudentDetail struct {
	Student
	CohortName  *string    `db:"cohort_name" json:"cohort_name,omitempty"`
	CohortStart *time.Time `db:"cohort_start" json:"cohort_start,omitempty"`
}
