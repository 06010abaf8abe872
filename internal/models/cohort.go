package models

import "time"

// Cohort groups students admitted into the program together.
type Cohort struct {
	ID          string     `db:"id" json:"id"`
	Name        string     `db:"name" json:"name"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	Archived    bool       `db:"archived" json:"archived"`
	ArchivedAt  *time.Time `db:"archived_at" json:"archived_at,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	StudentsNum int        `db:"students_num" json:"students_num"`
}

// CohortFilter provides filters for listing cohorts.
type CohortFilter struct {
	Archived *bool
	Search   string
	Page     int
	PageSize int
}
