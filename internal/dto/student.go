package dto

// CreateStudentRequest enrols a student in the program.
type CreateStudentRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Program   string `json:"program" binding:"required"`
	CohortID  string `json:"cohortId"`
}

// UpdateStudentRequest modifies an existing student record.
type UpdateStudentRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Program   *string `json:"program"`
	CohortID  *string `json:"cohortId"`
	Active    *bool   `json:"active"`
}

// CreateCohortRequest opens a new cohort. Dates use the 2006-01-02 layout.
type CreateCohortRequest struct {
	Name      string `json:"name" binding:"required"`
	StartDate string `json:"startDate" binding:"required,datetime=2006-01-02"`
	EndDate   string `json:"endDate" binding:"omitempty,datetime=2006-01-02"`
}
