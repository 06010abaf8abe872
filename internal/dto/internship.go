package dto

// PlaceInternshipRequest opens an internship placement for a student.
// Dates use the 2006-01-02 layout.
type PlaceInternshipRequest struct {
	StudentID       string  `json:"studentId" binding:"required"`
	AgencyName      string  `json:"agencyName" binding:"required"`
	PreceptorID     *string `json:"preceptorId"`
	PlacementDate   string  `json:"placementDate" binding:"required,datetime=2006-01-02"`
	OrientationDate string  `json:"orientationDate" binding:"omitempty,datetime=2006-01-02"`
	ExpectedEndDate string  `json:"expectedEndDate" binding:"omitempty,datetime=2006-01-02"`
}

// UpdateScheduleRequest adjusts milestone dates on an internship. Only
// provided fields are applied; empty strings clear nothing.
type UpdateScheduleRequest struct {
	AgencyName              *string `json:"agencyName"`
	PreceptorID             *string `json:"preceptorId"`
	OrientationDate         *string `json:"orientationDate" binding:"omitempty"`
	Phase1StartDate         *string `json:"phase1StartDate"`
	Phase1EndDate           *string `json:"phase1EndDate"`
	Phase1EvalScheduled     *string `json:"phase1EvalScheduled"`
	Phase2StartDate         *string `json:"phase2StartDate"`
	Phase2EvalScheduled     *string `json:"phase2EvalScheduled"`
	ExpectedEndDate         *string `json:"expectedEndDate"`
	CloseoutMeetingDate     *string `json:"closeoutMeetingDate"`
	SNHDFieldDocsSubmitted  *string `json:"snhdFieldDocsSubmitted"`
	SNHDCourseCompSubmitted *string `json:"snhdCourseCompSubmitted"`
}

// UpdatePhaseRequest moves an internship to a new lifecycle phase.
type UpdatePhaseRequest struct {
	Phase  string `json:"phase" binding:"required"`
	Reason string `json:"reason"`
}

// UpdateProgressRequest toggles milestone completion flags.
type UpdateProgressRequest struct {
	OrientationCompleted   *bool `json:"orientationCompleted"`
	Phase1EvalCompleted    *bool `json:"phase1EvalCompleted"`
	Phase2EvalCompleted    *bool `json:"phase2EvalCompleted"`
	ExtensionEvalCompleted *bool `json:"extensionEvalCompleted"`
	CloseoutCompleted      *bool `json:"closeoutCompleted"`
	NREMTCleared           *bool `json:"nremtCleared"`
}

// UpdateClearancesRequest toggles placement clearance flags.
type UpdateClearancesRequest struct {
	BackgroundCheck *bool `json:"backgroundCheck"`
	DrugScreen      *bool `json:"drugScreen"`
	Immunizations   *bool `json:"immunizations"`
	LiabilityForm   *bool `json:"liabilityForm"`
	CPRCurrent      *bool `json:"cprCurrent"`
	UniformIssued   *bool `json:"uniformIssued"`
}

// ExtensionRequest grants an internship extension with a mandatory
// follow-up evaluation date.
type ExtensionRequest struct {
	ExtensionEvalDate string `json:"extensionEvalDate" binding:"required,datetime=2006-01-02"`
	Reason            string `json:"reason"`
}

// WithdrawRequest closes an internship as withdrawn.
type WithdrawRequest struct {
	Reason string `json:"reason" binding:"required"`
}
