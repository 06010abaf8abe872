package models

import "time"

// Phase represents a stage in the internship lifecycle.
type Phase string

// Lifecycle phases in forward order. Withdrawn is a terminal branch and
// extension is tracked orthogonally via IsExtended.
const (
	PhasePreInternship Phase = "pre_internship"
	PhaseOneMentorship Phase = "phase_1_mentorship"
	PhaseTwoEvaluation Phase = "phase_2_evaluation"
	PhaseCompleted     Phase = "completed"
	PhaseWithdrawn     Phase = "withdrawn"
)

// KnownPhases lists every valid phase value. Records holding anything else
// are treated as data-integrity errors rather than guessed at.
var KnownPhases = []Phase{
	PhasePreInternship,
	PhaseOneMentorship,
	PhaseTwoEvaluation,
	PhaseCompleted,
	PhaseWithdrawn,
}

// Valid reports whether the phase is part of the known enumeration.
func (p Phase) Valid() bool {
	for _, known := range KnownPhases {
		if p == known {
			return true
		}
	}
	return false
}

// Terminal reports whether no further lifecycle progress is possible.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseWithdrawn
}

// Internship is one placement lifecycle instance for a student. At most one
// non-withdrawn internship is active per student at a time.
type Internship struct {
	ID          string  `db:"id" json:"id"`
	StudentID   string  `db:"student_id" json:"student_id"`
	AgencyName  string  `db:"agency_name" json:"agency_name"`
	PreceptorID *string `db:"preceptor_id" json:"preceptor_id,omitempty"`

	CurrentPhase Phase `db:"current_phase" json:"current_phase"`
	IsExtended   bool  `db:"is_extended" json:"is_extended"`

	PlacementDate        *time.Time `db:"placement_date" json:"placement_date,omitempty"`
	OrientationDate      *time.Time `db:"orientation_date" json:"orientation_date,omitempty"`
	OrientationCompleted bool       `db:"orientation_completed" json:"orientation_completed"`

	Phase1StartDate     *time.Time `db:"phase_1_start_date" json:"phase_1_start_date,omitempty"`
	Phase1EndDate       *time.Time `db:"phase_1_end_date" json:"phase_1_end_date,omitempty"`
	Phase1EvalScheduled *time.Time `db:"phase_1_eval_scheduled" json:"phase_1_eval_scheduled,omitempty"`
	Phase1EvalCompleted bool       `db:"phase_1_eval_completed" json:"phase_1_eval_completed"`

	Phase2StartDate     *time.Time `db:"phase_2_start_date" json:"phase_2_start_date,omitempty"`
	Phase2EvalScheduled *time.Time `db:"phase_2_eval_scheduled" json:"phase_2_eval_scheduled,omitempty"`
	Phase2EvalCompleted bool       `db:"phase_2_eval_completed" json:"phase_2_eval_completed"`

	ExpectedEndDate *time.Time `db:"expected_end_date" json:"expected_end_date,omitempty"`
	ActualEndDate   *time.Time `db:"actual_end_date" json:"actual_end_date,omitempty"`

	ExtensionEvalDate      *time.Time `db:"extension_eval_date" json:"extension_eval_date,omitempty"`
	ExtensionEvalCompleted bool       `db:"extension_eval_completed" json:"extension_eval_completed"`

	// Clearance booleans recorded at the placement level.
	BackgroundCheck bool `db:"background_check" json:"background_check"`
	DrugScreen      bool `db:"drug_screen" json:"drug_screen"`
	Immunizations   bool `db:"immunizations" json:"immunizations"`
	LiabilityForm   bool `db:"liability_form" json:"liability_form"`
	CPRCurrent      bool `db:"cpr_current" json:"cpr_current"`
	UniformIssued   bool `db:"uniform_issued" json:"uniform_issued"`

	// Closeout: SNHD submissions are split into field documentation and
	// course completion paperwork, followed by a final meeting.
	SNHDFieldDocsSubmitted  *time.Time `db:"snhd_field_docs_submitted" json:"snhd_field_docs_submitted,omitempty"`
	SNHDCourseCompSubmitted *time.Time `db:"snhd_course_comp_submitted" json:"snhd_course_comp_submitted,omitempty"`
	CloseoutMeetingDate     *time.Time `db:"closeout_meeting_date" json:"closeout_meeting_date,omitempty"`
	CloseoutCompleted       bool       `db:"closeout_completed" json:"closeout_completed"`

	NREMTCleared   bool       `db:"nremt_cleared" json:"nremt_cleared"`
	NREMTClearedAt *time.Time `db:"nremt_cleared_at" json:"nremt_cleared_at,omitempty"`

	WithdrawnReason *string   `db:"withdrawn_reason" json:"withdrawn_reason,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// InternshipDetail enriches Internship with student identity for batch runs.
type InternshipDetail struct {
	Internship
	StudentFirstName string `db:"student_first_name" json:"student_first_name"`
	StudentLastName  string `db:"student_last_name" json:"student_last_name"`
}

// InternshipFilter provides filters for listing internships.
type InternshipFilter struct {
	StudentID string
	CohortID  string
	Phase     Phase
	Active    *bool
	Page      int
	PageSize  int
}
