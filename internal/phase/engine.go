// Package phase derives lifecycle state for student internships. Everything
// here is pure: functions take a record snapshot and a reference date and
// return derived state without touching storage.
package phase

import (
	"fmt"
	"time"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
)

// Milestone identifies a gated step in the internship lifecycle.
type Milestone string

// Milestones in canonical lifecycle order. The order doubles as the
// tie-breaker when two unmet milestones share a due date.
const (
	MilestoneOrientation     Milestone = "orientation"
	MilestonePhase1Eval      Milestone = "phase_1_eval"
	MilestonePhase2Eval      Milestone = "phase_2_eval"
	MilestoneCloseoutMeeting Milestone = "closeout_meeting"
	MilestoneSNHDSubmission  Milestone = "snhd_submission"
	MilestoneNREMTClearance  Milestone = "nremt_clearance"
)

var milestoneRank = map[Milestone]int{
	MilestoneOrientation:     0,
	MilestonePhase1Eval:      1,
	MilestonePhase2Eval:      2,
	MilestoneCloseoutMeeting: 3,
	MilestoneSNHDSubmission:  4,
	MilestoneNREMTClearance:  5,
}

// Label returns the human description used in alert messages.
func (m Milestone) Label() string {
	switch m {
	case MilestoneOrientation:
		return "agency orientation"
	case MilestonePhase1Eval:
		return "phase 1 evaluation"
	case MilestonePhase2Eval:
		return "phase 2 evaluation"
	case MilestoneCloseoutMeeting:
		return "closeout meeting"
	case MilestoneSNHDSubmission:
		return "SNHD document submission"
	case MilestoneNREMTClearance:
		return "NREMT clearance"
	default:
		return string(m)
	}
}

// Status summarises where an internship stands relative to its plan.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusOnTrack    Status = "on_track"
	StatusAtRisk     Status = "at_risk"
	StatusExtended   Status = "extended"
	StatusCompleted  Status = "completed"
	StatusWithdrawn  Status = "withdrawn"
)

// Due is one unmet milestone with its scheduled date.
type Due struct {
	Type        Milestone `json:"type"`
	Date        time.Time `json:"date"`
	Overdue     bool      `json:"overdue"`
	DaysOverdue int       `json:"days_overdue"`
}

// Before reports whether d ranks ahead of other: overdue items always come
// first regardless of date, then ascending date, then canonical milestone
// order.
func (d Due) Before(other Due) bool {
	if d.Overdue != other.Overdue {
		return d.Overdue
	}
	if !d.Date.Equal(other.Date) {
		return d.Date.Before(other.Date)
	}
	return milestoneRank[d.Type] < milestoneRank[other.Type]
}

// State is the derived lifecycle view of a single internship.
type State struct {
	Phase      models.Phase `json:"phase"`
	Status     Status       `json:"status"`
	NextDue    *Due         `json:"next_due,omitempty"`
	Blocking   []Due        `json:"blocking,omitempty"`
	Upcoming   []Due        `json:"upcoming,omitempty"`
	DataIssues []string     `json:"data_issues,omitempty"`
}

// Derive computes the lifecycle state of one internship as of today.
// nremtEligible comes from the compliance aggregator and gates the NREMT
// milestone. A phase value outside the known enumeration is reported as a
// data-integrity error; missing optional dates never are.
func Derive(in models.Internship, nremtEligible bool, today time.Time) (State, error) {
	if !in.CurrentPhase.Valid() {
		return State{}, appErrors.Wrap(
			fmt.Errorf("unknown phase %q on internship %s", in.CurrentPhase, in.ID),
			appErrors.ErrDataIntegrity.Code, appErrors.ErrDataIntegrity.Status,
			"internship phase outside known enumeration",
		)
	}

	today = truncateDay(today)
	st := State{Phase: in.CurrentPhase}
	st.DataIssues = dataIssues(in)

	dues := unmetMilestones(in, nremtEligible, today)
	for _, d := range dues {
		if d.Overdue {
			st.Blocking = append(st.Blocking, d)
		} else {
			st.Upcoming = append(st.Upcoming, d)
		}
	}
	if len(dues) > 0 {
		next := dues[0]
		for _, d := range dues[1:] {
			if d.Before(next) {
				next = d
			}
		}
		st.NextDue = &next
	}

	switch {
	case in.CurrentPhase == models.PhaseCompleted:
		st.Status = StatusCompleted
	case in.CurrentPhase == models.PhaseWithdrawn:
		st.Status = StatusWithdrawn
	case in.PlacementDate == nil:
		st.Status = StatusNotStarted
	case in.IsExtended && !in.ExtensionEvalCompleted:
		st.Status = StatusExtended
	case len(st.Blocking) > 0:
		st.Status = StatusAtRisk
	default:
		st.Status = StatusOnTrack
	}

	return st, nil
}

// unmetMilestones collects every scheduled-but-incomplete milestone. A nil
// date means the milestone is not yet planned, which is never a lateness
// violation; dataIssues flags the gaps worth reviewing.
func unmetMilestones(in models.Internship, nremtEligible bool, today time.Time) []Due {
	if in.CurrentPhase.Terminal() {
		return nil
	}

	endDate := in.ExpectedEndDate
	if in.IsExtended && in.ExtensionEvalDate != nil {
		endDate = in.ExtensionEvalDate
	}

	type candidate struct {
		milestone Milestone
		date      *time.Time
		done      bool
	}
	candidates := []candidate{
		{MilestoneOrientation, in.OrientationDate, in.OrientationCompleted},
		{MilestonePhase1Eval, in.Phase1EvalScheduled, in.Phase1EvalCompleted},
		{MilestonePhase2Eval, in.Phase2EvalScheduled, in.Phase2EvalCompleted},
		{MilestoneCloseoutMeeting, in.CloseoutMeetingDate, in.CloseoutCompleted},
		{MilestoneSNHDSubmission, endDate, in.SNHDFieldDocsSubmitted != nil && in.SNHDCourseCompSubmitted != nil},
	}
	// The NREMT milestone only becomes actionable once compliance has
	// cleared the student; until then the gap is a compliance alert, not a
	// schedule risk.
	if in.CurrentPhase == models.PhaseTwoEvaluation && nremtEligible {
		candidates = append(candidates, candidate{MilestoneNREMTClearance, endDate, in.NREMTCleared})
	}

	var dues []Due
	for _, c := range candidates {
		if c.done || c.date == nil {
			continue
		}
		date := truncateDay(*c.date)
		d := Due{Type: c.milestone, Date: date}
		if date.Before(today) {
			d.Overdue = true
			d.DaysOverdue = int(today.Sub(date).Hours() / 24)
		}
		dues = append(dues, d)
	}
	return dues
}

// dataIssues reports inconsistencies worth human review without treating
// them as lateness. These degrade to notes, not errors, so one odd record
// never blocks the batch.
func dataIssues(in models.Internship) []string {
	var issues []string
	if in.Phase1EndDate != nil && in.Phase2StartDate != nil && in.Phase2StartDate.Before(*in.Phase1EndDate) {
		issues = append(issues, "phase 2 start precedes phase 1 end")
	}
	if in.IsExtended && in.ExtensionEvalDate == nil {
		issues = append(issues, "extension flagged without an evaluation date")
	}
	if in.PlacementDate != nil {
		switch in.CurrentPhase {
		case models.PhasePreInternship:
			if in.OrientationDate == nil && !in.OrientationCompleted {
				issues = append(issues, "orientation not scheduled")
			}
		case models.PhaseOneMentorship:
			if in.Phase1EvalScheduled == nil && !in.Phase1EvalCompleted {
				issues = append(issues, "phase 1 evaluation not scheduled")
			}
		case models.PhaseTwoEvaluation:
			if in.Phase2EvalScheduled == nil && !in.Phase2EvalCompleted {
				issues = append(issues, "phase 2 evaluation not scheduled")
			}
		}
	}
	return issues
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
