// Package overview builds the denormalized per-student rows rendered on the
// clinical dashboard.
package overview

import (
	"sort"
	"time"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/alerts"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/compliance"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/phase"
)

// ClinicalStatus is the presentation-facing rollup of a student's standing.
type ClinicalStatus string

const (
	StatusActiveInternship ClinicalStatus = "active_internship"
	StatusActiveClinicals  ClinicalStatus = "active_clinicals"
	StatusPreparing        ClinicalStatus = "preparing"
	StatusCompleted        ClinicalStatus = "completed"
	StatusNotStarted       ClinicalStatus = "not_started"
)

// clinicalStatusByPhase maps lifecycle phases to presentation statuses. A
// phase missing from this table falls through to not_started so the
// dashboard stays resilient during partial schema migrations.
var clinicalStatusByPhase = map[models.Phase]ClinicalStatus{
	models.PhasePreInternship: StatusPreparing,
	models.PhaseOneMentorship: StatusActiveInternship,
	models.PhaseTwoEvaluation: StatusActiveInternship,
	models.PhaseCompleted:     StatusCompleted,
}

// Row is one dashboard line for a student.
type Row struct {
	StudentID      string          `json:"student_id"`
	StudentName    string          `json:"student_name"`
	CohortName     string          `json:"cohort_name,omitempty"`
	InternshipID   string          `json:"internship_id,omitempty"`
	ClinicalStatus ClinicalStatus  `json:"clinical_status"`
	Phase          models.Phase    `json:"phase,omitempty"`
	Status         string          `json:"status"`
	NextDueDate    *time.Time      `json:"next_due_date,omitempty"`
	NextDueType    phase.Milestone `json:"next_due_type,omitempty"`
	CriticalCount  int             `json:"critical_count"`
	WarningCount   int             `json:"warning_count"`
	MissingDocs    int             `json:"missing_docs"`
	NeedsReview    bool            `json:"needs_review"`
}

// Build assembles one row per student, joining derived phase state,
// compliance readiness, and per-student alert counts. A record that fails
// derivation degrades its own row to an "unknown" status badge; the rest of
// the board still renders.
func Build(students []models.StudentDetail, internships []models.InternshipDetail, complianceByStudent map[string][]models.ComplianceRecord, feed alerts.Feed, today time.Time) []Row {
	internshipByStudent := make(map[string]models.InternshipDetail, len(internships))
	for _, in := range internships {
		// One non-withdrawn internship is active per student; a withdrawn
		// record never shadows an active one.
		current, ok := internshipByStudent[in.StudentID]
		if ok && current.CurrentPhase != models.PhaseWithdrawn {
			continue
		}
		internshipByStudent[in.StudentID] = in
	}

	criticalCounts := countByStudent(feed.Critical)
	warningCounts := countByStudent(feed.Warning)

	ordered := make([]models.StudentDetail, len(students))
	copy(ordered, students)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].LastName != ordered[j].LastName {
			return ordered[i].LastName < ordered[j].LastName
		}
		if ordered[i].FirstName != ordered[j].FirstName {
			return ordered[i].FirstName < ordered[j].FirstName
		}
		return ordered[i].ID < ordered[j].ID
	})

	rows := make([]Row, 0, len(ordered))
	for _, s := range ordered {
		row := Row{
			StudentID:      s.ID,
			StudentName:    s.FullName(),
			ClinicalStatus: StatusNotStarted,
			Status:         string(phase.StatusNotStarted),
			CriticalCount:  criticalCounts[s.ID],
			WarningCount:   warningCounts[s.ID],
		}
		if s.CohortName != nil {
			row.CohortName = *s.CohortName
		}

		records := complianceByStudent[s.ID]

		in, hasInternship := internshipByStudent[s.ID]
		if !hasInternship || in.CurrentPhase == models.PhaseWithdrawn {
			// Students without a placement are still mid-clinicals once any
			// compliance tracking has begun.
			if len(records) > 0 {
				row.ClinicalStatus = StatusActiveClinicals
			}
			readiness := compliance.ComputeReadiness(records, models.Internship{}, today)
			row.MissingDocs = len(readiness.MissingDocs)
			rows = append(rows, row)
			continue
		}

		readiness := compliance.ComputeReadiness(records, in.Internship, today)
		row.MissingDocs = len(readiness.MissingDocs)
		row.InternshipID = in.ID

		st, err := phase.Derive(in.Internship, readiness.NREMTEligible, today)
		if err != nil {
			row.Status = "unknown"
			row.NeedsReview = true
			rows = append(rows, row)
			continue
		}

		row.Phase = st.Phase
		row.Status = string(st.Status)
		row.NeedsReview = len(st.DataIssues) > 0
		if st.NextDue != nil {
			due := *st.NextDue
			row.NextDueDate = &due.Date
			row.NextDueType = due.Type
		}
		if st.Status != phase.StatusNotStarted {
			if mapped, ok := clinicalStatusByPhase[st.Phase]; ok {
				row.ClinicalStatus = mapped
			}
		}
		rows = append(rows, row)
	}

	return rows
}

func countByStudent(bucket []alerts.Alert) map[string]int {
	counts := make(map[string]int)
	for _, a := range bucket {
		counts[a.StudentID]++
	}
	return counts
}
