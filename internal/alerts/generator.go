// Package alerts turns derived lifecycle and compliance state into the
// prioritized feed shown on the clinical overview dashboard. Generation is
// pure and deterministic: the same snapshot always yields the same feed, so
// the notification layer can diff successive runs.
package alerts

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/compliance"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/phase"
)

// Severity classifies how urgently an alert needs attention.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Type enumerates alert reasons.
type Type string

const (
	TypeOverdueMilestone  Type = "overdue_milestone"
	TypeUpcomingMilestone Type = "upcoming_milestone"
	TypeMissingClearance  Type = "missing_clearance"
	TypeMissingDocument   Type = "missing_document"
	TypeExpiringDocument  Type = "expiring_document"
	TypeNREMTNotCleared   Type = "nremt_not_cleared"
	TypeDataIntegrity     Type = "data_integrity"
)

// Alert is one currently-true condition for a student. It carries link
// identifiers rather than URLs; the presentation layer builds navigation.
type Alert struct {
	Type         Type               `json:"type"`
	Severity     Severity           `json:"severity"`
	StudentID    string             `json:"student_id"`
	InternshipID string             `json:"internship_id,omitempty"`
	StudentName  string             `json:"student_name"`
	Milestone    phase.Milestone    `json:"milestone,omitempty"`
	DocType      compliance.DocType `json:"doc_type,omitempty"`
	Message      string             `json:"message"`
	DueDate      *time.Time         `json:"due_date,omitempty"`
	DaysOverdue  int                `json:"days_overdue,omitempty"`

	lastName string
}

// Key identifies an alert for deduplication and run-over-run diffing: one
// alert per (student, reason, milestone-or-doc) tuple.
func (a Alert) Key() string {
	detail := string(a.Milestone)
	if detail == "" {
		detail = string(a.DocType)
	}
	if detail == "" && a.Type == TypeDataIntegrity {
		detail = a.Message
	}
	return a.StudentID + "|" + string(a.Type) + "|" + detail
}

// Feed groups generated alerts by severity.
type Feed struct {
	GeneratedAt time.Time `json:"generated_at"`
	Critical    []Alert   `json:"critical"`
	Warning     []Alert   `json:"warning"`
	Info        []Alert   `json:"info"`
}

// CriticalKeys returns the stable keys of the critical bucket, used by the
// notification layer to detect newly-critical alerts.
func (f Feed) CriticalKeys() []string {
	keys := make([]string, 0, len(f.Critical))
	for _, a := range f.Critical {
		keys = append(keys, a.Key())
	}
	return keys
}

// Config holds the severity thresholds, all in days.
type Config struct {
	CriticalOverdueDays int
	WarningExpiryDays   int
	UpcomingWindowDays  int
}

// Generator computes alert feeds from entity snapshots.
type Generator struct {
	cfg Config
}

// NewGenerator constructs a Generator with sane defaults.
func NewGenerator(cfg Config) *Generator {
	if cfg.CriticalOverdueDays <= 0 {
		cfg.CriticalOverdueDays = 7
	}
	if cfg.WarningExpiryDays <= 0 {
		cfg.WarningExpiryDays = 14
	}
	if cfg.UpcomingWindowDays <= 0 {
		cfg.UpcomingWindowDays = 14
	}
	return &Generator{cfg: cfg}
}

// Generate walks every active internship and produces the severity-bucketed
// feed. One malformed record yields a data_integrity alert for that student
// and never aborts the rest of the batch.
func (g *Generator) Generate(internships []models.InternshipDetail, complianceByStudent map[string][]models.ComplianceRecord, today time.Time) Feed {
	feed := Feed{GeneratedAt: today}
	seen := make(map[string]struct{})

	add := func(a Alert) {
		if _, dup := seen[string(a.Severity)+"|"+a.Key()]; dup {
			return
		}
		seen[string(a.Severity)+"|"+a.Key()] = struct{}{}
		switch a.Severity {
		case SeverityCritical:
			feed.Critical = append(feed.Critical, a)
		case SeverityWarning:
			feed.Warning = append(feed.Warning, a)
		default:
			feed.Info = append(feed.Info, a)
		}
	}

	for _, in := range internships {
		if in.CurrentPhase.Terminal() {
			continue
		}
		g.collect(in, complianceByStudent[in.StudentID], today, add)
	}

	sortBucket(feed.Critical)
	sortBucket(feed.Warning)
	sortBucket(feed.Info)
	return feed
}

func (g *Generator) collect(in models.InternshipDetail, records []models.ComplianceRecord, today time.Time, add func(Alert)) {
	name := strings.TrimSpace(in.StudentFirstName + " " + in.StudentLastName)
	base := Alert{
		StudentID:    in.StudentID,
		InternshipID: in.ID,
		StudentName:  name,
		lastName:     in.StudentLastName,
	}

	if in.StudentID == "" || name == "" {
		a := base
		a.Type = TypeDataIntegrity
		a.Severity = SeverityCritical
		a.Message = "internship references an unresolved student record"
		add(a)
		return
	}

	readiness := compliance.ComputeReadiness(records, in.Internship, today)

	st, err := phase.Derive(in.Internship, readiness.NREMTEligible, today)
	if err != nil {
		a := base
		a.Type = TypeDataIntegrity
		a.Severity = SeverityCritical
		a.Message = fmt.Sprintf("internship record needs review: %v", err)
		add(a)
		return
	}

	// No placement means nothing is actionable yet.
	if st.Status == phase.StatusNotStarted {
		return
	}

	for _, due := range st.Blocking {
		due := due
		a := base
		a.Type = TypeOverdueMilestone
		a.Milestone = due.Type
		a.DueDate = &due.Date
		a.DaysOverdue = due.DaysOverdue
		if due.DaysOverdue > g.cfg.CriticalOverdueDays {
			a.Severity = SeverityCritical
		} else {
			a.Severity = SeverityWarning
		}
		a.Message = fmt.Sprintf("%s overdue by %d day(s)", due.Type.Label(), due.DaysOverdue)
		add(a)
	}

	for _, due := range st.Upcoming {
		if due.Date.After(today.AddDate(0, 0, g.cfg.UpcomingWindowDays)) {
			continue
		}
		due := due
		a := base
		a.Type = TypeUpcomingMilestone
		a.Severity = SeverityInfo
		a.Milestone = due.Type
		a.DueDate = &due.Date
		a.Message = fmt.Sprintf("%s due %s", due.Type.Label(), due.Date.Format("2006-01-02"))
		add(a)
	}

	if !readiness.NREMTEligible && in.CurrentPhase == models.PhaseTwoEvaluation {
		a := base
		a.Type = TypeNREMTNotCleared
		a.Severity = SeverityCritical
		a.Message = "not NREMT eligible while in phase 2: " + readinessGapSummary(readiness, in.Internship)
		add(a)
	}

	if missing := compliance.MissingClearances(in.Internship); len(missing) > 0 {
		a := base
		a.Type = TypeMissingClearance
		a.Severity = SeverityWarning
		a.Message = "missing clearances: " + strings.Join(missing, ", ")
		add(a)
	}

	if len(readiness.MissingDocs) > 0 {
		a := base
		a.Type = TypeMissingDocument
		a.Severity = SeverityWarning
		a.Message = "missing required documents: " + docLabels(readiness.MissingDocs)
		add(a)
	}

	warningHorizon := today.AddDate(0, 0, g.cfg.WarningExpiryDays)
	for _, exp := range readiness.ExpiringDocs {
		exp := exp
		a := base
		a.Type = TypeExpiringDocument
		a.DocType = exp.DocType
		a.DueDate = &exp.ExpiresAt
		if exp.ExpiresAt.After(warningHorizon) {
			a.Severity = SeverityInfo
		} else {
			a.Severity = SeverityWarning
		}
		a.Message = fmt.Sprintf("%s expires %s", compliance.Catalog[exp.DocType].Label, exp.ExpiresAt.Format("2006-01-02"))
		add(a)
	}

	for _, issue := range st.DataIssues {
		a := base
		a.Type = TypeDataIntegrity
		a.Severity = SeverityInfo
		a.Message = issue
		add(a)
	}
}

func readinessGapSummary(r compliance.Readiness, in models.Internship) string {
	var parts []string
	if len(r.MissingDocs) > 0 {
		parts = append(parts, "documents: "+docLabels(r.MissingDocs))
	}
	if missing := compliance.MissingClearances(in); len(missing) > 0 {
		parts = append(parts, "clearances: "+strings.Join(missing, ", "))
	}
	if len(parts) == 0 {
		return "readiness incomplete"
	}
	return strings.Join(parts, "; ")
}

func docLabels(docs []compliance.DocType) string {
	labels := make([]string, 0, len(docs))
	for _, dt := range docs {
		labels = append(labels, compliance.Catalog[dt].Label)
	}
	return strings.Join(labels, ", ")
}

// sortBucket orders alerts by the milestone due-date ranking (overdue first,
// then ascending date, undated last), then by student last name for a stable
// UI ordering.
func sortBucket(bucket []Alert) {
	sort.SliceStable(bucket, func(i, j int) bool {
		a, b := bucket[i], bucket[j]
		if (a.DueDate != nil) != (b.DueDate != nil) {
			return a.DueDate != nil
		}
		if a.DueDate != nil && b.DueDate != nil {
			aOver, bOver := a.DaysOverdue > 0, b.DaysOverdue > 0
			if aOver != bOver {
				return aOver
			}
			if !a.DueDate.Equal(*b.DueDate) {
				return a.DueDate.Before(*b.DueDate)
			}
		}
		if a.lastName != b.lastName {
			return a.lastName < b.lastName
		}
		return a.Key() < b.Key()
	})
}
