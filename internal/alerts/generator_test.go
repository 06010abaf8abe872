package alerts

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/compliance"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/phase"
)

var today = time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

func datePtr(t time.Time) *time.Time { return &t }

func fullCompliance(studentID string) []models.ComplianceRecord {
	var records []models.ComplianceRecord
	for _, dt := range compliance.AllDocTypes() {
		records = append(records, models.ComplianceRecord{
			StudentID: studentID,
			DocType:   string(dt),
			Completed: true,
		})
	}
	return records
}

func phaseTwoInternship(id, studentID, lastName string) models.InternshipDetail {
	return models.InternshipDetail{
		Internship: models.Internship{
			ID:                   id,
			StudentID:            studentID,
			CurrentPhase:         models.PhaseTwoEvaluation,
			PlacementDate:        datePtr(today.AddDate(0, -3, 0)),
			OrientationCompleted: true,
			Phase1EvalCompleted:  true,
			BackgroundCheck:      true,
			DrugScreen:           true,
			Immunizations:        true,
			LiabilityForm:        true,
		},
		StudentFirstName: "Alex",
		StudentLastName:  lastName,
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	gen := NewGenerator(Config{})
	in := phaseTwoInternship("int-1", "stu-1", "Rivera")
	in.Phase2EvalScheduled = datePtr(today.AddDate(0, 0, -3))
	state := map[string][]models.ComplianceRecord{"stu-1": fullCompliance("stu-1")}

	first := gen.Generate([]models.InternshipDetail{in}, state, today)
	second := gen.Generate([]models.InternshipDetail{in}, state, today)

	assert.Equal(t, first, second)
}

func TestGenerateOverdueEvalEscalatesPastSevenDays(t *testing.T) {
	gen := NewGenerator(Config{})
	state := map[string][]models.ComplianceRecord{"stu-1": fullCompliance("stu-1")}

	// Overdue by 1 day: warning.
	in := phaseTwoInternship("int-1", "stu-1", "Rivera")
	in.Phase2EvalScheduled = datePtr(today.AddDate(0, 0, -1))

	feed := gen.Generate([]models.InternshipDetail{in}, state, today)
	assert.Empty(t, feed.Critical)
	require.Len(t, feed.Warning, 1)
	assert.Equal(t, TypeOverdueMilestone, feed.Warning[0].Type)
	assert.Equal(t, phase.MilestonePhase2Eval, feed.Warning[0].Milestone)

	// Overdue by 8 days: escalates to critical, never back down.
	in.Phase2EvalScheduled = datePtr(today.AddDate(0, 0, -8))
	feed = gen.Generate([]models.InternshipDetail{in}, state, today)
	require.Len(t, feed.Critical, 1)
	assert.Empty(t, feed.Warning)
	assert.Equal(t, 8, feed.Critical[0].DaysOverdue)
}

func TestGenerateCompliantPhaseTwoHasNoComplianceAlerts(t *testing.T) {
	gen := NewGenerator(Config{})
	in := phaseTwoInternship("int-1", "stu-1", "Rivera")
	state := map[string][]models.ComplianceRecord{"stu-1": fullCompliance("stu-1")}

	feed := gen.Generate([]models.InternshipDetail{in}, state, today)
	for _, bucket := range [][]Alert{feed.Critical, feed.Warning, feed.Info} {
		for _, a := range bucket {
			assert.NotEqual(t, TypeMissingDocument, a.Type)
			assert.NotEqual(t, TypeNREMTNotCleared, a.Type)
		}
	}
}

func TestGenerateNREMTIneligibleInPhaseTwoIsCritical(t *testing.T) {
	gen := NewGenerator(Config{})
	in := phaseTwoInternship("int-1", "stu-1", "Rivera")
	// One required doc never completed.
	records := fullCompliance("stu-1")
	for i := range records {
		if records[i].DocType == string(compliance.DocTBTest) {
			records[i].Completed = false
		}
	}

	feed := gen.Generate([]models.InternshipDetail{in}, map[string][]models.ComplianceRecord{"stu-1": records}, today)

	var critTypes []Type
	for _, a := range feed.Critical {
		critTypes = append(critTypes, a.Type)
	}
	assert.Contains(t, critTypes, TypeNREMTNotCleared)
}

func TestGenerateNoPlacementProducesNoAlerts(t *testing.T) {
	gen := NewGenerator(Config{})
	in := models.InternshipDetail{
		Internship: models.Internship{
			ID:           "int-1",
			StudentID:    "stu-1",
			CurrentPhase: models.PhasePreInternship,
		},
		StudentFirstName: "Alex",
		StudentLastName:  "Rivera",
	}

	feed := gen.Generate([]models.InternshipDetail{in}, nil, today)
	assert.Empty(t, feed.Critical)
	assert.Empty(t, feed.Warning)
	assert.Empty(t, feed.Info)
}

func TestGenerateTerminalInternshipsSkipped(t *testing.T) {
	gen := NewGenerator(Config{})
	completed := phaseTwoInternship("int-1", "stu-1", "Rivera")
	completed.CurrentPhase = models.PhaseCompleted
	withdrawn := phaseTwoInternship("int-2", "stu-2", "Chen")
	withdrawn.CurrentPhase = models.PhaseWithdrawn

	feed := gen.Generate([]models.InternshipDetail{completed, withdrawn}, nil, today)
	assert.Empty(t, feed.Critical)
	assert.Empty(t, feed.Warning)
	assert.Empty(t, feed.Info)
}

func TestGenerateUnknownPhaseIsolatedFromBatch(t *testing.T) {
	gen := NewGenerator(Config{})
	bad := phaseTwoInternship("int-1", "stu-1", "Rivera")
	bad.CurrentPhase = models.Phase("mystery")
	good := phaseTwoInternship("int-2", "stu-2", "Chen")
	good.Phase2EvalScheduled = datePtr(today.AddDate(0, 0, -10))

	state := map[string][]models.ComplianceRecord{
		"stu-1": fullCompliance("stu-1"),
		"stu-2": fullCompliance("stu-2"),
	}
	feed := gen.Generate([]models.InternshipDetail{bad, good}, state, today)

	require.Len(t, feed.Critical, 2)
	byStudent := map[string]Type{}
	for _, a := range feed.Critical {
		byStudent[a.StudentID] = a.Type
	}
	assert.Equal(t, TypeDataIntegrity, byStudent["stu-1"])
	assert.Equal(t, TypeOverdueMilestone, byStudent["stu-2"])
}

func TestGenerateExpiringDocSeverityByWindow(t *testing.T) {
	gen := NewGenerator(Config{})
	in := phaseTwoInternship("int-1", "stu-1", "Rivera")
	records := fullCompliance("stu-1")
	soon := today.AddDate(0, 0, 10)
	later := today.AddDate(0, 0, 20)
	for i := range records {
		switch records[i].DocType {
		case string(compliance.DocCPRCard):
			records[i].ExpiresAt = &soon
		case string(compliance.DocTBTest):
			records[i].ExpiresAt = &later
		}
	}

	feed := gen.Generate([]models.InternshipDetail{in}, map[string][]models.ComplianceRecord{"stu-1": records}, today)

	warningDocs := map[compliance.DocType]bool{}
	for _, a := range feed.Warning {
		if a.Type == TypeExpiringDocument {
			warningDocs[a.DocType] = true
		}
	}
	infoDocs := map[compliance.DocType]bool{}
	for _, a := range feed.Info {
		if a.Type == TypeExpiringDocument {
			infoDocs[a.DocType] = true
		}
	}
	assert.True(t, warningDocs[compliance.DocCPRCard], "within 14 days is a warning")
	assert.True(t, infoDocs[compliance.DocTBTest], "15-30 days out is informational")
}

func TestGenerateBucketOrderingOverdueFirstThenLastName(t *testing.T) {
	gen := NewGenerator(Config{})
	state := map[string][]models.ComplianceRecord{
		"stu-1": fullCompliance("stu-1"),
		"stu-2": fullCompliance("stu-2"),
		"stu-3": fullCompliance("stu-3"),
	}

	// Two overdue by the same amount, one upcoming within the window.
	zimmer := phaseTwoInternship("int-1", "stu-1", "Zimmer")
	zimmer.Phase2EvalScheduled = datePtr(today.AddDate(0, 0, -2))
	abbott := phaseTwoInternship("int-2", "stu-2", "Abbott")
	abbott.Phase2EvalScheduled = datePtr(today.AddDate(0, 0, -2))
	chen := phaseTwoInternship("int-3", "stu-3", "Chen")
	chen.Phase2EvalScheduled = datePtr(today.AddDate(0, 0, -1))

	feed := gen.Generate([]models.InternshipDetail{zimmer, abbott, chen}, state, today)

	require.Len(t, feed.Warning, 3)
	assert.Equal(t, "stu-2", feed.Warning[0].StudentID, "earliest overdue date first, tie broken by last name")
	assert.Equal(t, "stu-1", feed.Warning[1].StudentID)
	assert.Equal(t, "stu-3", feed.Warning[2].StudentID, "later overdue date ranks after")
}

func TestGenerateDeduplicatesPerStudentMilestone(t *testing.T) {
	gen := NewGenerator(Config{})
	in := phaseTwoInternship("int-1", "stu-1", "Rivera")
	in.Phase2EvalScheduled = datePtr(today.AddDate(0, 0, -2))
	state := map[string][]models.ComplianceRecord{"stu-1": fullCompliance("stu-1")}

	// The same internship appearing twice in a snapshot must not double the
	// feed.
	feed := gen.Generate([]models.InternshipDetail{in, in}, state, today)
	require.Len(t, feed.Warning, 1)
}

func TestGenerateMissingStudentReferenceIsCritical(t *testing.T) {
	gen := NewGenerator(Config{})
	in := models.InternshipDetail{
		Internship: models.Internship{
			ID:            "int-1",
			StudentID:     "stu-ghost",
			CurrentPhase:  models.PhaseOneMentorship,
			PlacementDate: datePtr(today),
		},
	}

	feed := gen.Generate([]models.InternshipDetail{in}, nil, today)
	require.Len(t, feed.Critical, 1)
	assert.Equal(t, TypeDataIntegrity, feed.Critical[0].Type)
}
