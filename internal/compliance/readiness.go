package compliance

import (
	"time"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
)

// ExpiryWindow is how far ahead a satisfied document is reported as
// expiring.
const ExpiryWindow = 30 * 24 * time.Hour

// ExpiringDoc is a satisfied document approaching its expiration date.
type ExpiringDoc struct {
	DocType   DocType   `json:"doc_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Readiness is the per-student compliance rollup.
type Readiness struct {
	NREMTEligible bool          `json:"nremt_eligible"`
	MissingDocs   []DocType     `json:"missing_docs,omitempty"`
	ExpiringDocs  []ExpiringDoc `json:"expiring_docs,omitempty"`
}

// Satisfied reports whether a record currently counts: completed and either
// non-expiring or expiring in the future.
func Satisfied(rec models.ComplianceRecord, today time.Time) bool {
	if !rec.Completed {
		return false
	}
	return rec.ExpiresAt == nil || rec.ExpiresAt.After(today)
}

// ComputeReadiness aggregates a student's compliance rows and the
// internship-level clearance booleans into a single readiness signal.
// Pure read; records for unknown document types are ignored.
func ComputeReadiness(records []models.ComplianceRecord, in models.Internship, today time.Time) Readiness {
	byType := make(map[DocType]models.ComplianceRecord, len(records))
	for _, rec := range records {
		dt, ok := Parse(rec.DocType)
		if !ok {
			continue
		}
		byType[dt] = rec
	}

	r := Readiness{NREMTEligible: true}
	horizon := today.Add(ExpiryWindow)

	for _, dt := range AllDocTypes() {
		req := Catalog[dt]
		rec, tracked := byType[dt]
		if !tracked || !Satisfied(rec, today) {
			if req.Required {
				r.MissingDocs = append(r.MissingDocs, dt)
				r.NREMTEligible = false
			}
			continue
		}
		if rec.ExpiresAt != nil && !rec.ExpiresAt.After(horizon) {
			r.ExpiringDocs = append(r.ExpiringDocs, ExpiringDoc{DocType: dt, ExpiresAt: *rec.ExpiresAt})
		}
	}

	if !in.BackgroundCheck || !in.DrugScreen || !in.LiabilityForm || !in.Immunizations {
		r.NREMTEligible = false
	}

	return r
}

// MissingClearances lists placement-level clearance booleans still unset,
// used for alert messages.
func MissingClearances(in models.Internship) []string {
	var missing []string
	if !in.BackgroundCheck {
		missing = append(missing, "background check")
	}
	if !in.DrugScreen {
		missing = append(missing, "drug screen")
	}
	if !in.Immunizations {
		missing = append(missing, "immunization verification")
	}
	if !in.LiabilityForm {
		missing = append(missing, "liability form")
	}
	return missing
}
