// Package compliance rolls per-student document tracking into the readiness
// signal consumed by the phase engine and the alert generator.
package compliance

// DocType enumerates the tracked compliance documents. The aggregator is
// written against this closed set, never against raw column names, so schema
// churn only touches this table.
type DocType string

const (
	DocMMR             DocType = "mmr"
	DocVaricella       DocType = "vzv"
	DocHepB            DocType = "hep_b"
	DocTdap            DocType = "tdap"
	DocFlu             DocType = "flu"
	DocTBTest          DocType = "tb_test"
	DocCPRCard         DocType = "cpr_card"
	DocPhysicalExam    DocType = "physical_exam"
	DocHealthInsurance DocType = "health_insurance"
	DocHIPAATraining   DocType = "hipaa_training"
)

// Requirement describes how one document type participates in readiness.
type Requirement struct {
	Label    string
	Required bool
}

// Catalog maps each document type to its requirement. Required documents
// gate NREMT eligibility; optional ones only surface as reminders.
var Catalog = map[DocType]Requirement{
	DocMMR:             {Label: "MMR immunization", Required: true},
	DocVaricella:       {Label: "Varicella immunization", Required: true},
	DocHepB:            {Label: "Hepatitis B immunization", Required: true},
	DocTdap:            {Label: "Tdap immunization", Required: true},
	DocFlu:             {Label: "Influenza vaccination", Required: false},
	DocTBTest:          {Label: "TB test", Required: true},
	DocCPRCard:         {Label: "CPR card", Required: true},
	DocPhysicalExam:    {Label: "Physical exam", Required: true},
	DocHealthInsurance: {Label: "Health insurance", Required: false},
	DocHIPAATraining:   {Label: "HIPAA training", Required: true},
}

// AllDocTypes returns the enumeration in a stable order.
func AllDocTypes() []DocType {
	return []DocType{
		DocMMR,
		DocVaricella,
		DocHepB,
		DocTdap,
		DocFlu,
		DocTBTest,
		DocCPRCard,
		DocPhysicalExam,
		DocHealthInsurance,
		DocHIPAATraining,
	}
}

// Parse validates a raw doc type string against the enumeration.
func Parse(raw string) (DocType, bool) {
	dt := DocType(raw)
	_, ok := Catalog[dt]
	return dt, ok
}
