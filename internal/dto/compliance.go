package dto

// UpsertComplianceRequest sets or clears a clinical document record for a
// student. ExpiresAt uses the 2006-01-02 layout; omit it for documents
// that never expire.
type UpsertComplianceRequest struct {
	DocType   string  `json:"docType"`
	Completed *bool   `json:"completed" binding:"required"`
	ExpiresAt *string `json:"expiresAt" binding:"omitempty,datetime=2006-01-02"`
}

// ComplianceStatusResponse reports a student's document readiness.
type ComplianceStatusResponse struct {
	StudentID     string                  `json:"studentId"`
	NREMTEligible bool                    `json:"nremtEligible"`
	Documents     []ComplianceDocStatus   `json:"documents"`
	MissingDocs   []string                `json:"missingDocs"`
	ExpiringDocs  []ComplianceExpiringDoc `json:"expiringDocs"`
	MissingClears []string                `json:"missingClearances"`
}

// ComplianceDocStatus is the per-document row of the status response.
type ComplianceDocStatus struct {
	DocType   string  `json:"docType"`
	Label     string  `json:"label"`
	Required  bool    `json:"required"`
	Completed bool    `json:"completed"`
	Satisfied bool    `json:"satisfied"`
	ExpiresAt *string `json:"expiresAt,omitempty"`
}

// ComplianceExpiringDoc flags a document expiring inside the warning window.
type ComplianceExpiringDoc struct {
	DocType   string `json:"docType"`
	ExpiresAt string `json:"expiresAt"`
	DaysLeft  int    `json:"daysLeft"`
}
