package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/compliance"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/export"
)

// ExportFormat selects the rendered output type.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult carries a rendered export ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportServiceParams groups constructor dependencies.
type ExportServiceParams struct {
	Students    overviewStudentLister
	Internships overviewInternshipLister
	Compliance  overviewComplianceLister
	CSV         csvRenderer
	PDF         pdfRenderer
	ProgramName string
	Logger      *zap.Logger
}

// ExportService renders the compliance roster for SNHD site visits and
// accreditation reviews. Exports are generated on demand, never stored.
type ExportService struct {
	students    overviewStudentLister
	internships overviewInternshipLister
	compliance  overviewComplianceLister
	csv         csvRenderer
	pdf         pdfRenderer
	programName string
	logger      *zap.Logger
	now         func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(params ExportServiceParams) *ExportService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	csv := params.CSV
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	pdf := params.PDF
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	programName := params.ProgramName
	if programName == "" {
		programName = "Paramedic Program"
	}
	return &ExportService{
		students:    params.Students,
		internships: params.Internships,
		compliance:  params.Compliance,
		csv:         csv,
		pdf:         pdf,
		programName: programName,
		logger:      logger,
		now:         time.Now,
	}
}

// ComplianceRoster renders one row per active student with document and
// clearance state.
func (s *ExportService) ComplianceRoster(ctx context.Context, format ExportFormat) (*ExportResult, error) {
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	students, err := s.students.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	internships, err := s.internships.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load internships")
	}
	complianceByStudent, err := s.compliance.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load compliance records")
	}

	internshipByStudent := make(map[string]models.InternshipDetail, len(internships))
	for _, in := range internships {
		internshipByStudent[in.StudentID] = in
	}

	today := s.now().UTC()
	dataset := export.Dataset{
		Headers: []string{"Student", "Cohort", "Agency", "Phase", "NREMT Eligible", "Missing Documents", "Expiring Documents", "Missing Clearances"},
	}
	for _, student := range students {
		var in models.Internship
		detail, placed := internshipByStudent[student.ID]
		if placed {
			in = detail.Internship
		}
		readiness := compliance.ComputeReadiness(complianceByStudent[student.ID], in, today)

		row := map[string]string{
			"Student":        student.FullName(),
			"NREMT Eligible": boolLabel(readiness.NREMTEligible),
		}
		if student.CohortName != nil {
			row["Cohort"] = *student.CohortName
		}
		if placed {
			row["Agency"] = in.AgencyName
			row["Phase"] = string(in.CurrentPhase)
			row["Missing Clearances"] = strings.Join(compliance.MissingClearances(in), ", ")
		}
		row["Missing Documents"] = joinDocTypes(readiness.MissingDocs)
		row["Expiring Documents"] = joinExpiring(readiness.ExpiringDocs)
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := today.Format("2006-01-02")
	switch format {
	case FormatPDF:
		data, err := s.pdf.Render(dataset, fmt.Sprintf("%s Compliance Roster %s", s.programName, stamp))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("compliance-roster-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("compliance-roster-%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	}
}

func boolLabel(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func joinDocTypes(docs []compliance.DocType) string {
	labels := make([]string, 0, len(docs))
	for _, doc := range docs {
		labels = append(labels, compliance.Catalog[doc].Label)
	}
	return strings.Join(labels, ", ")
}

func joinExpiring(docs []compliance.ExpiringDoc) string {
	labels := make([]string, 0, len(docs))
	for _, doc := range docs {
		labels = append(labels, fmt.Sprintf("%s (%s)", compliance.Catalog[doc.DocType].Label, doc.ExpiresAt.Format("2006-01-02")))
	}
	return strings.Join(labels, ", ")
}
