package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
)

const internshipColumns = `i.id, i.student_id, i.agency_name, i.preceptor_id, i.current_phase, i.is_extended,
    i.placement_date, i.orientation_date, i.orientation_completed,
    i.phase_1_start_date, i.phase_1_end_date, i.phase_1_eval_scheduled, i.phase_1_eval_completed,
    i.phase_2_start_date, i.phase_2_eval_scheduled, i.phase_2_eval_completed,
    i.expected_end_date, i.actual_end_date, i.extension_eval_date, i.extension_eval_completed,
    i.background_check, i.drug_screen, i.immunizations, i.liability_form, i.cpr_current, i.uniform_issued,
    i.snhd_field_docs_submitted, i.snhd_course_comp_submitted, i.closeout_meeting_date, i.closeout_completed,
    i.nremt_cleared, i.nremt_cleared_at, i.withdrawn_reason, i.created_at, i.updated_at`

// InternshipRepository manages persistence for internship lifecycle records.
type InternshipRepository struct {
	db *sqlx.DB
}

// NewInternshipRepository constructs an InternshipRepository.
func NewInternshipRepository(db *sqlx.DB) *InternshipRepository {
	return &InternshipRepository{db: db}
}

// ListActive returns every non-terminal internship joined with student
// identity, the input of a batch alert run.
func (r *InternshipRepository) ListActive(ctx context.Context) ([]models.InternshipDetail, error) {
	query := fmt.Sprintf(`SELECT %s, COALESCE(s.first_name, '') AS student_first_name, COALESCE(s.last_name, '') AS student_last_name
        FROM student_internships i
        LEFT JOIN students s ON s.id = i.student_id
        WHERE i.current_phase NOT IN ($1, $2)`, internshipColumns)
	var internships []models.InternshipDetail
	if err := r.db.SelectContext(ctx, &internships, query, models.PhaseCompleted, models.PhaseWithdrawn); err != nil {
		return nil, fmt.Errorf("list active internships: %w", err)
	}
	return internships, nil
}

// List returns internships matching the filter.
func (r *InternshipRepository) List(ctx context.Context, filter models.InternshipFilter) ([]models.InternshipDetail, int, error) {
	base := "FROM student_internships i LEFT JOIN students s ON s.id = i.student_id"
	args := []interface{}{}
	conditions := []string{"1=1"}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("i.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CohortID != "" {
		conditions = append(conditions, fmt.Sprintf("s.cohort_id = $%d", len(args)+1))
		args = append(args, filter.CohortID)
	}
	if filter.Phase != "" {
		conditions = append(conditions, fmt.Sprintf("i.current_phase = $%d", len(args)+1))
		args = append(args, filter.Phase)
	}
	if filter.Active != nil && *filter.Active {
		conditions = append(conditions, fmt.Sprintf("i.current_phase NOT IN ($%d, $%d)", len(args)+1, len(args)+2))
		args = append(args, models.PhaseCompleted, models.PhaseWithdrawn)
	}
	base = fmt.Sprintf("%s WHERE %s", base, strings.Join(conditions, " AND "))

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s, COALESCE(s.first_name, '') AS student_first_name, COALESCE(s.last_name, '') AS student_last_name
        %s ORDER BY s.last_name ASC, i.created_at DESC LIMIT %d OFFSET %d`, internshipColumns, base, size, offset)

	var internships []models.InternshipDetail
	if err := r.db.SelectContext(ctx, &internships, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list internships: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(i.id) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count internships: %w", err)
	}
	return internships, total, nil
}

// FindByID fetches an internship by ID.
func (r *InternshipRepository) FindByID(ctx context.Context, id string) (*models.Internship, error) {
	query := fmt.Sprintf("SELECT %s FROM student_internships i WHERE i.id = $1", internshipColumns)
	var internship models.Internship
	if err := r.db.GetContext(ctx, &internship, query, id); err != nil {
		return nil, err
	}
	return &internship, nil
}

// FindActiveByStudent returns the student's current non-terminal internship,
// or nil when none exists.
func (r *InternshipRepository) FindActiveByStudent(ctx context.Context, studentID string) (*models.Internship, error) {
	query := fmt.Sprintf(`SELECT %s FROM student_internships i
        WHERE i.student_id = $1 AND i.current_phase NOT IN ($2, $3) LIMIT 1`, internshipColumns)
	var internship models.Internship
	if err := r.db.GetContext(ctx, &internship, query, studentID, models.PhaseCompleted, models.PhaseWithdrawn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active internship: %w", err)
	}
	return &internship, nil
}

// Create inserts a new internship record.
func (r *InternshipRepository) Create(ctx context.Context, internship *models.Internship) error {
	if internship.ID == "" {
		internship.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if internship.CreatedAt.IsZero() {
		internship.CreatedAt = now
	}
	internship.UpdatedAt = now
	const query = `INSERT INTO student_internships (
        id, student_id, agency_name, preceptor_id, current_phase, is_extended,
        placement_date, orientation_date, orientation_completed,
        phase_1_start_date, phase_1_end_date, phase_1_eval_scheduled, phase_1_eval_completed,
        phase_2_start_date, phase_2_eval_scheduled, phase_2_eval_completed,
        expected_end_date, actual_end_date, extension_eval_date, extension_eval_completed,
        background_check, drug_screen, immunizations, liability_form, cpr_current, uniform_issued,
        snhd_field_docs_submitted, snhd_course_comp_submitted, closeout_meeting_date, closeout_completed,
        nremt_cleared, nremt_cleared_at, withdrawn_reason, created_at, updated_at
    ) VALUES (
        :id, :student_id, :agency_name, :preceptor_id, :current_phase, :is_extended,
        :placement_date, :orientation_date, :orientation_completed,
        :phase_1_start_date, :phase_1_end_date, :phase_1_eval_scheduled, :phase_1_eval_completed,
        :phase_2_start_date, :phase_2_eval_scheduled, :phase_2_eval_completed,
        :expected_end_date, :actual_end_date, :extension_eval_date, :extension_eval_completed,
        :background_check, :drug_screen, :immunizations, :liability_form, :cpr_current, :uniform_issued,
        :snhd_field_docs_submitted, :snhd_course_comp_submitted, :closeout_meeting_date, :closeout_completed,
        :nremt_cleared, :nremt_cleared_at, :withdrawn_reason, :created_at, :updated_at
    )`
	if _, err := r.db.NamedExecContext(ctx, query, internship); err != nil {
		return fmt.Errorf("create internship: %w", err)
	}
	return nil
}

// Update persists the full internship record. Lifecycle writes are
// single-row updates; the database guarantees their atomicity.
func (r *InternshipRepository) Update(ctx context.Context, internship *models.Internship) error {
	internship.UpdatedAt = time.Now().UTC()
	const query = `UPDATE student_internships SET
        agency_name = :agency_name, preceptor_id = :preceptor_id, current_phase = :current_phase, is_extended = :is_extended,
        placement_date = :placement_date, orientation_date = :orientation_date, orientation_completed = :orientation_completed,
        phase_1_start_date = :phase_1_start_date, phase_1_end_date = :phase_1_end_date,
        phase_1_eval_scheduled = :phase_1_eval_scheduled, phase_1_eval_completed = :phase_1_eval_completed,
        phase_2_start_date = :phase_2_start_date, phase_2_eval_scheduled = :phase_2_eval_scheduled, phase_2_eval_completed = :phase_2_eval_completed,
        expected_end_date = :expected_end_date, actual_end_date = :actual_end_date,
        extension_eval_date = :extension_eval_date, extension_eval_completed = :extension_eval_completed,
        background_check = :background_check, drug_screen = :drug_screen, immunizations = :immunizations,
        liability_form = :liability_form, cpr_current = :cpr_current, uniform_issued = :uniform_issued,
        snhd_field_docs_submitted = :snhd_field_docs_submitted, snhd_course_comp_submitted = :snhd_course_comp_submitted,
        closeout_meeting_date = :closeout_meeting_date, closeout_completed = :closeout_completed,
        nremt_cleared = :nremt_cleared, nremt_cleared_at = :nremt_cleared_at,
        withdrawn_reason = :withdrawn_reason, updated_at = :updated_at
        WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, internship); err != nil {
		return fmt.Errorf("update internship: %w", err)
	}
	return nil
}
