package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/service"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/response"
)

type stubStudents struct{ students []models.StudentDetail }

func (s *stubStudents) ListActive(context.Context) ([]models.StudentDetail, error) {
	return s.students, nil
}

type stubInternships struct{ internships []models.InternshipDetail }

func (s *stubInternships) ListActive(context.Context) ([]models.InternshipDetail, error) {
	return s.internships, nil
}

type stubCompliance struct{}

func (s *stubCompliance) ListAll(context.Context) (map[string][]models.ComplianceRecord, error) {
	return map[string][]models.ComplianceRecord{}, nil
}

func overviewRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	placement := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := service.NewOverviewService(service.OverviewServiceParams{
		Students: &stubStudents{students: []models.StudentDetail{
			{Student: models.Student{ID: "stu-1", FirstName: "Alex", LastName: "Rivera", Active: true}},
		}},
		Internships: &stubInternships{internships: []models.InternshipDetail{
			{
				Internship: models.Internship{
					ID: "int-1", StudentID: "stu-1", AgencyName: "AMR",
					CurrentPhase: models.PhaseOneMentorship, PlacementDate: &placement,
					OrientationCompleted: true,
					BackgroundCheck:      true, DrugScreen: true, Immunizations: true, LiabilityForm: true,
				},
				StudentFirstName: "Alex",
				StudentLastName:  "Rivera",
			},
		}},
		Compliance: &stubCompliance{},
	})

	h := NewOverviewHandler(svc)
	r := gin.New()
	r.GET("/overview", h.Board)
	r.GET("/alerts", h.Alerts)
	return r
}

func TestOverviewEndpointReturnsBoard(t *testing.T) {
	r := overviewRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/overview", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data dto.OverviewResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data.Rows, 1)
	assert.Equal(t, "Alex Rivera", envelope.Data.Rows[0].StudentName)
	assert.Equal(t, 1, envelope.Data.Totals.Students)
}

func TestAlertsEndpointReturnsBuckets(t *testing.T) {
	r := overviewRouter(t)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/alerts", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Nil(t, envelope.Error)

	var feed dto.AlertFeedResponse
	raw, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &feed))
	// No compliance rows on file, so the student shows missing documents.
	assert.NotEmpty(t, feed.Warning)
}
