package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
)

func TestAllowed(t *testing.T) {
	cases := []struct {
		name   string
		role   models.UserRole
		action Action
		want   bool
	}{
		{"director holds every action", models.RoleDirector, ActionWithdraw, true},
		{"coordinator manages students", models.RoleCoordinator, ActionManageStudents, true},
		{"coordinator cannot advance phases", models.RoleCoordinator, ActionAdvancePhase, false},
		{"coordinator cannot withdraw", models.RoleCoordinator, ActionWithdraw, false},
		{"instructor advances phases", models.RoleInstructor, ActionAdvancePhase, true},
		{"instructor views the board", models.RoleInstructor, ActionViewBoard, true},
		{"instructor cannot record compliance", models.RoleInstructor, ActionRecordCompliance, false},
		{"unknown role gets nothing", models.UserRole("GUEST"), ActionViewBoard, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Allowed(tc.role, tc.action))
		})
	}
}

func TestRequireRejectsMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/overview", nil)

	Require(ActionViewBoard)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRejectsForbiddenRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/internships/1/withdraw", nil)
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "usr-1", Role: models.RoleInstructor})

	Require(ActionWithdraw)(c)

	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}
