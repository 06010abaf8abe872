package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/response"
)

// Action names a permission-checked operation. Routes declare an action;
// role capabilities live only in the policy table below.
type Action string

const (
	ActionViewBoard        Action = "view_board"
	ActionManageStudents   Action = "manage_students"
	ActionManageCohorts    Action = "manage_cohorts"
	ActionPlaceInternship  Action = "place_internship"
	ActionAdvancePhase     Action = "advance_phase"
	ActionUpdateSchedule   Action = "update_schedule"
	ActionUpdateClearances Action = "update_clearances"
	ActionGrantExtension   Action = "grant_extension"
	ActionWithdraw         Action = "withdraw"
	ActionRecordCompliance Action = "record_compliance"
	ActionExportRoster     Action = "export_roster"
)

// policy is the single authorization table. Directors hold every action;
// other roles get an explicit list.
var policy = map[models.UserRole]map[Action]struct{}{
	models.RoleCoordinator: actionSet(
		ActionViewBoard,
		ActionManageStudents,
		ActionPlaceInternship,
		ActionUpdateSchedule,
		ActionUpdateClearances,
		ActionRecordCompliance,
		ActionExportRoster,
	),
	models.RoleInstructor: actionSet(
		ActionViewBoard,
		ActionAdvancePhase,
	),
}

func actionSet(actions ...Action) map[Action]struct{} {
	set := make(map[Action]struct{}, len(actions))
	for _, a := range actions {
		set[a] = struct{}{}
	}
	return set
}

// Allowed is the single authorization decision point.
func Allowed(role models.UserRole, action Action) bool {
	if role == models.RoleDirector {
		return true
	}
	_, ok := policy[role][action]
	return ok
}

// Require rejects requests whose authenticated role lacks the action.
func Require(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := claimsValue.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if !Allowed(claims.Role, action) {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
