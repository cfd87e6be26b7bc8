package policy

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/minedata-id/mms-ops-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestClassifyUpdate(t *testing.T) {
	cases := []struct {
		name        string
		role        models.UserRole
		requestType models.RequestType
		want        Decision
	}{
		{"admin edits directly", models.RoleAdmin, models.RequestTypeDataChange, Direct},
		{"planner edits directly", models.RolePlanner, models.RequestTypeDataChange, Direct},
		{"planner schedule change goes via request", models.RolePlanner, models.RequestTypeScheduleChange, ViaRequest},
		{"inputter goes via request", models.RoleInputter, models.RequestTypeDataChange, ViaRequest},
		{"inputter equipment status goes via request", models.RoleInputter, models.RequestTypeEquipmentStatus, ViaRequest},
		{"viewer denied", models.RoleViewer, models.RequestTypeDataChange, Denied},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.role, OpUpdate, tc.requestType))
		})
	}
}

func TestClassifyDelete(t *testing.T) {
	require.Equal(t, Direct, Classify(models.RoleAdmin, OpDelete, ""))
	require.Equal(t, Direct, Classify(models.RolePlanner, OpDelete, ""))
	require.Equal(t, Denied, Classify(models.RoleInputter, OpDelete, ""))
	require.Equal(t, Denied, Classify(models.RoleViewer, OpDelete, ""))
}

func TestRouteApprover(t *testing.T) {
	dept := strPtr("dept-1")

	route := RouteApprover(models.RoleInputter, dept, models.RequestTypeDataChange)
	require.Equal(t, models.RolePlanner, route.ApproverRole)
	require.False(t, route.Escalate)
	require.Equal(t, models.ApprovalStatusPending, route.InitialStatus())

	route = RouteApprover(models.RoleInputter, dept, models.RequestTypeScheduleChange)
	require.Equal(t, models.RoleAdmin, route.ApproverRole)
	require.True(t, route.Escalate)
	require.Equal(t, models.ApprovalStatusPendingAdmin, route.InitialStatus())

	route = RouteApprover(models.RoleInputter, nil, models.RequestTypeDataChange)
	require.True(t, route.Escalate)
	require.Equal(t, models.RoleAdmin, route.ApproverRole)

	route = RouteApprover(models.RoleInputter, strPtr(""), models.RequestTypeDataChange)
	require.True(t, route.Escalate)
}

func TestCanResolveEscalated(t *testing.T) {
	request := &models.ApprovalRequest{
		Status:       models.ApprovalStatusPendingAdmin,
		ApproverID:   strPtr("planner-1"),
		DepartmentID: strPtr("dept-1"),
	}

	admin := &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
	require.True(t, CanResolve(admin, request))

	// Even the named approver cannot resolve an escalated request.
	planner := &models.JWTClaims{UserID: "planner-1", Role: models.RolePlanner, DepartmentID: "dept-1"}
	require.False(t, CanResolve(planner, request))
}

func TestCanResolvePending(t *testing.T) {
	assigned := &models.ApprovalRequest{
		Status:       models.ApprovalStatusPending,
		ApproverID:   strPtr("planner-1"),
		DepartmentID: strPtr("dept-1"),
	}
	require.True(t, CanResolve(&models.JWTClaims{UserID: "planner-1", Role: models.RolePlanner}, assigned))
	require.False(t, CanResolve(&models.JWTClaims{UserID: "planner-2", Role: models.RolePlanner, DepartmentID: "dept-1"}, assigned))
	require.True(t, CanResolve(&models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, assigned))

	unassigned := &models.ApprovalRequest{
		Status:       models.ApprovalStatusPending,
		DepartmentID: strPtr("dept-1"),
	}
	require.True(t, CanResolve(&models.JWTClaims{UserID: "planner-2", Role: models.RolePlanner, DepartmentID: "dept-1"}, unassigned))
	require.False(t, CanResolve(&models.JWTClaims{UserID: "planner-3", Role: models.RolePlanner, DepartmentID: "dept-2"}, unassigned))
	require.False(t, CanResolve(&models.JWTClaims{UserID: "inputter-1", Role: models.RoleInputter, DepartmentID: "dept-1"}, unassigned))
}

func TestCanResolveNilInputs(t *testing.T) {
	require.False(t, CanResolve(nil, &models.ApprovalRequest{}))
	require.False(t, CanResolve(&models.JWTClaims{Role: models.RoleAdmin}, nil))
}
