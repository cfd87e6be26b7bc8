// Package policy holds the pure authorization decisions of the
// governance engine: how a mutation attempt is classified and which
// approver a deferred change routes to. It performs no I/O.
package policy

import "github.com/minedata-id/mms-ops-api/internal/models"

// Operation is the mutation category being attempted.
type Operation string

const (
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Decision classifies a mutation attempt.
type Decision string

const (
	// Direct means the actor may mutate the record immediately.
	Direct Decision = "DIRECT"
	// ViaRequest means the mutation must be captured as an approval request.
	ViaRequest Decision = "VIA_REQUEST"
	// Denied means the actor may not perform the mutation at all.
	Denied Decision = "DENIED"
)

// Classify decides how an actor's mutation attempt is handled.
//
// Updates: admin and planner edit directly, inputters go via request,
// viewers are denied. A planner proposing a maintenance schedule change
// also goes via request since those are escalated to admin review.
// Deletes have no deferred path: admin and planner only.
func Classify(role models.UserRole, op Operation, requestType models.RequestType) Decision {
	switch op {
	case OpDelete:
		if role == models.RoleAdmin || role == models.RolePlanner {
			return Direct
		}
		return Denied
	case OpUpdate:
		switch role {
		case models.RoleAdmin:
			return Direct
		case models.RolePlanner:
			if requestType == models.RequestTypeScheduleChange {
				return ViaRequest
			}
			return Direct
		case models.RoleInputter:
			return ViaRequest
		default:
			return Denied
		}
	default:
		return Denied
	}
}

// Route describes where an approval request should land.
type Route struct {
	ApproverRole models.UserRole
	// Escalate marks the request PENDING_ADMIN_APPROVAL instead of PENDING.
	Escalate bool
}

// RouteApprover picks the approver for a deferred mutation. Department
// scoped changes go to that department's planner. Schedule-impacting
// requests and changes without an inferable department escalate to admin.
func RouteApprover(actorRole models.UserRole, departmentID *string, requestType models.RequestType) Route {
	if requestType == models.RequestTypeScheduleChange {
		return Route{ApproverRole: models.RoleAdmin, Escalate: true}
	}
	if departmentID == nil || *departmentID == "" {
		return Route{ApproverRole: models.RoleAdmin, Escalate: true}
	}
	return Route{ApproverRole: models.RolePlanner}
}

// InitialStatus maps a route onto the request's creation state.
func (r Route) InitialStatus() models.ApprovalStatus {
	if r.Escalate {
		return models.ApprovalStatusPendingAdmin
	}
	return models.ApprovalStatusPending
}

// CanResolve decides whether an actor may resolve the given request.
// Escalated requests demand admin authority regardless of assignment.
// Plain pending requests accept the named approver, an admin, or, when
// unassigned, any planner of the request's routed department.
func CanResolve(actor *models.JWTClaims, request *models.ApprovalRequest) bool {
	if actor == nil || request == nil {
		return false
	}
	if request.Status == models.ApprovalStatusPendingAdmin {
		return actor.Role == models.RoleAdmin
	}
	if actor.Role == models.RoleAdmin {
		return true
	}
	if request.ApproverID != nil {
		return *request.ApproverID == actor.UserID
	}
	if actor.Role != models.RolePlanner {
		return false
	}
	return request.DepartmentID != nil && *request.DepartmentID == actor.DepartmentID
}
