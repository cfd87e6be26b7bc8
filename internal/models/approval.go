package models

import "time"

// ApprovalStatus captures workflow states for change requests.
type ApprovalStatus string

const (
	ApprovalStatusPending      ApprovalStatus = "PENDING"
	ApprovalStatusPendingAdmin ApprovalStatus = "PENDING_ADMIN_APPROVAL"
	ApprovalStatusApproved     ApprovalStatus = "APPROVED"
	ApprovalStatusRejected     ApprovalStatus = "REJECTED"
)

// Open reports whether the status still accepts a resolution.
func (s ApprovalStatus) Open() bool {
	return s == ApprovalStatusPending || s == ApprovalStatusPendingAdmin
}

// RequestType classifies caller intent for audit and UI grouping; it does
// not drive the state machine.
type RequestType string

const (
	RequestTypeDataChange      RequestType = "data_change"
	RequestTypeDataDeletion    RequestType = "data_deletion"
	RequestTypeEquipmentStatus RequestType = "equipment_status_change"
	RequestTypeScheduleChange  RequestType = "maintenance_schedule_change"
)

// ApprovalRequest is the durable record of a gated mutation. old_data and
// new_data are immutable after creation; resolution only touches status,
// approver_id, resolution_note, and approved_at.
type ApprovalRequest struct {
	ID             string         `db:"id" json:"id"`
	RequestType    RequestType    `db:"request_type" json:"requestType"`
	EntityKind     string         `db:"entity_kind" json:"entityKind"`
	TableName      string         `db:"table_name" json:"tableName"`
	RecordID       *string        `db:"record_id" json:"recordId,omitempty"`
	OldData        []byte         `db:"old_data" json:"oldData,omitempty"`
	NewData        []byte         `db:"new_data" json:"newData"`
	DepartmentID   *string        `db:"department_id" json:"departmentId,omitempty"`
	ApproverRole   *UserRole      `db:"approver_role" json:"approverRole,omitempty"`
	RequesterID    string         `db:"requester_id" json:"requesterId"`
	ApproverID     *string        `db:"approver_id" json:"approverId,omitempty"`
	Status         ApprovalStatus `db:"status" json:"status"`
	Reason         string         `db:"reason" json:"reason"`
	ResolutionNote *string        `db:"resolution_note" json:"resolutionNote,omitempty"`
	ApprovedAt     *time.Time     `db:"approved_at" json:"approvedAt,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updatedAt"`
}

// ApprovalFilter constrains listing queries.
type ApprovalFilter struct {
	Status       []ApprovalStatus
	EntityKind   string
	RequestType  RequestType
	RequesterID  string
	ApproverID   string
	DepartmentID string
	// UnassignedForDepartment widens ApproverID matches with unassigned
	// requests routed to DepartmentID.
	UnassignedForDepartment bool
	Limit                   int
	Offset                  int
}
