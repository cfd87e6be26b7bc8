package dto

import "github.com/minedata-id/mms-ops-api/internal/models"

// ResolveApprovalRequest captures the approver decision.
type ResolveApprovalRequest struct {
	Status models.ApprovalStatus `json:"status" validate:"required"`
	Note   string                `json:"note"`
}

// ApprovalQuery mirrors supported listing filters.
type ApprovalQuery struct {
	Status      []models.ApprovalStatus
	EntityKind  string
	RequestType models.RequestType
	Limit       int
	Offset      int
}
