package dto

import (
	"github.com/minedata-id/mms-ops-api/internal/models"
)

// UpdateRecordRequest carries a proposed field map for one record. The
// field map holds domain fields only; reason and request type travel
// beside it so metadata never mixes with persisted columns.
type UpdateRecordRequest struct {
	Fields      map[string]interface{} `json:"fields" validate:"required,min=1"`
	Reason      string                 `json:"reason"`
	RequestType models.RequestType     `json:"requestType"`
}

// MutationOutcome tells the caller whether the edit was applied directly
// or queued for approval.
type MutationOutcome struct {
	Applied bool                    `json:"applied"`
	Record  map[string]interface{}  `json:"record,omitempty"`
	Request *models.ApprovalRequest `json:"request,omitempty"`
}
