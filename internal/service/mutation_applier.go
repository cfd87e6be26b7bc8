package service

import (
	"context"
	"encoding/json"

	"github.com/minedata-id/mms-ops-api/internal/models"
	"github.com/minedata-id/mms-ops-api/internal/registry"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
)

// MutationApplier commits an approved request's new-state snapshot to the
// target entity kind. It trusts its caller: authorization happened in the
// policy layer, so this stays a pure side-effect component.
type MutationApplier struct {
	registry *registry.Registry
}

// NewMutationApplier constructs the applier.
func NewMutationApplier(reg *registry.Registry) *MutationApplier {
	return &MutationApplier{registry: reg}
}

// Apply executes the request's mutation, optionally through an
// alternate store (the transaction carrying a resolution). Requests
// without a surviving record id resolve without touching any entity
// table; the approval itself is the audit outcome.
func (a *MutationApplier) Apply(ctx context.Context, request *models.ApprovalRequest, store registry.Store) error {
	reg := a.registry
	if store != nil {
		reg = reg.WithStore(store)
	}
	kind, err := reg.Resolve(request.EntityKind)
	if err != nil {
		return err
	}
	if request.RecordID == nil {
		return nil
	}
	if request.RequestType == models.RequestTypeDataDeletion {
		return reg.ApplyDelete(ctx, kind, *request.RecordID)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(request.NewData, &fields); err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "stored new data is not a valid field map")
	}
	return reg.ApplyUpdate(ctx, kind, *request.RecordID, fields)
}
