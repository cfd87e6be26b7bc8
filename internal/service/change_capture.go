package service

import (
	"context"
	"encoding/json"
	"sort"
	"strings"

	"github.com/minedata-id/mms-ops-api/internal/registry"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
)

type captureLookup interface {
	Lookup(ctx context.Context, kind *registry.Kind, id string, keys []string) (map[string]interface{}, error)
}

// Snapshot is the immutable before/after pair stored on an approval
// request. OldData is nil, not an empty object, when no prior record
// exists so consumers can tell "no prior state" from "all-null fields".
type Snapshot struct {
	OldData []byte
	NewData []byte
}

// ChangeCapture builds snapshot pairs for deferred mutations.
type ChangeCapture struct {
	registry captureLookup
}

// NewChangeCapture constructs the capture component.
func NewChangeCapture(reg captureLookup) *ChangeCapture {
	return &ChangeCapture{registry: reg}
}

// Capture snapshots the record's current values restricted to the keys
// actually being changed, keeping diffs minimal. A nil record id marks a
// creation-style request with no prior state.
func (c *ChangeCapture) Capture(ctx context.Context, kind *registry.Kind, recordID *string, proposed map[string]interface{}) (*Snapshot, error) {
	newData, err := json.Marshal(domainFields(proposed))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode proposed fields")
	}
	snapshot := &Snapshot{NewData: newData}
	if recordID == nil {
		return snapshot, nil
	}

	keys := make([]string, 0, len(proposed))
	for key := range proposed {
		if strings.HasPrefix(key, registry.MetadataPrefix) {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	current, err := c.registry.Lookup(ctx, kind, *recordID, keys)
	if err != nil {
		return nil, err
	}
	oldData, err := json.Marshal(current)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode current snapshot")
	}
	snapshot.OldData = oldData
	return snapshot, nil
}

// domainFields strips reserved metadata keys from a proposed field map.
func domainFields(proposed map[string]interface{}) map[string]interface{} {
	cleaned := make(map[string]interface{}, len(proposed))
	for key, value := range proposed {
		if strings.HasPrefix(key, registry.MetadataPrefix) {
			continue
		}
		cleaned[key] = value
	}
	return cleaned
}
