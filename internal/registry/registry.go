package registry

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
)

// FieldType enumerates coercion rules for mutable fields.
type FieldType string

const (
	FieldString FieldType = "string"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
	FieldEnum   FieldType = "enum"
	FieldBool   FieldType = "bool"
)

// Field declares a column mutable through the governance pathway.
type Field struct {
	Name string
	Type FieldType
	Enum []string
}

// Store is the persistence capability a kind binds to. Implementations
// must return sql.ErrNoRows when the record id does not exist.
type Store interface {
	LookupFields(ctx context.Context, table, id string, columns []string) (map[string]interface{}, error)
	UpdateFields(ctx context.Context, table, id string, fields map[string]interface{}) error
	DeleteRecord(ctx context.Context, table, id string) error
	FieldValue(ctx context.Context, table, column, id string) (*string, error)
}

// Kind describes one entity kind: its backing table, the fields mutable
// via this pathway, and the optional department column used for routing.
type Kind struct {
	Name             string
	Table            string
	Fields           []Field
	DepartmentColumn string

	fieldIndex map[string]Field
}

// Field returns the declared mutable field by name.
func (k *Kind) Field(name string) (Field, bool) {
	f, ok := k.fieldIndex[name]
	return f, ok
}

// HasDepartment reports whether the kind carries a routing department.
func (k *Kind) HasDepartment() bool {
	return k.DepartmentColumn != ""
}

// ColumnNames lists the declared mutable columns in a stable order.
func (k *Kind) ColumnNames() []string {
	names := make([]string, 0, len(k.Fields))
	for _, f := range k.Fields {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	return names
}

// Registry maps entity-kind names onto their declarations and executes
// lookup/update/delete through the configured store.
type Registry struct {
	kinds map[string]*Kind
	store Store
}

// New builds a registry over the default kind table.
func New(store Store) *Registry {
	return NewWithKinds(store, defaultKinds())
}

// NewWithKinds builds a registry from an explicit kind list.
func NewWithKinds(store Store, kinds []*Kind) *Registry {
	index := make(map[string]*Kind, len(kinds))
	for _, kind := range kinds {
		kind.fieldIndex = make(map[string]Field, len(kind.Fields))
		for _, f := range kind.Fields {
			kind.fieldIndex[f.Name] = f
		}
		index[kind.Name] = kind
	}
	return &Registry{kinds: index, store: store}
}

// WithStore returns a registry sharing the kind table but bound to a
// different store, typically a transaction-scoped one.
func (r *Registry) WithStore(store Store) *Registry {
	return &Registry{kinds: r.kinds, store: store}
}

// Resolve returns the kind declaration. An unknown name is a deployment
// defect, not caller input, and surfaces as a configuration error.
func (r *Registry) Resolve(name string) (*Kind, error) {
	kind, ok := r.kinds[name]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("unknown entity kind: %s", name))
	}
	return kind, nil
}

// Names lists registered kind names.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.kinds))
	for name := range r.kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the record's current values restricted to the declared
// mutable fields, optionally narrowed to the given keys. It never exposes
// columns outside the declared set.
func (r *Registry) Lookup(ctx context.Context, kind *Kind, id string, keys []string) (map[string]interface{}, error) {
	columns := kind.ColumnNames()
	if len(keys) > 0 {
		narrowed := make([]string, 0, len(keys))
		for _, key := range keys {
			if _, ok := kind.Field(key); ok {
				narrowed = append(narrowed, key)
			}
		}
		sort.Strings(narrowed)
		columns = narrowed
	}
	if len(columns) == 0 {
		return map[string]interface{}{}, nil
	}
	values, err := r.store.LookupFields(ctx, kind.Table, id, columns)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", kind.Name, id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up record")
	}
	return values, nil
}

// ApplyUpdate coerces the proposed fields per their declared types and
// writes them. Keys outside the declared set (including reserved metadata
// keys) are silently dropped.
func (r *Registry) ApplyUpdate(ctx context.Context, kind *Kind, id string, fields map[string]interface{}) error {
	coerced, err := CoerceFields(kind, fields)
	if err != nil {
		return err
	}
	if len(coerced) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "no supported fields provided")
	}
	if err := r.store.UpdateFields(ctx, kind.Table, id, coerced); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", kind.Name, id))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update record")
	}
	return nil
}

// ApplyDelete removes the record.
func (r *Registry) ApplyDelete(ctx context.Context, kind *Kind, id string) error {
	if err := r.store.DeleteRecord(ctx, kind.Table, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", kind.Name, id))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete record")
	}
	return nil
}

// DepartmentOf performs a minimal lookup returning only the routing
// department. Kinds without a department column return nil.
func (r *Registry) DepartmentOf(ctx context.Context, kind *Kind, id string) (*string, error) {
	if !kind.HasDepartment() {
		return nil, nil
	}
	value, err := r.store.FieldValue(ctx, kind.Table, kind.DepartmentColumn, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s %s not found", kind.Name, id))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve record department")
	}
	return value, nil
}
