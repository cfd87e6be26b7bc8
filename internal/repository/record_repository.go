package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
)

// RecordStore executes generic lookup/update/delete statements against an
// entity kind's backing table. Table and column names always come from
// the registry's static declarations, never from caller input.
type RecordStore struct {
	db sqlx.ExtContext
}

// NewRecordStore constructs a store over the shared connection pool.
func NewRecordStore(db *sqlx.DB) *RecordStore {
	return &RecordStore{db: db}
}

// WithTx returns a store whose statements run inside the transaction.
func (s *RecordStore) WithTx(tx *sqlx.Tx) *RecordStore {
	return &RecordStore{db: tx}
}

// LookupFields reads the given columns for one record. Missing ids
// surface as sql.ErrNoRows.
func (s *RecordStore) LookupFields(ctx context.Context, table, id string, columns []string) (map[string]interface{}, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(columns, ", "), table)
	row := s.db.QueryRowxContext(ctx, query, id)
	values := make(map[string]interface{}, len(columns))
	if err := row.MapScan(values); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lookup %s fields: %w", table, err)
	}
	for key, value := range values {
		if raw, ok := value.([]byte); ok {
			values[key] = string(raw)
		}
	}
	return values, nil
}

// UpdateFields writes the given columns for one record and bumps
// updated_at. Zero affected rows surface as sql.ErrNoRows.
func (s *RecordStore) UpdateFields(ctx context.Context, table, id string, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return fmt.Errorf("update %s: empty field map", table)
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	setParts := make([]string, 0, len(keys)+1)
	args := make([]interface{}, 0, len(keys)+1)
	for _, key := range keys {
		args = append(args, fields[key])
		setParts = append(setParts, fmt.Sprintf("%s = $%d", key, len(args)))
	}
	setParts = append(setParts, "updated_at = NOW()")
	args = append(args, id)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d", table, strings.Join(setParts, ", "), len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s update rows: %w", table, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteRecord removes one record. Zero affected rows surface as
// sql.ErrNoRows.
func (s *RecordStore) DeleteRecord(ctx context.Context, table, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = $1", table)
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check %s delete rows: %w", table, err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FieldValue reads a single column for one record, used for minimal
// department lookups during approval routing.
func (s *RecordStore) FieldValue(ctx context.Context, table, column, id string) (*string, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", column, table)
	var value sql.NullString
	row := s.db.QueryRowxContext(ctx, query, id)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("read %s.%s: %w", table, column, err)
	}
	if !value.Valid {
		return nil, nil
	}
	return &value.String, nil
}
