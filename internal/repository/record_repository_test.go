package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func newRecordStoreMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRecordStoreLookupFields(t *testing.T) {
	db, mock, cleanup := newRecordStoreMock(t)
	defer cleanup()

	store := NewRecordStore(db)
	rows := sqlmock.NewRows([]string{"remarks", "shift"}).
		AddRow([]byte("all good"), "DAY")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT remarks, shift FROM operational_reports WHERE id = $1")).
		WithArgs("rec-1").
		WillReturnRows(rows)

	values, err := store.LookupFields(context.Background(), "operational_reports", "rec-1", []string{"remarks", "shift"})
	require.NoError(t, err)
	require.Equal(t, "all good", values["remarks"])
	require.Equal(t, "DAY", values["shift"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStoreUpdateFieldsOrdersColumns(t *testing.T) {
	db, mock, cleanup := newRecordStoreMock(t)
	defer cleanup()

	store := NewRecordStore(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE operational_reports SET remarks = $1, shift = $2, updated_at = NOW() WHERE id = $3")).
		WithArgs("fixed", "NIGHT", "rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.UpdateFields(context.Background(), "operational_reports", "rec-1", map[string]interface{}{
		"shift":   "NIGHT",
		"remarks": "fixed",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStoreUpdateFieldsMissingRecord(t *testing.T) {
	db, mock, cleanup := newRecordStoreMock(t)
	defer cleanup()

	store := NewRecordStore(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE operational_reports")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.UpdateFields(context.Background(), "operational_reports", "gone", map[string]interface{}{
		"remarks": "fixed",
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRecordStoreDeleteRecord(t *testing.T) {
	db, mock, cleanup := newRecordStoreMock(t)
	defer cleanup()

	store := NewRecordStore(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM critical_issues WHERE id = $1")).
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.DeleteRecord(context.Background(), "critical_issues", "rec-1"))

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM critical_issues WHERE id = $1")).
		WithArgs("rec-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, store.DeleteRecord(context.Background(), "critical_issues", "rec-1"), sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordStoreFieldValueNull(t *testing.T) {
	db, mock, cleanup := newRecordStoreMock(t)
	defer cleanup()

	store := NewRecordStore(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT department_id FROM safety_incidents WHERE id = $1")).
		WithArgs("rec-1").
		WillReturnRows(sqlmock.NewRows([]string{"department_id"}).AddRow(nil))

	value, err := store.FieldValue(context.Background(), "safety_incidents", "department_id", "rec-1")
	require.NoError(t, err)
	require.Nil(t, value)
	require.NoError(t, mock.ExpectationsWereMet())
}
