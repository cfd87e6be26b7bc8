package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/minedata-id/mms-ops-api/internal/models"
)

func newApprovalRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func approvalRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "request_type", "entity_kind", "table_name", "record_id", "old_data", "new_data",
		"department_id", "approver_role", "requester_id", "approver_id", "status", "reason",
		"resolution_note", "approved_at", "created_at", "updated_at",
	})
}

func TestApprovalRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO approval_requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	recordID := "rec-1"
	request := &models.ApprovalRequest{
		RequestType: models.RequestTypeDataChange,
		EntityKind:  "operational-report",
		TableName:   "operational_reports",
		RecordID:    &recordID,
		OldData:     []byte(`{"remarks":"old"}`),
		NewData:     []byte(`{"remarks":"new"}`),
		RequesterID: "user-1",
		Reason:      "correcting shift totals",
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)
	require.Equal(t, models.ApprovalStatusPending, request.Status)

	rows := approvalRows().AddRow(
		request.ID, "data_change", "operational-report", "operational_reports", "rec-1",
		`{"remarks":"old"}`, `{"remarks":"new"}`, nil, nil, "user-1", nil,
		"PENDING", "correcting shift totals", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request_type, entity_kind")).
		WithArgs(request.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, request.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryListPlannerQueue(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	rows := approvalRows().AddRow(
		"req-1", "data_change", "kta-tta", "kta_tta_reports", "rec-1",
		nil, `{}`, "dept-1", "PLANNER", "user-1", nil,
		"PENDING", "fix", nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("approver_id = $2 OR (approver_id IS NULL AND department_id = $3)")).
		WithArgs("PENDING", "planner-1", "dept-1").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ApprovalFilter{
		Status:                  []models.ApprovalStatus{models.ApprovalStatusPending},
		ApproverID:              "planner-1",
		DepartmentID:            "dept-1",
		UnassignedForDepartment: true,
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "req-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryResolveCommits(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	now := time.Now().UTC()

	mock.ExpectBegin()
	rows := approvalRows().AddRow(
		"req-1", "data_change", "operational-report", "operational_reports", "rec-1",
		nil, `{"remarks":"new"}`, "dept-1", "PLANNER", "user-1", "planner-1",
		"PENDING", "fix", nil, nil, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("req-1").
		WillReturnRows(rows)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	resolved, err := repo.Resolve(context.Background(), "req-1", func(tx *sqlx.Tx, request *models.ApprovalRequest) (ResolveParams, error) {
		require.NotNil(t, tx)
		require.Equal(t, models.ApprovalStatusPending, request.Status)
		return ResolveParams{
			Status:     models.ApprovalStatusApproved,
			ApproverID: "planner-1",
			ApprovedAt: now,
		}, nil
	})
	require.NoError(t, err)
	require.Equal(t, models.ApprovalStatusApproved, resolved.Status)
	require.NotNil(t, resolved.ApprovedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryResolveRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)

	mock.ExpectBegin()
	rows := approvalRows().AddRow(
		"req-1", "data_change", "operational-report", "operational_reports", "rec-1",
		nil, `{}`, nil, nil, "user-1", nil,
		"APPROVED", "fix", nil, time.Now(), time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("req-1").
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := repo.Resolve(context.Background(), "req-1", func(tx *sqlx.Tx, request *models.ApprovalRequest) (ResolveParams, error) {
		return ResolveParams{}, sql.ErrTxDone
	})
	require.ErrorIs(t, err, sql.ErrTxDone)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApprovalRepositoryMarkResolvedGuard(t *testing.T) {
	db, mock, cleanup := newApprovalRepoMock(t)
	defer cleanup()

	repo := NewApprovalRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE approval_requests")).
		WithArgs(
			models.ApprovalStatusApproved, "planner-1", sqlmock.AnyArg(), nil, "req-1",
			models.ApprovalStatusPending, models.ApprovalStatusPendingAdmin).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkResolved(context.Background(), db, ResolveParams{
		ID:         "req-1",
		Status:     models.ApprovalStatusApproved,
		ApproverID: "planner-1",
		ApprovedAt: time.Now(),
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
