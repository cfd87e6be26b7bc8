package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/minedata-id/mms-ops-api/internal/models"
)

const approvalColumns = `id, request_type, entity_kind, table_name, record_id, old_data, new_data,
       department_id, approver_role, requester_id, approver_id, status, reason,
       resolution_note, approved_at, created_at, updated_at`

// ApprovalRepository persists approval-request workflow data.
type ApprovalRepository struct {
	db *sqlx.DB
}

// NewApprovalRepository constructs the repository.
func NewApprovalRepository(db *sqlx.DB) *ApprovalRepository {
	return &ApprovalRepository{db: db}
}

// BeginTx opens the transaction that carries a resolution end to end.
func (r *ApprovalRepository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin approval tx: %w", err)
	}
	return tx, nil
}

// Create inserts a new approval request row.
func (r *ApprovalRepository) Create(ctx context.Context, request *models.ApprovalRequest) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	if request.Status == "" {
		request.Status = models.ApprovalStatusPending
	}
	now := time.Now().UTC()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now
	const query = `INSERT INTO approval_requests
	(id, request_type, entity_kind, table_name, record_id, old_data, new_data,
	 department_id, approver_role, requester_id, approver_id, status, reason,
	 resolution_note, approved_at, created_at, updated_at)
	VALUES (:id, :request_type, :entity_kind, :table_name, :record_id, :old_data, :new_data,
	 :department_id, :approver_role, :requester_id, :approver_id, :status, :reason,
	 :resolution_note, :approved_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create approval request: %w", err)
	}
	return nil
}

// GetByID fetches an approval request by identifier.
func (r *ApprovalRepository) GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM approval_requests WHERE id = $1", approvalColumns)
	var request models.ApprovalRequest
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// GetByIDForUpdate locks the request row inside the resolution
// transaction so concurrent resolvers serialize on it.
func (r *ApprovalRepository) GetByIDForUpdate(ctx context.Context, tx *sqlx.Tx, id string) (*models.ApprovalRequest, error) {
	query := fmt.Sprintf("SELECT %s FROM approval_requests WHERE id = $1 FOR UPDATE", approvalColumns)
	var request models.ApprovalRequest
	if err := tx.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns approval requests matching the filter, latest first.
func (r *ApprovalRepository) List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 8)
	builder.WriteString(fmt.Sprintf("SELECT %s FROM approval_requests", approvalColumns))

	conditions := make([]string, 0, 6)
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.EntityKind != "" {
		args = append(args, filter.EntityKind)
		conditions = append(conditions, fmt.Sprintf("entity_kind = $%d", len(args)))
	}
	if filter.RequestType != "" {
		args = append(args, filter.RequestType)
		conditions = append(conditions, fmt.Sprintf("request_type = $%d", len(args)))
	}
	if filter.RequesterID != "" {
		args = append(args, filter.RequesterID)
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)))
	}
	if filter.ApproverID != "" {
		if filter.UnassignedForDepartment && filter.DepartmentID != "" {
			args = append(args, filter.ApproverID)
			approverArg := len(args)
			args = append(args, filter.DepartmentID)
			conditions = append(conditions, fmt.Sprintf(
				"(approver_id = $%d OR (approver_id IS NULL AND department_id = $%d))", approverArg, len(args)))
		} else {
			args = append(args, filter.ApproverID)
			conditions = append(conditions, fmt.Sprintf("approver_id = $%d", len(args)))
		}
	} else if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset))

	var requests []models.ApprovalRequest
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list approval requests: %w", err)
	}
	return requests, nil
}

// ResolveFunc runs the business checks and the entity mutation inside
// the resolution transaction. It returns the terminal parameters to
// write, or an error to roll the whole resolution back.
type ResolveFunc func(tx *sqlx.Tx, request *models.ApprovalRequest) (ResolveParams, error)

// Resolve executes a resolution atomically: lock the request row, run
// the caller's checks and entity mutation, write the terminal status.
// All of it commits or rolls back together, which is what guarantees
// at-most-once application of an approved change.
func (r *ApprovalRepository) Resolve(ctx context.Context, id string, fn ResolveFunc) (*models.ApprovalRequest, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback() //nolint:errcheck

	request, err := r.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	params, err := fn(tx, request)
	if err != nil {
		return nil, err
	}
	params.ID = request.ID
	if err := r.MarkResolved(ctx, tx, params); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit approval resolution: %w", err)
	}

	request.Status = params.Status
	request.ApproverID = &params.ApproverID
	request.ApprovedAt = &params.ApprovedAt
	request.ResolutionNote = params.ResolutionNote
	request.UpdatedAt = params.ApprovedAt
	return request, nil
}

// ResolveParams groups the columns a resolution may touch. Snapshots are
// deliberately absent: old_data and new_data never change after creation.
type ResolveParams struct {
	ID             string
	Status         models.ApprovalStatus
	ApproverID     string
	ApprovedAt     time.Time
	ResolutionNote *string
}

// MarkResolved writes the terminal state, guarded so only open requests
// transition. Zero affected rows mean the request was already resolved
// and surface as sql.ErrNoRows.
func (r *ApprovalRepository) MarkResolved(ctx context.Context, ext sqlx.ExtContext, params ResolveParams) error {
	const query = `UPDATE approval_requests
	SET status = $1, approver_id = $2, approved_at = $3, resolution_note = $4, updated_at = $3
	WHERE id = $5 AND status IN ($6, $7)`
	result, err := ext.ExecContext(ctx, query,
		params.Status,
		params.ApproverID,
		params.ApprovedAt,
		params.ResolutionNote,
		params.ID,
		models.ApprovalStatusPending,
		models.ApprovalStatusPendingAdmin,
	)
	if err != nil {
		return fmt.Errorf("resolve approval request: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval resolve rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
