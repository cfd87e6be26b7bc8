package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/minedata-id/mms-ops-api/internal/models"
)

// UserRepository reads identity records for approver routing.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID fetches a user by identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	const query = `SELECT id, email, full_name, role, department_id, active, last_login, created_at, updated_at
	FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindPlannerByDepartment returns the department's active planner for
// queue assignment, or nil when the department has none. With several
// planners the first by name wins so assignment stays deterministic.
func (r *UserRepository) FindPlannerByDepartment(ctx context.Context, departmentID string) (*models.User, error) {
	const query = `SELECT id, email, full_name, role, department_id, active, last_login, created_at, updated_at
	FROM users WHERE role = $1 AND department_id = $2 AND active = TRUE
	ORDER BY full_name ASC LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, models.RolePlanner, departmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find department planner: %w", err)
	}
	return &user, nil
}
