package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/minedata-id/mms-ops-api/internal/dto"
	"github.com/minedata-id/mms-ops-api/internal/models"
	"github.com/minedata-id/mms-ops-api/internal/policy"
	"github.com/minedata-id/mms-ops-api/internal/registry"
	"github.com/minedata-id/mms-ops-api/internal/repository"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
)

type approvalStore interface {
	GetByID(ctx context.Context, id string) (*models.ApprovalRequest, error)
	List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
	Resolve(ctx context.Context, id string, fn repository.ResolveFunc) (*models.ApprovalRequest, error)
}

type approvedApplier interface {
	Apply(ctx context.Context, request *models.ApprovalRequest, store registry.Store) error
}

type approvalQueueCache interface {
	GetList(ctx context.Context, key string) ([]models.ApprovalRequest, bool)
	SetList(ctx context.Context, key string, requests []models.ApprovalRequest)
	Invalidate(ctx context.Context) error
}

// ApprovalService owns the request queue and the resolution state
// machine. Resolution runs inside one repository transaction so the
// status transition and the entity mutation commit or roll back as one.
type ApprovalService struct {
	repo    approvalStore
	records *repository.RecordStore
	applier approvedApplier
	audit   auditLogger
	cache   approvalQueueCache
	metrics governanceMetrics
	logger  *zap.Logger
}

// NewApprovalService constructs the service.
func NewApprovalService(
	repo approvalStore,
	records *repository.RecordStore,
	applier approvedApplier,
	audit auditLogger,
	cache approvalQueueCache,
	metrics governanceMetrics,
	logger *zap.Logger,
) *ApprovalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ApprovalService{
		repo:    repo,
		records: records,
		applier: applier,
		audit:   audit,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// List returns approval requests visible to the actor. Approvers see
// their assigned requests plus unassigned ones routed to their
// department; requesters see their own submissions; admins see
// everything, escalated items included.
func (s *ApprovalService) List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	filter := models.ApprovalFilter{
		Status:      query.Status,
		EntityKind:  strings.TrimSpace(query.EntityKind),
		RequestType: query.RequestType,
		Limit:       query.Limit,
		Offset:      query.Offset,
	}
	if len(filter.Status) == 0 {
		filter.Status = []models.ApprovalStatus{models.ApprovalStatusPending, models.ApprovalStatusPendingAdmin}
	}
	switch actor.Role {
	case models.RoleAdmin:
		// oversight: no actor constraints
	case models.RolePlanner:
		filter.ApproverID = actor.UserID
		filter.DepartmentID = actor.DepartmentID
		filter.UnassignedForDepartment = true
	case models.RoleInputter:
		filter.RequesterID = actor.UserID
	default:
		return nil, appErrors.ErrForbidden
	}

	cacheKey := s.queueCacheKey(filter, actor)
	if cacheKey != "" && s.cache != nil {
		if cached, ok := s.cache.GetList(ctx, cacheKey); ok {
			return cached, nil
		}
	}
	requests, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list approval requests")
	}
	if cacheKey != "" && s.cache != nil {
		s.cache.SetList(ctx, cacheKey, requests)
	}
	return requests, nil
}

// Get returns one request enforcing the same visibility rules.
func (s *ApprovalService) Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approval request")
	}
	if !s.visibleTo(actor, request) {
		return nil, appErrors.ErrForbidden
	}
	return request, nil
}

// Resolve transitions an open request to APPROVED or REJECTED. On
// approval the stored new-state snapshot is applied to the target entity
// inside the same transaction; if that fails the request stays open.
func (s *ApprovalService) Resolve(ctx context.Context, id string, req dto.ResolveApprovalRequest, actor *models.JWTClaims) (*models.ApprovalRequest, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if req.Status != models.ApprovalStatusApproved && req.Status != models.ApprovalStatusRejected {
		return nil, appErrors.Clone(appErrors.ErrValidation, "status must be APPROVED or REJECTED")
	}

	resolved, err := s.repo.Resolve(ctx, id, func(tx *sqlx.Tx, request *models.ApprovalRequest) (repository.ResolveParams, error) {
		if !request.Status.Open() {
			return repository.ResolveParams{}, appErrors.ErrInvalidTransition
		}
		if !policy.CanResolve(actor, request) {
			if request.Status == models.ApprovalStatusPendingAdmin {
				return repository.ResolveParams{}, appErrors.Clone(appErrors.ErrForbidden, "admin authority required to resolve this request")
			}
			return repository.ResolveParams{}, appErrors.Clone(appErrors.ErrForbidden, "not the designated approver")
		}
		if req.Status == models.ApprovalStatusApproved {
			var store registry.Store
			if tx != nil && s.records != nil {
				store = s.records.WithTx(tx)
			}
			if err := s.applier.Apply(ctx, request, store); err != nil {
				return repository.ResolveParams{}, err
			}
		}
		return repository.ResolveParams{
			Status:         req.Status,
			ApproverID:     actor.UserID,
			ApprovedAt:     time.Now().UTC(),
			ResolutionNote: optionalString(req.Note),
		}, nil
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		var typed *appErrors.Error
		if errors.As(err, &typed) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve approval request")
	}

	s.invalidateQueues(ctx)
	if s.metrics != nil {
		s.metrics.ObserveRequestResolved(string(resolved.Status))
	}
	s.emitAudit(ctx, actor, resolved)
	return resolved, nil
}

func (s *ApprovalService) visibleTo(actor *models.JWTClaims, request *models.ApprovalRequest) bool {
	if actor.Role == models.RoleAdmin {
		return true
	}
	if request.RequesterID == actor.UserID {
		return true
	}
	return policy.CanResolve(actor, request)
}

// queueCacheKey returns a cache key for open-queue listings, or "" when
// the query is not cacheable (explicit pagination or terminal statuses).
func (s *ApprovalService) queueCacheKey(filter models.ApprovalFilter, actor *models.JWTClaims) string {
	if filter.Offset != 0 {
		return ""
	}
	statuses := make([]string, 0, len(filter.Status))
	for _, status := range filter.Status {
		if !status.Open() {
			return ""
		}
		statuses = append(statuses, string(status))
	}
	return fmt.Sprintf("%s:%s:%s:%s:%s:%d",
		actor.Role, actor.UserID, filter.EntityKind, filter.RequestType, strings.Join(statuses, ","), filter.Limit)
}

func (s *ApprovalService) invalidateQueues(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate approval queues", zap.Error(err))
	}
}

func (s *ApprovalService) emitAudit(ctx context.Context, actor *models.JWTClaims, request *models.ApprovalRequest) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     models.AuditActionRequestResolve,
		Resource:   request.EntityKind,
		ResourceID: request.RecordID,
		OldValues:  request.OldData,
		NewValues:  request.NewData,
		IPAddress:  "system",
		UserAgent:  "approval-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
