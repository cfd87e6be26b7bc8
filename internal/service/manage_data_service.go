package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/minedata-id/mms-ops-api/internal/dto"
	"github.com/minedata-id/mms-ops-api/internal/models"
	"github.com/minedata-id/mms-ops-api/internal/policy"
	"github.com/minedata-id/mms-ops-api/internal/registry"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
)

type entityRegistry interface {
	Resolve(name string) (*registry.Kind, error)
	Lookup(ctx context.Context, kind *registry.Kind, id string, keys []string) (map[string]interface{}, error)
	ApplyUpdate(ctx context.Context, kind *registry.Kind, id string, fields map[string]interface{}) error
	ApplyDelete(ctx context.Context, kind *registry.Kind, id string) error
	DepartmentOf(ctx context.Context, kind *registry.Kind, id string) (*string, error)
}

type approvalCreator interface {
	Create(ctx context.Context, request *models.ApprovalRequest) error
}

type plannerFinder interface {
	FindPlannerByDepartment(ctx context.Context, departmentID string) (*models.User, error)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type queueInvalidator interface {
	Invalidate(ctx context.Context) error
}

type governanceMetrics interface {
	ObserveRequestCreated(status string)
	ObserveRequestResolved(decision string)
}

// ManageDataService is the entity-mutation dispatcher: it classifies
// every mutation attempt and either applies it immediately or captures
// it as an approval request routed to the right approver.
type ManageDataService struct {
	registry  entityRegistry
	capture   *ChangeCapture
	approvals approvalCreator
	users     plannerFinder
	audit     auditLogger
	queues    queueInvalidator
	metrics   governanceMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewManageDataService constructs the dispatcher.
func NewManageDataService(
	reg entityRegistry,
	capture *ChangeCapture,
	approvals approvalCreator,
	users plannerFinder,
	audit auditLogger,
	queues queueInvalidator,
	metrics governanceMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
) *ManageDataService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ManageDataService{
		registry:  reg,
		capture:   capture,
		approvals: approvals,
		users:     users,
		audit:     audit,
		queues:    queues,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// Update routes a proposed field map per the authorization policy:
// applied immediately for privileged roles, captured as a PENDING (or
// escalated) approval request for inputters, denied otherwise.
func (s *ManageDataService) Update(ctx context.Context, kindName, recordID string, req dto.UpdateRecordRequest, actor *models.JWTClaims) (*dto.MutationOutcome, error) {
	if actor == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "fields is required")
	}
	kind, err := s.registry.Resolve(kindName)
	if err != nil {
		return nil, err
	}
	requestType := req.RequestType
	if requestType == "" {
		requestType = models.RequestTypeDataChange
	}

	switch policy.Classify(actor.Role, policy.OpUpdate, requestType) {
	case policy.Direct:
		return s.applyDirect(ctx, kind, recordID, req.Fields, actor)
	case policy.ViaRequest:
		return s.createRequest(ctx, kind, recordID, req, requestType, actor)
	default:
		return nil, appErrors.Clone(appErrors.ErrForbidden, "role may not modify this data")
	}
}

// Delete removes a record directly. The current domain offers no
// deferred-deletion path, so anything below planner is denied outright.
func (s *ManageDataService) Delete(ctx context.Context, kindName, recordID string, actor *models.JWTClaims) error {
	if actor == nil {
		return appErrors.ErrUnauthorized
	}
	kind, err := s.registry.Resolve(kindName)
	if err != nil {
		return err
	}
	if policy.Classify(actor.Role, policy.OpDelete, "") != policy.Direct {
		return appErrors.Clone(appErrors.ErrForbidden, "role may not delete this data")
	}
	if err := s.registry.ApplyDelete(ctx, kind, recordID); err != nil {
		return err
	}
	s.emitAudit(ctx, actor, models.AuditActionDataDelete, kind.Name, recordID, nil, nil)
	return nil
}

func (s *ManageDataService) applyDirect(ctx context.Context, kind *registry.Kind, recordID string, fields map[string]interface{}, actor *models.JWTClaims) (*dto.MutationOutcome, error) {
	snapshot, err := s.capture.Capture(ctx, kind, &recordID, fields)
	if err != nil {
		return nil, err
	}
	if err := s.registry.ApplyUpdate(ctx, kind, recordID, fields); err != nil {
		return nil, err
	}
	record, err := s.registry.Lookup(ctx, kind, recordID, nil)
	if err != nil {
		return nil, err
	}
	s.emitAudit(ctx, actor, models.AuditActionDataUpdate, kind.Name, recordID, snapshot.OldData, snapshot.NewData)
	return &dto.MutationOutcome{Applied: true, Record: record}, nil
}

func (s *ManageDataService) createRequest(ctx context.Context, kind *registry.Kind, recordID string, req dto.UpdateRecordRequest, requestType models.RequestType, actor *models.JWTClaims) (*dto.MutationOutcome, error) {
	if strings.TrimSpace(req.Reason) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "reason is required")
	}
	snapshot, err := s.capture.Capture(ctx, kind, &recordID, req.Fields)
	if err != nil {
		return nil, err
	}
	department, err := s.registry.DepartmentOf(ctx, kind, recordID)
	if err != nil {
		return nil, err
	}

	route := policy.RouteApprover(actor.Role, department, requestType)
	request := &models.ApprovalRequest{
		RequestType:  requestType,
		EntityKind:   kind.Name,
		TableName:    kind.Table,
		RecordID:     &recordID,
		OldData:      snapshot.OldData,
		NewData:      snapshot.NewData,
		DepartmentID: department,
		ApproverRole: &route.ApproverRole,
		RequesterID:  actor.UserID,
		Status:       route.InitialStatus(),
		Reason:       strings.TrimSpace(req.Reason),
	}
	if !route.Escalate && department != nil {
		planner, err := s.users.FindPlannerByDepartment(ctx, *department)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve approver")
		}
		if planner != nil {
			request.ApproverID = &planner.ID
		}
	}
	if err := s.approvals.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create approval request")
	}
	s.invalidateQueues(ctx)
	if s.metrics != nil {
		s.metrics.ObserveRequestCreated(string(request.Status))
	}
	s.emitAudit(ctx, actor, models.AuditActionRequestCreate, kind.Name, recordID, snapshot.OldData, snapshot.NewData)
	return &dto.MutationOutcome{Applied: false, Request: request}, nil
}

func (s *ManageDataService) invalidateQueues(ctx context.Context) {
	if s.queues == nil {
		return
	}
	if err := s.queues.Invalidate(ctx); err != nil {
		s.logger.Warn("failed to invalidate approval queues", zap.Error(err))
	}
}

func (s *ManageDataService) emitAudit(ctx context.Context, actor *models.JWTClaims, action, resource, resourceID string, oldValues, newValues []byte) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &actor.UserID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		OldValues:  oldValues,
		NewValues:  newValues,
		IPAddress:  "system",
		UserAgent:  "manage-data-service",
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to persist audit log", zap.Error(err))
	}
}
