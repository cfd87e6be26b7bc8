package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/minedata-id/mms-ops-api/internal/dto"
	"github.com/minedata-id/mms-ops-api/internal/models"
	"github.com/minedata-id/mms-ops-api/internal/service"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
	"github.com/minedata-id/mms-ops-api/pkg/response"
)

type approvalService interface {
	List(ctx context.Context, query dto.ApprovalQuery, actor *models.JWTClaims) ([]models.ApprovalRequest, error)
	Get(ctx context.Context, id string, actor *models.JWTClaims) (*models.ApprovalRequest, error)
	Resolve(ctx context.Context, id string, req dto.ResolveApprovalRequest, actor *models.JWTClaims) (*models.ApprovalRequest, error)
}

type approvalExporter interface {
	ResolvedRequests(ctx context.Context, format string) (*service.ExportResult, error)
}

// ApprovalHandler exposes REST endpoints for the approval queue.
type ApprovalHandler struct {
	service  approvalService
	exporter approvalExporter
}

// NewApprovalHandler constructs the handler.
func NewApprovalHandler(service approvalService, exporter approvalExporter) *ApprovalHandler {
	return &ApprovalHandler{service: service, exporter: exporter}
}

// List godoc
// @Summary List approval requests visible to the caller
// @Tags Approvals
// @Produce json
// @Param status query string false "Comma separated statuses"
// @Param entityKind query string false "Entity kind"
// @Param requestType query string false "Request type"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} response.Envelope
// @Router /approvals [get]
func (h *ApprovalHandler) List(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "approval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	query := dto.ApprovalQuery{
		EntityKind: strings.TrimSpace(c.Query("entityKind")),
	}
	if rawType := c.Query("requestType"); rawType != "" {
		query.RequestType = models.RequestType(strings.ToLower(strings.TrimSpace(rawType)))
	}
	if rawStatus := c.Query("status"); rawStatus != "" {
		parts := strings.Split(rawStatus, ",")
		statuses := make([]models.ApprovalStatus, 0, len(parts))
		for _, part := range parts {
			part = strings.ToUpper(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			statuses = append(statuses, models.ApprovalStatus(part))
		}
		query.Status = statuses
	}
	if rawLimit := c.Query("limit"); rawLimit != "" {
		if limit, err := strconv.Atoi(rawLimit); err == nil {
			query.Limit = limit
		}
	}
	if rawOffset := c.Query("offset"); rawOffset != "" {
		if offset, err := strconv.Atoi(rawOffset); err == nil {
			query.Offset = offset
		}
	}
	requests, err := h.service.List(c.Request.Context(), query, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get approval request detail
// @Tags Approvals
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /approvals/{id} [get]
func (h *ApprovalHandler) Get(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "approval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	request, err := h.service.Get(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Resolve godoc
// @Summary Approve or reject an approval request
// @Tags Approvals
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.ResolveApprovalRequest true "Resolution decision"
// @Success 200 {object} response.Envelope
// @Router /approvals/{id} [put]
func (h *ApprovalHandler) Resolve(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "approval service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req dto.ResolveApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid resolution payload"))
		return
	}
	req.Status = models.ApprovalStatus(strings.ToUpper(strings.TrimSpace(string(req.Status))))
	request, err := h.service.Resolve(c.Request.Context(), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Export godoc
// @Summary Export resolved approval requests
// @Tags Approvals
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /approvals/export [get]
func (h *ApprovalHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "export service not configured"))
		return
	}
	result, err := h.exporter.ResolvedRequests(c.Request.Context(), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+result.Filename)
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
