package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/minedata-id/mms-ops-api/internal/dto"
	"github.com/minedata-id/mms-ops-api/internal/models"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
	"github.com/minedata-id/mms-ops-api/pkg/response"
)

type manageDataService interface {
	Update(ctx context.Context, kindName, recordID string, req dto.UpdateRecordRequest, actor *models.JWTClaims) (*dto.MutationOutcome, error)
	Delete(ctx context.Context, kindName, recordID string, actor *models.JWTClaims) error
}

// ManageDataHandler exposes REST endpoints for governed entity mutations.
type ManageDataHandler struct {
	service manageDataService
}

// NewManageDataHandler constructs the handler.
func NewManageDataHandler(service manageDataService) *ManageDataHandler {
	return &ManageDataHandler{service: service}
}

// Update godoc
// @Summary Update an entity record or submit a change request
// @Tags ManageData
// @Accept json
// @Produce json
// @Param entityKind path string true "Entity kind"
// @Param id path string true "Record ID"
// @Param payload body dto.UpdateRecordRequest true "Proposed field values"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /manage-data/{entityKind}/{id} [put]
func (h *ManageDataHandler) Update(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "manage-data service not configured"))
		return
	}
	var req dto.UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid update payload"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	outcome, err := h.service.Update(c.Request.Context(), c.Param("entityKind"), c.Param("id"), req, claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	if outcome.Applied {
		response.JSON(c, http.StatusOK, outcome, nil)
		return
	}
	response.JSON(c, http.StatusAccepted, outcome, nil)
}

// Delete godoc
// @Summary Delete an entity record
// @Tags ManageData
// @Produce json
// @Param entityKind path string true "Entity kind"
// @Param id path string true "Record ID"
// @Success 204
// @Router /manage-data/{entityKind}/{id} [delete]
func (h *ManageDataHandler) Delete(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "manage-data service not configured"))
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Delete(c.Request.Context(), c.Param("entityKind"), c.Param("id"), claims); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
