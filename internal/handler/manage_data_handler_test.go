package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/minedata-id/mms-ops-api/internal/dto"
	"github.com/minedata-id/mms-ops-api/internal/middleware"
	"github.com/minedata-id/mms-ops-api/internal/models"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
)

type fakeManageDataSrv struct {
	outcome *dto.MutationOutcome
	err     error

	lastKind   string
	lastRecord string
	lastReq    dto.UpdateRecordRequest
}

func (f *fakeManageDataSrv) Update(_ context.Context, kindName, recordID string, req dto.UpdateRecordRequest, _ *models.JWTClaims) (*dto.MutationOutcome, error) {
	f.lastKind = kindName
	f.lastRecord = recordID
	f.lastReq = req
	return f.outcome, f.err
}

func (f *fakeManageDataSrv) Delete(_ context.Context, kindName, recordID string, _ *models.JWTClaims) error {
	f.lastKind = kindName
	f.lastRecord = recordID
	return f.err
}

func manageDataRequest(c *gin.Context, method, body string, claims *models.JWTClaims) {
	c.Request = httptest.NewRequest(method, "/manage-data/operational-report/rec-1", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{
		{Key: "entityKind", Value: "operational-report"},
		{Key: "id", Value: "rec-1"},
	}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
}

func TestManageDataHandlerUpdateApplied(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeManageDataSrv{outcome: &dto.MutationOutcome{Applied: true, Record: map[string]interface{}{"remarks": "after"}}}
	handler := NewManageDataHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	manageDataRequest(c, http.MethodPut, `{"fields":{"remarks":"after"}}`, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Update(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "operational-report", srv.lastKind)
	assert.Equal(t, "rec-1", srv.lastRecord)
}

func TestManageDataHandlerUpdateQueued(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeManageDataSrv{outcome: &dto.MutationOutcome{
		Applied: false,
		Request: &models.ApprovalRequest{ID: "req-1", Status: models.ApprovalStatusPending},
	}}
	handler := NewManageDataHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	manageDataRequest(c, http.MethodPut, `{"fields":{"remarks":"after"},"reason":"typo"}`, &models.JWTClaims{UserID: "inputter-1", Role: models.RoleInputter})

	handler.Update(c)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	var envelope struct {
		Data dto.MutationOutcome `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.Applied)
	assert.Equal(t, "req-1", envelope.Data.Request.ID)
	assert.Equal(t, "typo", srv.lastReq.Reason)
}

func TestManageDataHandlerUpdateInvalidPayload(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewManageDataHandler(&fakeManageDataSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	manageDataRequest(c, http.MethodPut, `{not json`, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Update(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestManageDataHandlerUpdateMissingClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewManageDataHandler(&fakeManageDataSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	manageDataRequest(c, http.MethodPut, `{"fields":{"remarks":"after"}}`, nil)

	handler.Update(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestManageDataHandlerDeleteForbidden(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeManageDataSrv{err: appErrors.Clone(appErrors.ErrForbidden, "role may not delete this data")}
	handler := NewManageDataHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	manageDataRequest(c, http.MethodDelete, "", &models.JWTClaims{UserID: "inputter-1", Role: models.RoleInputter})

	handler.Delete(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestManageDataHandlerDeleteSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeManageDataSrv{}
	handler := NewManageDataHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	manageDataRequest(c, http.MethodDelete, "", &models.JWTClaims{UserID: "planner-1", Role: models.RolePlanner})

	handler.Delete(c)
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "rec-1", srv.lastRecord)
}
