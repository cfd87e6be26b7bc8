package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/minedata-id/mms-ops-api/internal/dto"
	"github.com/minedata-id/mms-ops-api/internal/middleware"
	"github.com/minedata-id/mms-ops-api/internal/models"
	"github.com/minedata-id/mms-ops-api/internal/service"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
)

type fakeApprovalSrv struct {
	requests []models.ApprovalRequest
	request  *models.ApprovalRequest
	err      error

	lastQuery   dto.ApprovalQuery
	lastResolve dto.ResolveApprovalRequest
}

func (f *fakeApprovalSrv) List(_ context.Context, query dto.ApprovalQuery, _ *models.JWTClaims) ([]models.ApprovalRequest, error) {
	f.lastQuery = query
	return f.requests, f.err
}

func (f *fakeApprovalSrv) Get(_ context.Context, _ string, _ *models.JWTClaims) (*models.ApprovalRequest, error) {
	return f.request, f.err
}

func (f *fakeApprovalSrv) Resolve(_ context.Context, _ string, req dto.ResolveApprovalRequest, _ *models.JWTClaims) (*models.ApprovalRequest, error) {
	f.lastResolve = req
	return f.request, f.err
}

type fakeExporter struct {
	result *service.ExportResult
	err    error
}

func (f *fakeExporter) ResolvedRequests(_ context.Context, _ string) (*service.ExportResult, error) {
	return f.result, f.err
}

func TestApprovalHandlerListParsesQuery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeApprovalSrv{}
	handler := NewApprovalHandler(srv, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet,
		"/approvals?status=pending,pending_admin_approval&entityKind=kta-tta&requestType=data_change&limit=25&offset=5", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "planner-1", Role: models.RolePlanner})

	handler.List(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []models.ApprovalStatus{models.ApprovalStatusPending, models.ApprovalStatusPendingAdmin}, srv.lastQuery.Status)
	assert.Equal(t, "kta-tta", srv.lastQuery.EntityKind)
	assert.Equal(t, models.RequestTypeDataChange, srv.lastQuery.RequestType)
	assert.Equal(t, 25, srv.lastQuery.Limit)
	assert.Equal(t, 5, srv.lastQuery.Offset)
}

func TestApprovalHandlerGetNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApprovalHandler(&fakeApprovalSrv{err: appErrors.ErrNotFound}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/approvals/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApprovalHandlerResolveUppercasesStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeApprovalSrv{request: &models.ApprovalRequest{ID: "req-1", Status: models.ApprovalStatusApproved}}
	handler := NewApprovalHandler(srv, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/approvals/req-1",
		strings.NewReader(`{"status":"approved","note":"ok"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "planner-1", Role: models.RolePlanner})

	handler.Resolve(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ApprovalStatusApproved, srv.lastResolve.Status)
	assert.Equal(t, "ok", srv.lastResolve.Note)
}

func TestApprovalHandlerResolveConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApprovalHandler(&fakeApprovalSrv{err: appErrors.ErrInvalidTransition}, nil)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPut, "/approvals/req-1",
		strings.NewReader(`{"status":"REJECTED"}`))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Params = gin.Params{{Key: "id", Value: "req-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin})

	handler.Resolve(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestApprovalHandlerExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewApprovalHandler(&fakeApprovalSrv{}, &fakeExporter{result: &service.ExportResult{
		Filename:    "approvals-20260828.csv",
		ContentType: "text/csv",
		Data:        []byte("ID,Entity\n"),
	}})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/approvals/export?format=csv", nil)

	handler.Export(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "approvals-20260828.csv")
	assert.Equal(t, "ID,Entity\n", rec.Body.String())
}
