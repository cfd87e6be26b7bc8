package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minedata-id/mms-ops-api/internal/models"
	appErrors "github.com/minedata-id/mms-ops-api/pkg/errors"
	"github.com/minedata-id/mms-ops-api/pkg/export"
)

type exportApprovalStore interface {
	List(ctx context.Context, filter models.ApprovalFilter) ([]models.ApprovalRequest, error)
}

// ExportService renders resolved approval requests as downloadable audit
// documents.
type ExportService struct {
	approvals exportApprovalStore
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
}

// NewExportService constructs the service.
func NewExportService(approvals exportApprovalStore) *ExportService {
	return &ExportService{
		approvals: approvals,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
	}
}

// ExportResult carries a rendered document.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ResolvedRequests renders the latest resolved requests in the requested
// format (csv or pdf).
func (s *ExportService) ResolvedRequests(ctx context.Context, format string) (*ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	requests, err := s.approvals.List(ctx, models.ApprovalFilter{
		Status: []models.ApprovalStatus{models.ApprovalStatusApproved, models.ApprovalStatusRejected},
		Limit:  200,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load resolved requests")
	}

	dataset := export.Dataset{
		Headers: []string{"ID", "Entity", "Record", "Type", "Status", "Requested By", "Resolved By", "Resolved At", "Reason"},
	}
	for _, request := range requests {
		row := map[string]string{
			"ID":           request.ID,
			"Entity":       request.EntityKind,
			"Record":       derefOr(request.RecordID, "-"),
			"Type":         string(request.RequestType),
			"Status":       string(request.Status),
			"Requested By": request.RequesterID,
			"Resolved By":  derefOr(request.ApproverID, "-"),
			"Reason":       request.Reason,
		}
		if request.ApprovedAt != nil {
			row["Resolved At"] = request.ApprovedAt.UTC().Format(time.RFC3339)
		} else {
			row["Resolved At"] = "-"
		}
		dataset.Rows = append(dataset.Rows, row)
	}

	stamp := time.Now().UTC().Format("20060102")
	if format == "pdf" {
		data, err := s.pdf.Render(dataset, "Resolved change requests")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportResult{
			Filename:    fmt.Sprintf("approvals-%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	}
	data, err := s.csv.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("approvals-%s.csv", stamp),
		ContentType: "text/csv",
		Data:        data,
	}, nil
}

func derefOr(value *string, fallback string) string {
	if value == nil || *value == "" {
		return fallback
	}
	return *value
}
