package services

import (
	"context"
	"strings"
	"time"
)

type ExportFormat string

const (
	ExportResponses ExportFormat = "responses"
	ExportAnswers   ExportFormat = "answers"
	ExportPDF       ExportFormat = "pdf"
)

type ExportParams struct {
	BusinessID string
	SurveyID   string
	Format     string
}

type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ExportService struct {
	responses *ResponseService
	now       func() time.Time
}

func NewExportService(responses *ResponseService) *ExportService {
	return &ExportService{responses: responses, now: func() time.Time { return time.Now().UTC() }}
}

func (s *ExportService) Export(ctx context.Context, params ExportParams) (*ExportResult, error) {
	if strings.TrimSpace(params.BusinessID) == "" {
		return nil, NewInvalidError("business id required")
	}
	format := ExportFormat(strings.ToLower(strings.TrimSpace(params.Format)))
	if format == "" {
		format = ExportResponses
	}
	switch format {
	case ExportResponses, ExportAnswers, ExportPDF:
	default:
		return nil, NewInvalidError("unsupported format")
	}

	var (
		views []ResponseView
		err   error
	)
	if params.SurveyID != "" {
		views, err = s.responses.ListSurveyResponses(ctx, params.BusinessID, params.SurveyID)
	} else {
		views, err = s.responses.ListBusinessResponses(ctx, params.BusinessID)
	}
	if err != nil {
		return nil, err
	}
	return RenderExport(format, views, s.now())
}

// RenderExport renders views in the given format. at stamps the filename.
func RenderExport(format ExportFormat, views []ResponseView, at time.Time) (*ExportResult, error) {
	stamp := at.UTC().Format("20060102-150405")
	switch format {
	case ExportResponses:
		b, err := ExportResponsesCSV(views)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "responses-" + stamp + ".csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case ExportAnswers:
		b, err := ExportAnswersCSV(views)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "answers-" + stamp + ".csv", ContentType: "text/csv; charset=utf-8", Data: b}, nil
	case ExportPDF:
		b, err := ExportResponsesPDF(views, at)
		if err != nil {
			return nil, err
		}
		return &ExportResult{Filename: "responses-" + stamp + ".pdf", ContentType: "application/pdf", Data: b}, nil
	}
	return nil, NewInvalidError("unsupported format")
}
