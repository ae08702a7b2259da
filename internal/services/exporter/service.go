package exporter

import (
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/refero/internal/models"
	"github.com/ternarybob/refero/internal/services/reports"
)

// Artifact is a rendered export ready to stream to the client
type Artifact struct {
	Data        []byte
	ContentType string
	Extension   string
}

// Service renders materialized views into downloadable artifacts
type Service struct {
	logger arbor.ILogger
}

// NewService creates a new exporter service
func NewService(logger arbor.ILogger) *Service {
	return &Service{logger: logger}
}

// Render serializes a view in the requested format. The xlsx format
// produces CSV bytes; spreadsheet apps open them directly and true
// OOXML output is out of scope.
func (s *Service) Render(view reports.MaterializedView, format models.ExportFormat, jobName string) (*Artifact, error) {
	switch format {
	case models.FormatPDF:
		data, err := renderPDF(view, jobName)
		if err != nil {
			return nil, fmt.Errorf("failed to render pdf: %w", err)
		}
		return &Artifact{Data: data, ContentType: "application/pdf", Extension: "pdf"}, nil
	case models.FormatXLSX:
		data, err := renderCSV(view)
		if err != nil {
			return nil, fmt.Errorf("failed to render csv: %w", err)
		}
		return &Artifact{Data: data, ContentType: "text/csv; charset=utf-8", Extension: "csv"}, nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// formatCell renders a single value for output
func formatCell(value interface{}) string {
	if value == nil {
		return ""
	}
	switch v := value.(type) {
	case time.Time:
		return v.Format("2006-01-02 15:04:05")
	case float64:
		return fmt.Sprintf("%.2f", v)
	case int:
		return fmt.Sprintf("%d", v)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
