package storage

import (
	"github.com/go-gota/gota/dataframe"

	"house-flipping/models"
)

// Report is a named result table ready for export.
type Report struct {
	Name  string
	Frame dataframe.DataFrame
}

// ReportWriter is the interface any report export backend must satisfy.
type ReportWriter interface {
	WriteReports(reports []Report) error
	Close() error
}

// OpportunityWriter persists the opportunities of one pipeline run.
type OpportunityWriter interface {
	WriteOpportunities(runID string, report *models.OpportunityReport) error
	Close() error
}
