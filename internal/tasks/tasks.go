// package tasks implements bulk report jobs over the progress store.
package tasks

import (
	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtrack/internal/models"
)

// ReportSource lists users and builds their progress reports. [repositories.ProgressRepository] satisfies it.
type ReportSource interface {
	Users() ([]string, error)
	Report(userID string) ([]models.ReportRow, error)
}

// ReportExporter runs report exports against a [ReportSource].
type ReportExporter struct {
	source ReportSource
	logger *log.Logger
}

// NewReportExporter creates a new ReportExporter.
func NewReportExporter(source ReportSource, logger *log.Logger) *ReportExporter {
	if logger == nil {
		logger = log.Default()
	}
	return &ReportExporter{source: source, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *ReportExporter) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}
