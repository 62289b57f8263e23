package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ListUsers Phase = iota
	ExportReport
)

func (p Phase) String() string {
	switch p {
	case ListUsers:
		return "list_users"
	case ExportReport:
		return "export_report"
	default:
		return ""
	}
}

func listUsersUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ListUsers,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d users with recorded progress", total),
	}
}

func exportingReportUpdate(step, total int, user string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, user),
	}
}

func exportCompletedUpdate(step, total int, user string, rows int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d segments)", step, total, user, rows),
	}
}

func exportFailedUpdate(step, total int, user string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, user, err),
	}
}
