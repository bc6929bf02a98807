package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Queue Phase = iota
	Upload
	Attach
	Complete
)

func (p Phase) String() string {
	switch p {
	case Queue:
		return "queue"
	case Upload:
		return "upload"
	case Attach:
		return "attach"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func queuedUpdate(total, workers int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Queue,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Uploading %d files with %d workers...", total, workers),
	}
}

func uploadingUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploading: %s...", step, total, name),
	}
}

func uploadedUpdate(step, total int, res FileUploadResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Filename)
	if res.Attached {
		msg += fmt.Sprintf(" (added to project %d)", res.ProjectID)
	}
	return ProgressUpdate{
		Phase:   Upload,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    res,
	}
}

func uploadFailedUpdate(step, total int, res FileUploadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Upload,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Filename, res.Err),
		Data:    res,
	}
}

func attachFailedUpdate(step, total int, res FileUploadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Attach,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ! %s uploaded but not added to project %d: %v", step, total, res.Filename, res.ProjectID, res.Err),
		Data:    res,
	}
}

func completeUpdate(result *BulkUploadResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    result.Total,
		Total:   result.Total,
		Message: fmt.Sprintf("Done: %d uploaded, %d failed", result.Succeeded, result.Failed),
		Data:    result,
	}
}
