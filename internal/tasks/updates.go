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
	MountFeed Phase = iota
	LoadPage
	DownloadPosters
	WriteExport
)

func (p Phase) String() string {
	switch p {
	case MountFeed:
		return "mount_feed"
	case LoadPage:
		return "load_page"
	case DownloadPosters:
		return "download_posters"
	case WriteExport:
		return "write_export"
	default:
		return ""
	}
}

func mountFeedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MountFeed,
		Step:    1,
		Total:   total,
		Message: "Fetching genres and the first page...",
	}
}

func loadPageUpdate(step, total, movies int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Loaded page (%d movies)", step, total, movies),
		Data:    movies,
	}
}

func lastPageUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadPage,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Reached the last page after %d of %d", step, total),
	}
}

func posterCompletedUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadPosters,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, title),
	}
}

func posterFailedUpdate(step, total int, title, reason string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DownloadPosters,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %s", step, total, title, reason),
	}
}

func writeExportUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %s...", path),
		Data:    path,
	}
}
