package activity

import "time"

// ActivityType represents the type of workshop event
type ActivityType string

const (
	TypeSheetAdded       ActivityType = "sheet_added"
	TypeSheetClosed      ActivityType = "sheet_closed"
	TypeTabActivated     ActivityType = "tab_activated"
	TypeAxesUpdated      ActivityType = "axes_updated"
	TypeChartConfigured  ActivityType = "chart_configured"
	TypeChartDeclined    ActivityType = "chart_declined"
	TypeDataImported     ActivityType = "data_imported"
	TypeImportFailed     ActivityType = "import_failed"
	TypeWorkspaceCreated ActivityType = "workspace_created"
)

// ActivityEntry represents an event in the activity log
type ActivityEntry struct {
	ID           int64        `json:"id"`
	WorkspaceID  string       `json:"workspace_id"`
	SheetID      *string      `json:"sheet_id,omitempty"`
	ActivityType ActivityType `json:"type"`
	Summary      string       `json:"summary"`
	Details      string       `json:"details,omitempty"` // JSON string
	CreatedAt    time.Time    `json:"created_at"`
}
