package mcp

import (
	"github.com/rpggio/easybi/internal/domain/dataset"
	"github.com/rpggio/easybi/internal/domain/workshop"
)

type SessionParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"workspace session id; defaults to the mcp session"`
}

type CloseSheetParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"workspace session id; defaults to the mcp session"`
	SheetID   string `json:"sheet_id" jsonschema:"id of the sheet to close"`
}

type ActivateTabParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"workspace session id; defaults to the mcp session"`
	TabID     string `json:"tab_id" jsonschema:"sheet id, data-source-tab, or add-tab-button to create a sheet"`
}

type ConfigureChartParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"workspace session id; defaults to the mcp session"`
	SheetID   string `json:"sheet_id,omitempty" jsonschema:"sheet to configure; defaults to the active tab"`
	GraphType string `json:"graph_type,omitempty" jsonschema:"histogram, pie, scatter or line"`
	XAxis     string `json:"x_axis" jsonschema:"column for the x axis or pie names"`
	YAxis     string `json:"y_axis,omitempty" jsonschema:"column for the y axis; optional for pie"`
	StartDate string `json:"start_date,omitempty" jsonschema:"inclusive lower bound on the date column"`
	EndDate   string `json:"end_date,omitempty" jsonschema:"inclusive upper bound on the date column"`
}

type ImportURLParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"workspace session id; defaults to the mcp session"`
	URL       string `json:"url" jsonschema:"http or https URL of a CSV file"`
}

type ImportDatabaseParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"workspace session id; defaults to the mcp session"`
	Driver    string `json:"driver" jsonschema:"mysql, postgres or sqlite"`
	Host      string `json:"host,omitempty" jsonschema:"database host; unused for sqlite"`
	Port      int    `json:"port,omitempty" jsonschema:"database port; driver default when omitted"`
	User      string `json:"user,omitempty"`
	Password  string `json:"password,omitempty"`
	Database  string `json:"database" jsonschema:"database name; for sqlite a file relative to the server's import directory"`
	Table     string `json:"table" jsonschema:"table to read with SELECT *"`
}

type PreviewDataParams struct {
	SessionID string `json:"session_id,omitempty" jsonschema:"workspace session id; defaults to the mcp session"`
	Page      int    `json:"page,omitempty" jsonschema:"1-based page number"`
	PageSize  int    `json:"page_size,omitempty" jsonschema:"rows per page, default 10"`
}

type GetRecentActivityParams struct {
	SessionID    string `json:"session_id,omitempty" jsonschema:"workspace session id; defaults to the mcp session"`
	SheetID      string `json:"sheet_id,omitempty"`
	ActivityType string `json:"activity_type,omitempty"`
	Limit        int    `json:"limit,omitempty"`
	Offset       int    `json:"offset,omitempty"`
}

// TabsResult is returned by tools that change the tab bar.
type TabsResult struct {
	SessionID string          `json:"session_id"`
	ActiveTab string          `json:"active_tab"`
	Tabs      []workshop.Tab  `json:"tabs"`
	Sheet     *workshop.Sheet `json:"sheet,omitempty"`
	Closed    *bool           `json:"closed,omitempty"`
}

// ImportResult describes a successful import.
type ImportResult struct {
	SessionID string          `json:"session_id"`
	Summary   dataset.Summary `json:"summary"`
}

// PreviewResult is one page of the current dataset.
type PreviewResult struct {
	SessionID string           `json:"session_id"`
	Columns   []string         `json:"columns"`
	Rows      []dataset.Record `json:"rows"`
	Page      int              `json:"page"`
	PageSize  int              `json:"page_size"`
	TotalRows int              `json:"total_rows"`
}
