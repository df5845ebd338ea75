package workshop

import (
	"time"

	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/dataset"
)

// Fixed tab identifiers.
const (
	DataSourceTabID = "data-source-tab"
	FirstSheetID    = "sheet-1"
	AddTabID        = "add-tab-button"

	FirstSheetLabel = "sheet1"
	DataSourceLabel = "Data Source"
	AddTabLabel     = "+"

	sheetLabelPrefix = "sheet"
	sheetIDPrefix    = "tab-"
)

// TabKind distinguishes the entries shown in the tab bar.
type TabKind string

const (
	TabDataSource TabKind = "data_source"
	TabSheet      TabKind = "sheet"
	TabAdd        TabKind = "add"
)

// Sheet is one chart tab. Sheets are never mutated after creation.
type Sheet struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Tab is a display entry of the tab bar.
type Tab struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Kind     TabKind `json:"kind"`
	Closable bool    `json:"closable"`
	Active   bool    `json:"active"`
}

// Workspace is the typed state of one session.
type Workspace struct {
	ID        string                    `json:"id"`
	Sheets    []Sheet                   `json:"sheets"`
	ActiveTab string                    `json:"active_tab"`
	Settings  map[string]chart.Settings `json:"settings"`
	CreatedAt time.Time                 `json:"created_at"`
	UpdatedAt time.Time                 `json:"updated_at"`
}

// Overview is the workspace plus a summary of its dataset.
type Overview struct {
	Workspace *Workspace       `json:"workspace"`
	Tabs      []Tab            `json:"tabs"`
	Data      *dataset.Summary `json:"data,omitempty"`
}

// SheetView is what a sheet shows: resolved settings and the column options.
type SheetView struct {
	Sheet      Sheet             `json:"sheet"`
	Settings   chart.Settings    `json:"settings"`
	Columns    []string          `json:"columns"`
	GraphTypes []chart.GraphType `json:"graph_types"`
	HasData    bool              `json:"has_data"`
	Configured bool              `json:"configured"`
	DateFilter bool              `json:"date_filter_available"`
}

// ConfigureRequest carries a chart configuration change for one sheet.
// An empty SheetID targets the active sheet.
type ConfigureRequest struct {
	SheetID   string
	GraphType string
	XAxis     string
	YAxis     string
	StartDate string
	EndDate   string
}

// ConfigureResult is the outcome of a chart configuration change.
type ConfigureResult struct {
	SheetID string        `json:"sheet_id"`
	Result  *chart.Result `json:"result"`
}
