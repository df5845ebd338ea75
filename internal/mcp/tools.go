package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/easybi/internal/domain/activity"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/ingest"
)

const defaultPageSize = 10

type tools struct {
	svc Services
}

func registerTools(server *sdkmcp.Server, svc Services) {
	t := &tools{svc: svc}

	// Workspace
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_workspace",
		Description: "Get the tab bar, active tab, chart settings and a summary of the imported data",
	}, t.getWorkspace)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_sheet",
		Description: "Add a new sheet tab and make it active",
	}, t.addSheet)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "close_sheet",
		Description: "Close a sheet; the data source and first sheet cannot be closed",
	}, t.closeSheet)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "activate_tab",
		Description: "Switch the active tab; activating add-tab-button creates a sheet",
	}, t.activateTab)

	// Charts
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "configure_chart",
		Description: "Set graph type, axes and optional date range for a sheet and build its chart",
	}, t.configureChart)

	// Data
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "import_url",
		Description: "Replace the dataset with a CSV file fetched from a URL",
	}, t.importURL)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "import_database",
		Description: "Replace the dataset with the rows of a database table",
	}, t.importDatabase)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "preview_data",
		Description: "Page through the imported dataset",
	}, t.previewData)

	// Activity
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_recent_activity",
		Description: "List recent workshop events, newest first",
	}, t.getRecentActivity)
}

func (t *tools) getWorkspace(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionParams) (*sdkmcp.CallToolResult, any, error) {
	overview, err := t.svc.Workshop.Overview(ctx, workspaceFor(ctx, in.SessionID))
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, overview, nil
}

func (t *tools) addSheet(ctx context.Context, _ *sdkmcp.CallToolRequest, in SessionParams) (*sdkmcp.CallToolResult, any, error) {
	workspaceID := workspaceFor(ctx, in.SessionID)
	ws, sheet, err := t.svc.Workshop.AddSheet(ctx, workspaceID)
	if err != nil {
		return nil, nil, toolError(err)
	}
	out := tabsResult(workspaceID, ws)
	out.Sheet = &sheet
	return nil, out, nil
}

func (t *tools) closeSheet(ctx context.Context, _ *sdkmcp.CallToolRequest, in CloseSheetParams) (*sdkmcp.CallToolResult, any, error) {
	workspaceID := workspaceFor(ctx, in.SessionID)
	ws, closed, err := t.svc.Workshop.CloseSheet(ctx, workspaceID, in.SheetID)
	if err != nil {
		return nil, nil, toolError(err)
	}
	out := tabsResult(workspaceID, ws)
	out.Closed = &closed
	return nil, out, nil
}

func (t *tools) activateTab(ctx context.Context, _ *sdkmcp.CallToolRequest, in ActivateTabParams) (*sdkmcp.CallToolResult, any, error) {
	workspaceID := workspaceFor(ctx, in.SessionID)
	ws, added, err := t.svc.Workshop.ActivateTab(ctx, workspaceID, in.TabID)
	if err != nil {
		return nil, nil, toolError(err)
	}
	out := tabsResult(workspaceID, ws)
	out.Sheet = added
	return nil, out, nil
}

func (t *tools) configureChart(ctx context.Context, _ *sdkmcp.CallToolRequest, in ConfigureChartParams) (*sdkmcp.CallToolResult, any, error) {
	result, err := t.svc.Workshop.ConfigureChart(ctx, workspaceFor(ctx, in.SessionID), workshop.ConfigureRequest{
		SheetID:   in.SheetID,
		GraphType: in.GraphType,
		XAxis:     in.XAxis,
		YAxis:     in.YAxis,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, result, nil
}

func (t *tools) importURL(ctx context.Context, _ *sdkmcp.CallToolRequest, in ImportURLParams) (*sdkmcp.CallToolResult, any, error) {
	workspaceID := workspaceFor(ctx, in.SessionID)
	summary, err := t.svc.Imports.ImportURL(ctx, workspaceID, in.URL)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, ImportResult{SessionID: workspaceID, Summary: *summary}, nil
}

func (t *tools) importDatabase(ctx context.Context, _ *sdkmcp.CallToolRequest, in ImportDatabaseParams) (*sdkmcp.CallToolResult, any, error) {
	workspaceID := workspaceFor(ctx, in.SessionID)
	summary, err := t.svc.Imports.ImportDatabase(ctx, workspaceID, ingest.DBParams{
		Driver:   in.Driver,
		Host:     in.Host,
		Port:     in.Port,
		User:     in.User,
		Password: in.Password,
		Database: in.Database,
		Table:    in.Table,
	})
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, ImportResult{SessionID: workspaceID, Summary: *summary}, nil
}

func (t *tools) previewData(ctx context.Context, _ *sdkmcp.CallToolRequest, in PreviewDataParams) (*sdkmcp.CallToolResult, any, error) {
	workspaceID := workspaceFor(ctx, in.SessionID)
	ds, err := t.svc.Workshop.Dataset(ctx, workspaceID)
	if err != nil {
		return nil, nil, toolError(err)
	}
	page, size := in.Page, in.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = defaultPageSize
	}
	return nil, PreviewResult{
		SessionID: workspaceID,
		Columns:   ds.Columns,
		Rows:      ds.Page(page, size),
		Page:      page,
		PageSize:  size,
		TotalRows: ds.Len(),
	}, nil
}

func (t *tools) getRecentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetRecentActivityParams) (*sdkmcp.CallToolResult, any, error) {
	opts := activity.ListActivityOptions{Limit: in.Limit, Offset: in.Offset}
	if in.SheetID != "" {
		opts.SheetID = &in.SheetID
	}
	if in.ActivityType != "" {
		typ := activity.ActivityType(in.ActivityType)
		opts.ActivityType = &typ
	}
	entries, err := t.svc.Activity.GetRecentActivity(ctx, workspaceFor(ctx, in.SessionID), opts)
	if err != nil {
		return nil, nil, toolError(err)
	}
	return nil, map[string]any{"activity": entries}, nil
}

func tabsResult(workspaceID string, ws *workshop.Workspace) TabsResult {
	return TabsResult{SessionID: workspaceID, ActiveTab: ws.ActiveTab, Tabs: ws.Tabs()}
}
