package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `easybi is a small data-exploration workshop: import one table, then chart it on sheet tabs.

Core concepts:
- Workspace: per-session state. Every tool takes an optional session_id; omit it to share the "mcp" workspace.
- Dataset: the single imported table. Each successful import replaces it; a failed import changes nothing.
- Tabs: data-source-tab (table preview), sheet tabs (one chart each), add-tab-button (creates a sheet when activated).
  data-source-tab and sheet-1 are permanent.
- Chart settings: graph_type (histogram, pie, scatter, line), x_axis, y_axis and an optional start_date/end_date range
  applied to a "date" column.

Default workflow:
1) Import: import_url (CSV over http/https) or import_database (mysql, postgres, sqlite table).
2) Inspect: preview_data for columns and sample rows; get_workspace for tabs and stored settings.
3) Chart: configure_chart on a sheet. If changed=false, read reason (no_data or unknown_column) and pick existing columns.
4) Organise: add_sheet / activate_tab / close_sheet.
5) Review: get_recent_activity for what happened, including failed imports.

Docs:
- easybi://docs/index
- easybi://docs/charts
- easybi://docs/imports
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "easybi://docs/index",
		Name:        "docs_index",
		Title:       "easybi docs index",
		Description: "Entry point: what the workshop holds and which doc to read next.",
		Content: `# easybi: Agent Docs Index

## Quick start

1. ` + "`import_url`" + ` with a CSV link, or ` + "`import_database`" + `.
2. ` + "`preview_data`" + ` to learn the column names.
3. ` + "`configure_chart`" + ` with ` + "`x_axis`" + ` / ` + "`y_axis`" + ` taken from those columns.
4. ` + "`get_workspace`" + ` to see every sheet and its stored settings.

## Docs

- ` + "`easybi://docs/charts`" + ` for chart types, defaults and the date filter.
- ` + "`easybi://docs/imports`" + ` for import sources, limits and failure handling.

## Limitations

- One dataset per workspace; there is no merge or append.
- Chart images are served over HTTP only (` + "`GET /api/sheets/{id}/chart.svg`" + `), not through tools.
`,
	},
	{
		URI:         "easybi://docs/charts",
		Name:        "docs_charts",
		Title:       "Charts and sheet settings",
		Description: "Graph types, default axes, declined configurations and date filtering.",
		Content: `# Charts and sheet settings

## Graph types

- **histogram**: average of y for each distinct x. Numeric x with more than 20 distinct values is split into 10 equal-width bins.
- **pie**: sum of y for each x name. With an empty ` + "`y_axis`" + ` it counts rows per name.
- **scatter**: one point per row.
- **line**: points ordered by x.

Rows whose y is not numeric are skipped.

## Defaults

A sheet without stored settings shows a histogram of the first column against the second.
Stored axes that no longer exist in the current dataset fall back to these defaults when viewed.

## Declined configurations

` + "`configure_chart`" + ` returns ` + "`changed=false`" + ` and keeps the previous settings when:

- no dataset has been imported (` + "`reason=no_data)`" + `, or
- x, or y for non-pie charts, is not a column of the dataset (` + "`reason=unknown_column)`" + `.

An unknown ` + "`graph_type`" + ` is an error.

## Date filter

Set both ` + "`start_date`" + ` and ` + "`end_date`" + ` (ISO dates or timestamps). Rows are kept when their ` + "`date`" + ` column is
within the range, inclusive. A date-only end covers the whole day. Without a ` + "`date`" + ` column the filter is
skipped and a warning is returned.
`,
	},
	{
		URI:         "easybi://docs/imports",
		Name:        "docs_imports",
		Title:       "Importing data",
		Description: "Import sources, value typing, limits and failure behaviour.",
		Content: `# Importing data

## Sources

- **URL**: CSV over http or https. Private and loopback addresses are refused unless the server allows them.
- **Database**: ` + "`driver`" + ` is mysql, postgres or sqlite; the whole ` + "`table`" + ` is read with ` + "`SELECT *`" + `.
  For sqlite, ` + "`database`" + ` names a file inside the server's sqlite import directory, opened read-only.
  Without a configured directory sqlite imports are refused.
- Imports above the server's row limit are refused rather than truncated.
- **File upload**: HTTP only (` + "`POST /api/import/file)`" + `, CSV or Excel as base64.

## Values

Cells are typed as integers, decimals, booleans or text. Empty cells are null.

## Failures

A failed import leaves the current dataset and sheets untouched, is logged, and appears in
` + "`get_recent_activity`" + ` as ` + "`import_failed`" + `. Retrying is up to the caller.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
