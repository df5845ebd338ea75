package workshop

import "errors"

var (
	// ErrTabNotFound indicates the tab id is not part of the workspace.
	ErrTabNotFound = errors.New("tab not found")
	// ErrNotASheet indicates a chart operation on the data source or add entry.
	ErrNotASheet = errors.New("tab is not a sheet")
	// ErrNoData indicates no dataset has been imported yet.
	ErrNoData = errors.New("no data imported")
	// ErrNoChart indicates the current settings cannot produce a chart.
	ErrNoChart = errors.New("chart cannot be built from current settings")
	// ErrInvalidInput indicates invalid workshop input.
	ErrInvalidInput = errors.New("invalid workshop input")
)
