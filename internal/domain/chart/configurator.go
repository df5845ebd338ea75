package chart

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/rpggio/easybi/internal/domain/dataset"
)

const (
	defaultMaxCategories = 20
	defaultBins          = 10
)

// Configurator validates chart settings against a dataset and builds figures.
type Configurator struct {
	logger        *slog.Logger
	maxCategories int
	bins          int
}

// NewConfigurator creates a configurator.
func NewConfigurator(logger *slog.Logger) *Configurator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Configurator{
		logger:        logger,
		maxCategories: defaultMaxCategories,
		bins:          defaultBins,
	}
}

// Defaults returns the settings used before a sheet has been configured:
// the first two columns and a histogram. Y is empty when there is only one column.
func Defaults(columns []string) Settings {
	s := Settings{GraphType: Histogram}
	if len(columns) > 0 {
		s.XAxis = columns[0]
	}
	if len(columns) > 1 {
		s.YAxis = columns[1]
	}
	return s
}

// Resolve returns the effective settings for a sheet. Stored axes that are no
// longer columns of the dataset fall back to the defaults.
func Resolve(stored *Settings, ds *dataset.Dataset) Settings {
	var columns []string
	if ds != nil {
		columns = ds.Columns
	}
	defaults := Defaults(columns)
	if stored == nil {
		return defaults
	}

	resolved := *stored
	if resolved.GraphType == "" || !resolved.GraphType.Valid() {
		resolved.GraphType = Histogram
	}
	if resolved.XAxis == "" || !ds.HasColumn(resolved.XAxis) {
		resolved.XAxis = defaults.XAxis
	}
	if resolved.YAxis == "" || !ds.HasColumn(resolved.YAxis) {
		resolved.YAxis = defaults.YAxis
	}
	if resolved.Filter != nil {
		f := *resolved.Filter
		resolved.Filter = &f
	}
	return resolved
}

// Configure applies the date filter, validates the axes and builds the figure.
// A declined change is reported through Result.Changed, not as an error.
func (c *Configurator) Configure(ds *dataset.Dataset, s Settings) (*Result, error) {
	graphType, err := ParseGraphType(string(s.GraphType))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, s.GraphType)
	}
	s.GraphType = graphType

	if ds.Empty() {
		return &Result{Changed: false, Reason: ReasonNoData, Settings: s}, nil
	}

	var warnings []string
	filtered := ds
	if s.Filter.Active() {
		filtered, err = ds.FilterDateRange(s.Filter.StartDate, s.Filter.EndDate)
		if err != nil {
			switch {
			case errors.Is(err, dataset.ErrNoDateColumn):
				c.logger.Warn("date column not found, filter not applied", "column", dataset.DateColumn)
			default:
				c.logger.Warn("date filter not applied", "error", err)
			}
			warnings = append(warnings, err.Error())
			filtered = ds
		}
	}

	if !ds.HasColumn(s.XAxis) {
		return &Result{Changed: false, Reason: ReasonUnknownColumn, Settings: s, Warnings: warnings}, nil
	}
	if s.GraphType != Pie && !ds.HasColumn(s.YAxis) {
		return &Result{Changed: false, Reason: ReasonUnknownColumn, Settings: s, Warnings: warnings}, nil
	}
	if s.GraphType == Pie && s.YAxis != "" && !ds.HasColumn(s.YAxis) {
		return &Result{Changed: false, Reason: ReasonUnknownColumn, Settings: s, Warnings: warnings}, nil
	}

	return &Result{
		Changed:  true,
		Settings: s,
		Figure:   c.Build(filtered, s),
		Warnings: warnings,
	}, nil
}

// Build creates the figure for already validated settings.
func (c *Configurator) Build(ds *dataset.Dataset, s Settings) *Figure {
	fig := &Figure{
		Type:   s.GraphType,
		XLabel: s.XAxis,
		YLabel: s.YAxis,
	}
	switch s.GraphType {
	case Histogram:
		fig.Title = fmt.Sprintf("Histogram of %s", s.XAxis)
		fig.Bars = c.histogram(ds, s.XAxis, s.YAxis)
	case Pie:
		fig.Title = fmt.Sprintf("Pie Chart of %s", s.XAxis)
		fig.Slices = pie(ds, s.XAxis, s.YAxis)
	case Scatter:
		fig.Title = fmt.Sprintf("Scatter Plot of %s vs %s", s.XAxis, s.YAxis)
		fig.XKind, fig.Points = points(ds, s.XAxis, s.YAxis, false)
	case Line:
		fig.Title = fmt.Sprintf("Line Chart of %s vs %s", s.XAxis, s.YAxis)
		fig.XKind, fig.Points = points(ds, s.XAxis, s.YAxis, true)
	}
	return fig
}
