package chart

import "strings"

// GraphType is the closed set of chart kinds a sheet can show.
type GraphType string

const (
	Histogram GraphType = "histogram"
	Pie       GraphType = "pie"
	Scatter   GraphType = "scatter"
	Line      GraphType = "line"
)

// GraphTypes lists the supported chart kinds in display order.
var GraphTypes = []GraphType{Histogram, Pie, Scatter, Line}

// Valid reports whether g is a supported chart kind.
func (g GraphType) Valid() bool {
	switch g {
	case Histogram, Pie, Scatter, Line:
		return true
	}
	return false
}

// ParseGraphType parses a graph type name. An empty name means histogram.
func ParseGraphType(s string) (GraphType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Histogram, nil
	}
	g := GraphType(s)
	if !g.Valid() {
		return "", ErrInvalidGraphType
	}
	return g, nil
}

// DateFilter restricts rows by the date column. It only applies when both bounds are set.
type DateFilter struct {
	StartDate string `json:"start_date,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
}

// Active reports whether both bounds are present.
func (f *DateFilter) Active() bool {
	return f != nil && strings.TrimSpace(f.StartDate) != "" && strings.TrimSpace(f.EndDate) != ""
}

// Settings is the chart configuration stored per sheet.
type Settings struct {
	GraphType GraphType   `json:"graph_type,omitempty"`
	XAxis     string      `json:"x_axis,omitempty"`
	YAxis     string      `json:"y_axis,omitempty"`
	Filter    *DateFilter `json:"filter,omitempty"`
}

// Reason explains why a configuration change was declined.
type Reason string

const (
	ReasonNone          Reason = ""
	ReasonNoData        Reason = "no_data"
	ReasonUnknownColumn Reason = "unknown_column"
)

// Result is the outcome of a configuration change.
type Result struct {
	Changed  bool     `json:"changed"`
	Reason   Reason   `json:"reason,omitempty"`
	Settings Settings `json:"settings"`
	Figure   *Figure  `json:"figure,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// XKind describes how x values of a point figure are scaled.
type XKind string

const (
	XNumeric  XKind = "numeric"
	XTime     XKind = "time"
	XCategory XKind = "category"
)

// Bar is one histogram bucket holding the average y of its rows.
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Count int     `json:"count"`
}

// Slice is one pie segment.
type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Point is one scatter or line point. Label carries the category or time text for non-numeric x.
type Point struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label,omitempty"`
}

// Figure is a renderer-independent chart description.
type Figure struct {
	Type   GraphType `json:"type"`
	Title  string    `json:"title"`
	XLabel string    `json:"x_label"`
	YLabel string    `json:"y_label,omitempty"`
	XKind  XKind     `json:"x_kind,omitempty"`
	Bars   []Bar     `json:"bars,omitempty"`
	Slices []Slice   `json:"slices,omitempty"`
	Points []Point   `json:"points,omitempty"`
}

// Empty reports whether the figure has nothing to draw.
func (f *Figure) Empty() bool {
	return f == nil || (len(f.Bars) == 0 && len(f.Slices) == 0 && len(f.Points) == 0)
}
