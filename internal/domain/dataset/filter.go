package dataset

import (
	"errors"
	"strings"
	"time"
)

// DateColumn is the column date filters apply to.
const DateColumn = "date"

var (
	// ErrNoDateColumn indicates a date filter was requested on a dataset without a date column.
	ErrNoDateColumn = errors.New("dataset has no date column")
	// ErrInvalidDate indicates a filter bound could not be parsed.
	ErrInvalidDate = errors.New("invalid date bound")
)

const dateOnlyLayout = "2006-01-02"

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateOnlyLayout,
	"2006/01/02",
	"01/02/2006",
}

// ParseDate parses a date or timestamp. dateOnly is true when s carried no time of day.
func ParseDate(s string) (t time.Time, dateOnly bool, err error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		parsed, perr := time.Parse(layout, s)
		if perr == nil {
			return parsed, !strings.Contains(layout, "15"), nil
		}
	}
	return time.Time{}, false, ErrInvalidDate
}

// FilterDateRange keeps rows whose date column lies in [start, end]. An end bound
// given as a plain date covers that whole day. Row values that do not parse as
// dates are compared as strings.
func (d *Dataset) FilterDateRange(start, end string) (*Dataset, error) {
	if !d.HasColumn(DateColumn) {
		return d, ErrNoDateColumn
	}
	from, _, err := ParseDate(start)
	if err != nil {
		return d, err
	}
	to, endDateOnly, err := ParseDate(end)
	if err != nil {
		return d, err
	}
	if endDateOnly {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}

	rows := make([]Record, 0, len(d.Rows))
	for _, row := range d.Rows {
		raw := FormatValue(row[DateColumn])
		if raw == "" {
			continue
		}
		if ts, _, perr := ParseDate(raw); perr == nil {
			if !ts.Before(from) && !ts.After(to) {
				rows = append(rows, row)
			}
			continue
		}
		if raw >= start && raw <= end {
			rows = append(rows, row)
		}
	}
	return d.WithRows(rows), nil
}

// ColumnValues returns the values of one column in row order.
func (d *Dataset) ColumnValues(name string) []any {
	values := make([]any, 0, len(d.Rows))
	for _, row := range d.Rows {
		values = append(values, row[name])
	}
	return values
}

// IsNumericColumn reports whether every non-nil value in the column is numeric.
func (d *Dataset) IsNumericColumn(name string) bool {
	seen := false
	for _, row := range d.Rows {
		switch row[name].(type) {
		case nil:
			continue
		case int64, float64:
			seen = true
		default:
			return false
		}
	}
	return seen
}
