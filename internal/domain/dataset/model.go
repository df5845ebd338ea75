package dataset

import "time"

// SourceKind identifies the import path that produced a dataset.
type SourceKind string

const (
	SourceFile     SourceKind = "file"
	SourceDatabase SourceKind = "database"
	SourceURL      SourceKind = "url"
)

// Record is one row keyed by column name. Values are nil, string, int64, float64 or bool.
type Record map[string]any

// Source describes where a dataset came from.
type Source struct {
	Kind       SourceKind `json:"kind"`
	Name       string     `json:"name"`
	ImportedAt time.Time  `json:"imported_at"`
}

// Dataset is the imported table. It is replaced wholesale on every successful import.
type Dataset struct {
	Columns []string `json:"columns"`
	Rows    []Record `json:"rows"`
	Source  Source   `json:"source"`
}

// Summary is a lightweight description of a dataset for listings.
type Summary struct {
	Columns  []string `json:"columns"`
	RowCount int      `json:"row_count"`
	Source   Source   `json:"source"`
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// Empty reports whether there is nothing to chart.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Columns) == 0
}

// HasColumn reports whether name is one of the dataset columns.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil || name == "" {
		return false
	}
	for _, col := range d.Columns {
		if col == name {
			return true
		}
	}
	return false
}

// Summary returns the dataset summary.
func (d *Dataset) Summary() Summary {
	if d == nil {
		return Summary{Columns: []string{}}
	}
	return Summary{
		Columns:  append([]string(nil), d.Columns...),
		RowCount: len(d.Rows),
		Source:   d.Source,
	}
}

// WithRows returns a shallow copy of d carrying rows instead of the original rows.
func (d *Dataset) WithRows(rows []Record) *Dataset {
	return &Dataset{
		Columns: d.Columns,
		Rows:    rows,
		Source:  d.Source,
	}
}

// Page returns rows for a 1-based page. Out of range pages are empty.
func (d *Dataset) Page(page, size int) []Record {
	if d == nil || size <= 0 {
		return []Record{}
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * size
	if start >= len(d.Rows) {
		return []Record{}
	}
	end := start + size
	if end > len(d.Rows) {
		end = len(d.Rows)
	}
	return d.Rows[start:end]
}

// FromRows builds a dataset from a header and string rows, typing each cell.
// Short rows are padded with nil; extra cells beyond the header are dropped.
func FromRows(header []string, rows [][]string) *Dataset {
	columns := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, name := range header {
		name = normalizeHeader(name, i)
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = name + "." + itoa(n)
		} else {
			seen[name] = 1
		}
		columns[i] = name
	}

	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec := make(Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = ParseValue(row[i])
			} else {
				rec[col] = nil
			}
		}
		records = append(records, rec)
	}

	return &Dataset{Columns: columns, Rows: records}
}
