package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/rpggio/easybi/internal/domain/dataset"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/repository"
)

var _ workshop.DatasetRepository = (*DatasetRepository)(nil)

// DatasetRepository stores one dataset per workspace for SQLite.
// Rows are kept as a JSON array of cell arrays in column order.
type DatasetRepository struct {
	db *DB
}

// NewDatasetRepository creates a new DatasetRepository
func NewDatasetRepository(db *DB) *DatasetRepository {
	return &DatasetRepository{db: db}
}

// Put replaces the dataset of a workspace
func (r *DatasetRepository) Put(ctx context.Context, workspaceID string, ds *dataset.Dataset) error {
	columns, err := json.Marshal(ds.Columns)
	if err != nil {
		return fmt.Errorf("failed to encode columns: %w", err)
	}
	rows, err := encodeRows(ds)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO datasets (workspace_id, columns, rows, row_count, source_kind, source_name, imported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id) DO UPDATE SET
			columns = excluded.columns,
			rows = excluded.rows,
			row_count = excluded.row_count,
			source_kind = excluded.source_kind,
			source_name = excluded.source_name,
			imported_at = excluded.imported_at`,
		workspaceID, string(columns), rows, len(ds.Rows),
		ds.Source.Kind, ds.Source.Name, ds.Source.ImportedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return repository.ErrForeignKeyViolation
		}
		return fmt.Errorf("failed to store dataset: %w", err)
	}
	return nil
}

// Get returns the dataset of a workspace
func (r *DatasetRepository) Get(ctx context.Context, workspaceID string) (*dataset.Dataset, error) {
	var columnsJSON, rowsJSON string
	var ds dataset.Dataset
	err := r.db.QueryRowContext(ctx, `
		SELECT columns, rows, source_kind, source_name, imported_at
		FROM datasets WHERE workspace_id = ?`, workspaceID,
	).Scan(&columnsJSON, &rowsJSON, &ds.Source.Kind, &ds.Source.Name, &ds.Source.ImportedAt)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dataset: %w", err)
	}

	if err := json.Unmarshal([]byte(columnsJSON), &ds.Columns); err != nil {
		return nil, fmt.Errorf("failed to decode columns: %w", err)
	}
	rows, err := decodeRows(ds.Columns, rowsJSON)
	if err != nil {
		return nil, err
	}
	ds.Rows = rows
	return &ds, nil
}

func encodeRows(ds *dataset.Dataset) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, rec := range ds.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('[')
		for j, col := range ds.Columns {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := encodeCell(&buf, rec[col]); err != nil {
				return "", err
			}
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
	return buf.String(), nil
}

// encodeCell writes floats with a fractional part so integral floats decode as floats.
func encodeCell(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			buf.WriteString("null")
			return nil
		}
		s := strconv.FormatFloat(val, 'g', -1, 64)
		if val == math.Trunc(val) && !bytes.ContainsAny([]byte(s), ".eE") {
			s += ".0"
		}
		buf.WriteString(s)
		return nil
	default:
		raw, err := json.Marshal(dataset.NormalizeValue(val))
		if err != nil {
			return fmt.Errorf("failed to encode cell: %w", err)
		}
		buf.Write(raw)
		return nil
	}
}

func decodeRows(columns []string, raw string) ([]dataset.Record, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()

	var cells [][]any
	if err := dec.Decode(&cells); err != nil {
		return nil, fmt.Errorf("failed to decode rows: %w", err)
	}

	rows := make([]dataset.Record, 0, len(cells))
	for _, row := range cells {
		rec := make(dataset.Record, len(columns))
		for i, col := range columns {
			if i < len(row) {
				rec[col] = dataset.NormalizeValue(row[i])
			} else {
				rec[col] = nil
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
