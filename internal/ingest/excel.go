package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rpggio/easybi/internal/domain/dataset"
)

// ParseExcel reads the first worksheet of a workbook. The first row is the header.
// A sheet with more data rows than maxRows fails with ErrTooLarge.
func ParseExcel(r io.Reader, maxRows int) (*dataset.Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyData
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyData
	}

	body := rows[1:]
	if maxRows > 0 && len(body) > maxRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrTooLarge, len(body), maxRows)
	}
	return dataset.FromRows(rows[0], body), nil
}
