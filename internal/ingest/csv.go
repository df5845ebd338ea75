package ingest

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/rpggio/easybi/internal/domain/dataset"
)

// ParseCSV reads a UTF-8 CSV with a header row. maxRows <= 0 means no limit;
// a file with more data rows than maxRows fails with ErrTooLarge.
func ParseCSV(r io.Reader, maxRows int) (*dataset.Dataset, error) {
	csvr := csv.NewReader(bufio.NewReader(r))
	csvr.FieldsPerRecord = -1
	csvr.LazyQuotes = true

	header, err := csvr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyData
	}
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}

	var rows [][]string
	line := 1
	for {
		line++
		rec, err := csvr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading csv line %d: %w", line, err)
		}
		rows = append(rows, rec)
		if maxRows > 0 && len(rows) > maxRows {
			return nil, fmt.Errorf("%w: more than %d rows", ErrTooLarge, maxRows)
		}
	}

	return dataset.FromRows(header, rows), nil
}
