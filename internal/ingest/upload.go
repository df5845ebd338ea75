package ingest

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// Format is a tabular file format.
type Format string

const (
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// DetectFormat picks the parser from the file name.
func DetectFormat(filename string) (Format, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.Contains(name, "csv"):
		return FormatCSV, nil
	case strings.Contains(name, "xls"):
		return FormatExcel, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// DecodeUpload decodes a base64 data URL (data:<mime>;base64,<payload>) or
// bare base64 text into raw bytes.
func DecodeUpload(contents string) ([]byte, error) {
	payload := strings.TrimSpace(contents)
	if payload == "" {
		return nil, fmt.Errorf("%w: empty contents", ErrInvalidPayload)
	}
	if strings.HasPrefix(payload, "data:") {
		_, data, ok := strings.Cut(payload, ",")
		if !ok {
			return nil, fmt.Errorf("%w: malformed data url", ErrInvalidPayload)
		}
		payload = data
	}

	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if raw, err := enc.DecodeString(payload); err == nil {
			return raw, nil
		}
	}
	return nil, fmt.Errorf("%w: not base64", ErrInvalidPayload)
}
