package ingest

import "errors"

var (
	// ErrUnsupportedFormat indicates a file that is neither CSV nor Excel.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrInvalidPayload indicates upload contents that are not valid base64.
	ErrInvalidPayload = errors.New("invalid upload payload")
	// ErrEmptyData indicates a source without a header row.
	ErrEmptyData = errors.New("no data found")
	// ErrTooLarge indicates a payload above the configured size limit.
	ErrTooLarge = errors.New("payload too large")
	// ErrUnsupportedDriver indicates an unknown database driver.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
	// ErrInvalidTable indicates a table name that is not a plain identifier.
	ErrInvalidTable = errors.New("invalid table name")
	// ErrInvalidInput indicates missing import parameters.
	ErrInvalidInput = errors.New("invalid import input")
	// ErrPathNotAllowed indicates a sqlite file outside the import directory.
	ErrPathNotAllowed = errors.New("database path not allowed")
	// ErrBlockedURL indicates a URL rejected by the fetch guard.
	ErrBlockedURL = errors.New("url not allowed")
	// ErrFetchFailed indicates the remote server did not return the data.
	ErrFetchFailed = errors.New("fetch failed")
)
