package mcp

import (
	"errors"
	"fmt"

	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/ingest"
)

// APIError represents an MCP tool error.
type APIError struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	Details      any    `json:"details,omitempty"`
	RecoveryHint string `json:"recovery_hint,omitempty"`
}

func (e *APIError) Error() string {
	if e.RecoveryHint != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.RecoveryHint)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// MapError maps domain errors to MCP error codes. Unknown errors are returned as nil.
func MapError(err error) *APIError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, workshop.ErrTabNotFound):
		return &APIError{Code: "TAB_NOT_FOUND", Message: "tab not found", RecoveryHint: "Call get_workspace for current tab ids"}
	case errors.Is(err, workshop.ErrNotASheet):
		return &APIError{Code: "NOT_A_SHEET", Message: "tab is not a sheet", RecoveryHint: "Pick a sheet id, not data-source-tab or add-tab-button"}
	case errors.Is(err, workshop.ErrNoData):
		return &APIError{Code: "NO_DATA", Message: "no data imported", RecoveryHint: "Call import_url or import_database first"}
	case errors.Is(err, chart.ErrInvalidGraphType):
		return &APIError{Code: "INVALID_GRAPH_TYPE", Message: err.Error(), RecoveryHint: "Use histogram, pie, scatter or line"}
	case errors.Is(err, ingest.ErrBlockedURL):
		return &APIError{Code: "URL_BLOCKED", Message: err.Error()}
	case errors.Is(err, ingest.ErrTooLarge):
		return &APIError{Code: "TOO_LARGE", Message: err.Error()}
	case errors.Is(err, workshop.ErrInvalidInput), errors.Is(err, ingest.ErrInvalidInput),
		errors.Is(err, ingest.ErrInvalidTable), errors.Is(err, ingest.ErrUnsupportedDriver):
		return &APIError{Code: "INVALID_INPUT", Message: err.Error()}
	case errors.Is(err, ingest.ErrPathNotAllowed):
		return &APIError{Code: "PATH_NOT_ALLOWED", Message: err.Error(), RecoveryHint: "Name a sqlite file inside the server's import directory"}
	default:
		return nil
	}
}

// toolError converts err for a tool response, keeping unmapped errors intact.
func toolError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
