package transport

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/rpggio/easybi/internal/domain/chart"
	"github.com/rpggio/easybi/internal/domain/workshop"
	"github.com/rpggio/easybi/internal/ingest"
	"github.com/rpggio/easybi/internal/render"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// writeJSON encodes before writing the header; an unencodable payload becomes a 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{Error: "encoding response: " + err.Error()})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", workshop.ErrInvalidInput)
		}
		return fmt.Errorf("%w: %v", workshop.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.As(err, &maxBytes), errors.Is(err, ingest.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, workshop.ErrTabNotFound):
		return http.StatusNotFound
	case errors.Is(err, workshop.ErrNoData):
		return http.StatusConflict
	case errors.Is(err, workshop.ErrInvalidInput),
		errors.Is(err, workshop.ErrNotASheet),
		errors.Is(err, chart.ErrInvalidGraphType),
		errors.Is(err, render.ErrUnknownFormat),
		errors.Is(err, ingest.ErrInvalidInput),
		errors.Is(err, ingest.ErrInvalidTable),
		errors.Is(err, ingest.ErrUnsupportedDriver),
		errors.Is(err, ingest.ErrPathNotAllowed):
		return http.StatusBadRequest
	case errors.Is(err, workshop.ErrNoChart),
		errors.Is(err, render.ErrEmptyFigure):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", workshop.ErrInvalidInput, name)
	}
	return v, nil
}
