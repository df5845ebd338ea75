package transport

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/easybi/internal/ingest"
)

func TestWriteJSON_UnencodablePayload(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]float64{"value": math.NaN()})

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Contains(t, body.Error, "encoding response")
}

func TestStatusFor_Imports(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("importing file: %w", ingest.ErrTooLarge), http.StatusRequestEntityTooLarge},
		{fmt.Errorf("importing database: %w", ingest.ErrPathNotAllowed), http.StatusBadRequest},
		{fmt.Errorf("importing database: %w", ingest.ErrInvalidTable), http.StatusBadRequest},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}
