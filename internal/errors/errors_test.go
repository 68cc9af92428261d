package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIError(t *testing.T) {
	err := InvalidParameter("from", fmt.Errorf("bad date"))

	assert.Equal(t, http.StatusBadRequest, err.StatusCode)
	assert.Equal(t, "INVALID_PARAMETER", err.ErrorCode)
	assert.Equal(t, "Invalid value for from", err.Error())
	assert.Equal(t, "bad date", err.Details)
}

func TestAPIErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *APIError
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"page not found", PageNotFound("sdr"), http.StatusNotFound, "PAGE_NOT_FOUND", "Page sdr not found"},
		{"not found", NotFoundError("field"), http.StatusNotFound, "NOT_FOUND", "field not found"},
		{"source", SourceError("linkedin", fmt.Errorf("quota")), http.StatusBadGateway, "SOURCE_UNAVAILABLE", "Data source for page linkedin could not be read"},
		{"validation", ErrValidation("to", "must not be before from"), http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed"},
		{"rate limit", ErrRateLimitExceeded, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode)
			assert.Equal(t, tt.wantCode, tt.err.ErrorCode)
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}

	multi := NewValidationErrors([]ValidationError{{Field: "from", Message: "bad"}, {Field: "to", Message: "bad"}})
	require.IsType(t, ValidationErrors{}, multi.Details)
	assert.Len(t, multi.Details.(ValidationErrors).Errors, 2)
}

func TestProblemDetails_MarshalJSON(t *testing.T) {
	p := NewProblemDetails(http.StatusNotFound, TypePageNotFound, "Not Found", "", "/api/pages/x").
		WithExtension("trace_id", "abc").
		WithExtension("status", 999)

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, TypePageNotFound, got["type"])
	assert.Equal(t, "abc", got["trace_id"])
	assert.Equal(t, float64(404), got["status"], "extensions cannot shadow standard members")
	assert.NotContains(t, got, "detail")
}

func TestProblemDetails_WithExtensionOnZeroValue(t *testing.T) {
	p := &ProblemDetails{Status: 400}
	p.WithExtension("k", "v")
	assert.Equal(t, "v", p.Extensions["k"])
}

func TestAppError(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := NewSourceError("read sheet", cause).WithContext("page", "linkedin")

	assert.Equal(t, "[SOURCE] read sheet: unexpected EOF", err.Error())
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, "linkedin", err.Context["page"])

	wrapped := fmt.Errorf("render: %w", err)
	assert.True(t, IsType(wrapped, ErrTypeSource))
	assert.False(t, IsType(wrapped, ErrTypeConfig))
	assert.False(t, IsType(cause, ErrTypeSource))

	assert.Equal(t, "[NOT_FOUND] page x not found", NewNotFoundError("page x").Error())
}
