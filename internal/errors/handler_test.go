package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/johnfenner/beecker-sub000/internal/shared/testutil"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantCode   string
	}{
		{
			name:       "deadline exceeded",
			err:        fmt.Errorf("render: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "canceled",
			err:        context.Canceled,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
		},
		{
			name:       "api error",
			err:        ErrInvalidRequest,
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "INVALID_REQUEST",
		},
		{
			name:       "wrapped api error",
			err:        fmt.Errorf("handler: %w", NotFoundError("page")),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "source api error",
			err:        SourceError("linkedin", fmt.Errorf("quota")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSourceUnavailable,
			wantCode:   "SOURCE_UNAVAILABLE",
		},
		{
			name:       "app not found",
			err:        NewNotFoundError("page sdr"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeNotFound,
			wantCode:   "NOT_FOUND",
		},
		{
			name:       "app validation",
			err:        NewAppValidationError("from must not be after to"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantCode:   "VALIDATION",
		},
		{
			name:       "app source",
			err:        NewSourceError("sheet read failed", fmt.Errorf("403")),
			wantStatus: http.StatusBadGateway,
			wantType:   TypeSourceUnavailable,
			wantCode:   "SOURCE",
		},
		{
			name:       "app parsing",
			err:        NewParsingError("no header row", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeSourceMalformed,
			wantCode:   "PARSING",
		},
		{
			name:       "app config",
			err:        NewConfigError("no credentials", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeConfiguration,
			wantCode:   "CONFIG",
		},
		{
			name:       "plain error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)
			req := httptest.NewRequest(http.MethodGet, "/api/pages/linkedin/funnel", nil)
			rec := httptest.NewRecorder()

			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeProblem(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/pages/linkedin/funnel", body["instance"])
			assert.Contains(t, body, "trace_id")
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, body["error_code"])
			}
			assert.NotContains(t, body, "stack")
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestErrorHandler_NilErrorWritesNothing(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Empty(t, rec.Body.String())
	assert.Zero(t, logs.Count())
}

func TestErrorHandler_ServerErrorsLogAtErrorLevel(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)
	rec := httptest.NewRecorder()

	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), fmt.Errorf("boom"))

	testutil.AssertLogContains(t, logs, slog.LevelError, "request failed")
	assert.True(t, logs.ContainsAttr("component", "error_handler"))
	assert.Contains(t, decodeProblem(t, rec), "stack")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{name: "production", includeStack: false},
		{name: "development", includeStack: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.includeStack)
			rec := httptest.NewRecorder()

			h.HandlePanic(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "nil predicate")

			assert.Equal(t, http.StatusInternalServerError, rec.Code)
			body := decodeProblem(t, rec)
			_, hasPanic := body["panic"]
			assert.Equal(t, tt.includeStack, hasPanic)
			testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, rec)["type"])

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/pages", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, decodeProblem(t, rec)["detail"], "DELETE")
}
