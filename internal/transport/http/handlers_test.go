package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/johnfenner/beecker-sub000/internal/config"
	apierrors "github.com/johnfenner/beecker-sub000/internal/errors"
	"github.com/johnfenner/beecker-sub000/internal/middleware"
	"github.com/johnfenner/beecker-sub000/internal/pages"
	"github.com/johnfenner/beecker-sub000/internal/services"
	"github.com/johnfenner/beecker-sub000/internal/shared/testutil"
	"github.com/johnfenner/beecker-sub000/internal/sources"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

// tableSource serves a fixed table or error
type tableSource struct {
	table sources.Table
	err   error
}

func (s tableSource) Fetch(ctx context.Context) (sources.Table, error) {
	if err := ctx.Err(); err != nil {
		return sources.Table{}, err
	}
	return s.table, s.err
}

func (s tableSource) Describe() string { return "table" }

type staticProvider map[string]sources.Source

func (p staticProvider) For(def config.SourceDefinition) (sources.Source, error) {
	src, ok := p[def.Range]
	if !ok {
		return nil, fmt.Errorf("no source for %q", def.Range)
	}
	return src, nil
}

func outreach() tableSource {
	rows := testutil.OutreachRows()
	return tableSource{table: sources.Table{Headers: rows[0], Rows: rows[1:]}}
}

func allPages() staticProvider {
	return staticProvider{"LinkedIn": outreach(), "SDR": outreach(), "Sesiones": outreach()}
}

func newTestRouter(t *testing.T, provider services.SourceProvider) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	compiled, err := pages.CompileAll(config.DefaultPages())
	require.NoError(t, err)
	svc := services.NewFunnelService(pages.NewRegistry(compiled), provider, logger,
		services.WithClock(func() time.Time { return fixedNow }))

	errorHandler := apierrors.NewErrorHandler(logger, false)
	funnelHandler := NewFunnelHandler(svc, middleware.NewValidator(logger), errorHandler, logger)
	healthHandler := NewHealthHandler(services.NewHealthService(svc, logger), logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)
		r.Mount("/pages", funnelHandler.Routes())
		r.Get("/overview", funnelHandler.GetOverview)
	})
	return r
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func stageCounts(t *testing.T, body map[string]interface{}) []float64 {
	t.Helper()
	stages, ok := body["stages"].([]interface{})
	require.True(t, ok)
	out := make([]float64, len(stages))
	for i, s := range stages {
		out[i] = s.(map[string]interface{})["count"].(float64)
	}
	return out
}

func TestHealthHandler(t *testing.T) {
	router := newTestRouter(t, allPages())

	tests := []struct {
		name           string
		target         string
		expectedStatus int
		check          func(t *testing.T, body map[string]interface{})
	}{
		{
			name:           "health",
			target:         "/api/health",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ok", body["status"])
				assert.Contains(t, body, "timestamp")
			},
		},
		{
			name:           "liveness",
			target:         "/api/health/live",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "alive", body["status"])
				assert.Contains(t, body, "runtime")
			},
		},
		{
			name:           "readiness",
			target:         "/api/health/ready",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ready", body["status"])
				assert.Len(t, body["services"], 3)
			},
		},
		{
			name:           "version",
			target:         "/api/version",
			expectedStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "prospectpulse", body["service"])
				assert.Contains(t, body, "go_version")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			assert.Equal(t, tt.expectedStatus, rec.Code)
			tt.check(t, decode(t, rec))
		})
	}
}

func TestHealthHandler_NotReady(t *testing.T) {
	router := newTestRouter(t, staticProvider{"LinkedIn": outreach()})

	rec := get(t, router, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", decode(t, rec)["status"])
}

func TestFunnelHandler_ListPages(t *testing.T) {
	router := newTestRouter(t, allPages())

	rec := get(t, router, "/api/pages")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Pages []struct {
			ID     string   `json:"id"`
			Stages []string `json:"stages"`
		} `json:"pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Pages, 3)
	assert.Equal(t, "linkedin", body.Pages[0].ID)
	assert.Len(t, body.Pages[1].Stages, 3)

	rec = get(t, router, "/api/pages/sessions")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "meeting_date", decode(t, rec)["date_field"])
}

func TestFunnelHandler_GetFunnel(t *testing.T) {
	router := newTestRouter(t, allPages())

	tests := []struct {
		name    string
		target  string
		records float64
		counts  []float64
	}{
		{"unfiltered", "/api/pages/linkedin/funnel", 6, []float64{4, 3, 2, 2}},
		{"date range", "/api/pages/linkedin/funnel?from=2025-01-01&to=2025-01-31", 2, []float64{2, 2, 1, 1}},
		{"repeated values", "/api/pages/linkedin/funnel?country=chile&country=peru", 4, []float64{2, 2, 1, 1}},
		{"comma list", "/api/pages/linkedin/funnel?campaign=q1,%20q2", 5, []float64{4, 3, 2, 2}},
		{"free text", "/api/pages/linkedin/funnel?q=acme", 1, []float64{1, 1, 1, 1}},
		{"no matches", "/api/pages/linkedin/funnel?country=Brasil", 0, []float64{0, 0, 0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

			body := decode(t, rec)
			assert.Equal(t, tt.records, body["record_count"])
			assert.Equal(t, tt.counts, stageCounts(t, body))
			assert.Equal(t, tt.records == 0, body["empty"])
		})
	}
}

func TestFunnelHandler_GetFunnelGrouped(t *testing.T) {
	router := newTestRouter(t, allPages())

	rec := get(t, router, "/api/pages/linkedin/funnel?group_by=prospector")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "prospector", body["group_by"])
	groups := body["groups"].([]interface{})
	require.Len(t, groups, 3)
	assert.Equal(t, "Maria Perez", groups[0].(map[string]interface{})["key"])
}

func TestFunnelHandler_Errors(t *testing.T) {
	failing := staticProvider{
		"LinkedIn": tableSource{err: errors.New("quota exceeded")},
		"SDR":      outreach(),
		"Sesiones": outreach(),
	}

	tests := []struct {
		name      string
		provider  staticProvider
		target    string
		status    int
		errorCode string
	}{
		{"unknown page", allPages(), "/api/pages/billing/funnel", http.StatusNotFound, "PAGE_NOT_FOUND"},
		{"bad date", allPages(), "/api/pages/linkedin/funnel?from=10/01/2025", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"reversed range", allPages(), "/api/pages/linkedin/funnel?from=2025-02-01&to=2025-01-01", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"group key not allowed", allPages(), "/api/pages/sdr/funnel?group_by=avatar", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"unknown option field", allPages(), "/api/pages/linkedin/options/invite_accepted", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"source failure", failing, "/api/pages/linkedin/funnel", http.StatusBadGateway, "SOURCE_UNAVAILABLE"},
		{"missing export format", allPages(), "/api/pages/linkedin/export", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad export format", allPages(), "/api/pages/linkedin/export?format=pdf", http.StatusBadRequest, "VALIDATION_FAILED"},
		{"bad rows flag", allPages(), "/api/pages/linkedin/export?format=csv&rows=maybe", http.StatusBadRequest, "INVALID_PARAMETER"},
		{"overview group_by", allPages(), "/api/overview?group_by=prospector", http.StatusBadRequest, "VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, newTestRouter(t, tt.provider), tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())

			body := decode(t, rec)
			assert.Equal(t, float64(tt.status), body["status"])
			assert.Equal(t, tt.errorCode, body["error_code"])
		})
	}
}

func TestFunnelHandler_ValidationNamesQueryParameter(t *testing.T) {
	router := newTestRouter(t, allPages())

	rec := get(t, router, "/api/pages/linkedin/funnel?to=yesterday")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"field":"to"`)
}

func TestFunnelHandler_GetFilterOptions(t *testing.T) {
	router := newTestRouter(t, allPages())

	rec := get(t, router, "/api/pages/linkedin/options/prospector")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "prospector", body["field"])
	assert.Equal(t, []interface{}{"Juan Soto", "Maria Perez", "N/D"}, body["values"])
}

func TestFunnelHandler_GetOverview(t *testing.T) {
	provider := allPages()
	provider["SDR"] = tableSource{err: errors.New("quota exceeded")}
	router := newTestRouter(t, provider)

	rec := get(t, router, "/api/overview")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Len(t, body["pages"], 2)
	failed := body["failed"].(map[string]interface{})
	assert.Contains(t, failed["sdr"], "quota exceeded")
}

func TestFunnelHandler_ExportCSV(t *testing.T) {
	router := newTestRouter(t, allPages())

	rec := get(t, router, "/api/pages/linkedin/export?format=CSV")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="linkedin-funnel-20250310.csv"`, rec.Header().Get("Content-Disposition"))

	body := bytes.TrimPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, []string{"Invite Accepted", "4", "100.0", "100.0"}, rows[1])
	assert.Equal(t, []string{"First Message", "3", "75.0", "75.0"}, rows[2])
}

func TestFunnelHandler_ExportRecordsCSV(t *testing.T) {
	router := newTestRouter(t, allPages())

	rec := get(t, router, "/api/pages/linkedin/export?format=csv&rows=true&campaign=q2")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "linkedin-records-20250310.csv")

	body := bytes.TrimPrefix(rec.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	rows, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "name", rows[0][0])
	assert.Equal(t, "Carla Ruiz", rows[1][0])
}

// changingSource serves the outreach table once and an empty sheet after
type changingSource struct {
	fetches atomic.Int32
}

func (s *changingSource) Fetch(ctx context.Context) (sources.Table, error) {
	if s.fetches.Add(1) == 1 {
		return outreach().table, nil
	}
	return sources.Table{Headers: testutil.OutreachHeaders()}, nil
}

func (s *changingSource) Describe() string { return "changing" }

func TestFunnelHandler_ExportRowsMatchSummary(t *testing.T) {
	src := &changingSource{}
	router := newTestRouter(t, staticProvider{"LinkedIn": src})

	rec := get(t, router, "/api/pages/linkedin/export?format=xlsx&rows=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int32(1), src.fetches.Load(), "summary and rows share one read")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()

	funnelRows, err := f.GetRows("Funnel")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(funnelRows), 3)
	assert.Equal(t, []string{"Invite Accepted", "4"}, funnelRows[2][:2])

	records, err := f.GetRows("Records")
	require.NoError(t, err)
	assert.Len(t, records, 7)
}

func TestFunnelHandler_ExportXLSX(t *testing.T) {
	router := newTestRouter(t, allPages())

	rec := get(t, router, "/api/pages/linkedin/export?format=xlsx&group_by=campaign&rows=1")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")

	f, err := excelize.OpenReader(rec.Body)
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{"Funnel", "By campaign", "Records"}, f.GetSheetList())

	records, err := f.GetRows("Records")
	require.NoError(t, err)
	assert.Len(t, records, 7)
}
