package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "github.com/johnfenner/beecker-sub000/internal/errors"
	"github.com/johnfenner/beecker-sub000/internal/exporter"
	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/internal/middleware"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

type pageCtxKey struct{}

// FunnelHandler serves the page catalogue, funnel reports and exports
type FunnelHandler struct {
	service      FunnelServiceInterface
	validator    *middleware.Validator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewFunnelHandler creates a new funnel handler
func NewFunnelHandler(service FunnelServiceInterface, validator *middleware.Validator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *FunnelHandler {
	return &FunnelHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "funnel_handler")),
	}
}

// Routes returns the /pages routes
func (h *FunnelHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPages)
	r.Route("/{pageID}", func(r chi.Router) {
		r.Use(h.PageCtx)
		r.Get("/", h.GetPage)
		r.Get("/funnel", h.GetFunnel)
		r.Get("/options/{field}", h.GetFilterOptions)
		r.Get("/export", h.Export)
	})

	return r
}

// PageCtx loads the page named in the path into the request context
func (h *FunnelHandler) PageCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pageID := chi.URLParam(r, "pageID")
		info, err := h.service.Page(pageID)
		if err != nil {
			h.errorHandler.HandleError(w, r, toAPIError(err, pageID))
			return
		}
		ctx := context.WithValue(r.Context(), pageCtxKey{}, info)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func pageFromContext(ctx context.Context) domain.PageInfo {
	info, _ := ctx.Value(pageCtxKey{}).(domain.PageInfo)
	return info
}

// ListPages handles GET /api/pages
func (h *FunnelHandler) ListPages(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"pages": h.service.Pages(),
	})
}

// GetPage handles GET /api/pages/{pageID}
func (h *FunnelHandler) GetPage(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, pageFromContext(r.Context()))
}

// GetFunnel handles GET /api/pages/{pageID}/funnel
func (h *FunnelHandler) GetFunnel(w http.ResponseWriter, r *http.Request) {
	page := pageFromContext(r.Context())

	q := decodeFunnelQuery(r.URL.Query())
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	f, err := toFilter(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, err := h.service.Render(r.Context(), page.ID, f, q.GroupBy)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err, page.ID))
		return
	}
	render.JSON(w, r, report)
}

// GetFilterOptions handles GET /api/pages/{pageID}/options/{field}
func (h *FunnelHandler) GetFilterOptions(w http.ResponseWriter, r *http.Request) {
	page := pageFromContext(r.Context())
	field := chi.URLParam(r, "field")

	opts, err := h.service.FilterOptions(r.Context(), page.ID, field)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err, page.ID))
		return
	}
	render.JSON(w, r, opts)
}

// GetOverview handles GET /api/overview. Pages whose source failed are
// listed under "failed"; the response is still 200.
func (h *FunnelHandler) GetOverview(w http.ResponseWriter, r *http.Request) {
	q := decodeFunnelQuery(r.URL.Query())
	if err := h.validator.ValidateStruct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if q.GroupBy != "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("group_by", "group_by is not supported by the overview"))
		return
	}
	f, err := toFilter(q)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	overview, err := h.service.Overview(r.Context(), f)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err, ""))
		return
	}
	if len(overview.Failed) > 0 {
		h.logger.WarnContext(r.Context(), "overview rendered with failed pages",
			slog.Int("failed", len(overview.Failed)))
	}
	render.JSON(w, r, overview)
}

// Export handles GET /api/pages/{pageID}/export?format=csv|xlsx. The file
// is built in memory so that a failure still produces a problem response.
func (h *FunnelHandler) Export(w http.ResponseWriter, r *http.Request) {
	page := pageFromContext(r.Context())

	req, err := decodeExportRequest(r.URL.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidParameter("format", err))
		return
	}
	f, err := toFilter(req.FunnelQuery)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	report, records, err := h.service.RenderWithRecords(r.Context(), page.ID, f, req.GroupBy)
	if err != nil {
		h.errorHandler.HandleError(w, r, toAPIError(err, page.ID))
		return
	}
	switch {
	case !req.Rows:
		records = nil
	case records == nil:
		records = []funnel.Record{}
	}

	var buf bytes.Buffer
	if err := exporter.Export(&buf, format, report, records); err != nil {
		h.errorHandler.HandleError(w, r, fmt.Errorf("export %s: %w", page.ID, err))
		return
	}

	filename := exporter.Filename(page.ID, req.Rows, format, report.GeneratedAt)
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.WarnContext(r.Context(), "export write failed",
			slog.String("page", page.ID),
			slog.String("error", err.Error()))
		return
	}

	h.logger.InfoContext(r.Context(), "export served",
		slog.String("page", page.ID),
		slog.String("format", string(format)),
		slog.Bool("rows", req.Rows),
		slog.String("filename", filename))
}
