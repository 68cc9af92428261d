package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/johnfenner/beecker-sub000/internal/config"
	"github.com/johnfenner/beecker-sub000/internal/filters"
	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/internal/infrastructure"
	"github.com/johnfenner/beecker-sub000/internal/pages"
	"github.com/johnfenner/beecker-sub000/internal/sources"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

// SourceProvider builds the source of a page. *sources.Factory satisfies it.
type SourceProvider interface {
	For(def config.SourceDefinition) (sources.Source, error)
}

// FunnelService renders funnel reports for the configured pages
type FunnelService struct {
	registry    *pages.Registry
	provider    SourceProvider
	metrics     *infrastructure.BusinessMetrics
	tracer      trace.Tracer
	maxParallel int
	now         func() time.Time
	logger      *slog.Logger
}

// FunnelOption customizes a FunnelService
type FunnelOption func(*FunnelService)

// WithMetrics records renders and fetches on m
func WithMetrics(m *infrastructure.BusinessMetrics) FunnelOption {
	return func(s *FunnelService) { s.metrics = m }
}

// WithTracer replaces the global tracer
func WithTracer(t trace.Tracer) FunnelOption {
	return func(s *FunnelService) { s.tracer = t }
}

// WithMaxParallel bounds the pages Overview renders at once
func WithMaxParallel(n int) FunnelOption {
	return func(s *FunnelService) {
		if n > 0 {
			s.maxParallel = n
		}
	}
}

// WithClock sets the time source stamped on reports
func WithClock(now func() time.Time) FunnelOption {
	return func(s *FunnelService) { s.now = now }
}

// NewFunnelService creates a funnel service over registry
func NewFunnelService(registry *pages.Registry, provider SourceProvider, logger *slog.Logger, opts ...FunnelOption) *FunnelService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &FunnelService{
		registry:    registry,
		provider:    provider,
		tracer:      otel.Tracer(infrastructure.MeterName),
		maxParallel: 4,
		now:         time.Now,
		logger:      logger.With(slog.String("component", "funnel_service")),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.logger.Info("FunnelService initialized",
		slog.Any("pages", registry.IDs()),
		slog.Int("max_parallel", s.maxParallel))
	return s
}

// Pages returns the page catalogue in configured order
func (s *FunnelService) Pages() []domain.PageInfo {
	all := s.registry.All()
	out := make([]domain.PageInfo, len(all))
	for i, p := range all {
		out[i] = p.Info(string(p.Definition().Source.Kind))
	}
	return out
}

// Page returns the catalogue entry of one page
func (s *FunnelService) Page(pageID string) (domain.PageInfo, error) {
	p, err := s.page(pageID)
	if err != nil {
		return domain.PageInfo{}, err
	}
	return p.Info(string(p.Definition().Source.Kind)), nil
}

// Render fetches the page source and computes its funnel over the records
// that pass f. When groupBy is set the report also carries one funnel per
// distinct value of that field.
func (s *FunnelService) Render(ctx context.Context, pageID string, f filters.Filter, groupBy string) (*domain.FunnelReport, error) {
	report, _, err := s.RenderWithRecords(ctx, pageID, f, groupBy)
	return report, err
}

// RenderWithRecords is Render that also returns the normalized records the
// report counted. Both come from a single read of the source.
func (s *FunnelService) RenderWithRecords(ctx context.Context, pageID string, f filters.Filter, groupBy string) (report *domain.FunnelReport, filtered []funnel.Record, err error) {
	p, err := s.page(pageID)
	if err != nil {
		return nil, nil, err
	}
	if groupBy != "" && !p.AllowsGroup(groupBy) {
		return nil, nil, fmt.Errorf("%w: page %q cannot be grouped by %q", ErrUnknownGroupKey, pageID, groupBy)
	}
	f, err = s.resolveFilter(p, f)
	if err != nil {
		return nil, nil, err
	}

	ctx, span := s.tracer.Start(ctx, "funnel.render", trace.WithAttributes(
		attribute.String("page", pageID),
		attribute.String("group_by", groupBy),
	))
	start := time.Now()
	defer func() {
		s.metrics.RecordRender(ctx, pageID, time.Since(start), err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
		}
		span.End()
	}()

	records, quality, err := s.load(ctx, p)
	if err != nil {
		return nil, nil, err
	}

	filtered = filters.Apply(records, f, p.DateParser())
	summary := funnel.Summarize(filtered, p.Stages())

	report = &domain.FunnelReport{
		Page:         p.ID(),
		Title:        p.Title(),
		GeneratedAt:  s.now().UTC(),
		RecordCount:  summary.Total,
		Filters:      f.Applied(),
		Stages:       toStageCounts(summary.Stages),
		Rates:        toRates(summary.Rates),
		RatesVsTotal: toRates(summary.RatesVsTotal),
		DataQuality:  quality,
		Empty:        summary.IsEmpty(),
	}
	if groupBy != "" {
		report.GroupBy = groupBy
		report.Groups = groupReports(filtered, groupBy, p.Stages())
	}

	span.SetAttributes(
		attribute.Int("records.total", len(records)),
		attribute.Int("records.filtered", summary.Total),
	)
	s.logger.DebugContext(ctx, "funnel rendered",
		slog.String("page", pageID),
		slog.Int("records", len(records)),
		slog.Int("filtered", summary.Total),
		slog.String("group_by", groupBy),
		slog.Duration("duration", time.Since(start)))
	return report, filtered, nil
}

// Overview renders every page with the same filter. Pages render
// concurrently; a failed page is listed in Failed and omitted from Pages.
// Only cancellation of ctx fails the whole overview.
func (s *FunnelService) Overview(ctx context.Context, f filters.Filter) (*domain.Overview, error) {
	all := s.registry.All()
	reports := make([]*domain.FunnelReport, len(all))
	failed := make(map[string]string)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxParallel)
	for i, p := range all {
		g.Go(func() error {
			pf := f
			// Each page filters on its own date field.
			pf.DateField = ""
			report, err := s.Render(gctx, p.ID(), pf, "")
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				mu.Lock()
				failed[p.ID()] = err.Error()
				mu.Unlock()
				s.logger.WarnContext(ctx, "overview page failed",
					slog.String("page", p.ID()),
					slog.String("error", err.Error()))
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := &domain.Overview{
		GeneratedAt: s.now().UTC(),
		Pages:       make([]domain.FunnelReport, 0, len(all)),
	}
	for _, r := range reports {
		if r != nil {
			out.Pages = append(out.Pages, *r)
		}
	}
	if len(failed) > 0 {
		out.Failed = failed
	}
	return out, nil
}

// FilterOptions lists the distinct normalized values of field on a page,
// sorted for display.
func (s *FunnelService) FilterOptions(ctx context.Context, pageID, field string) (*domain.FilterOptions, error) {
	p, err := s.page(pageID)
	if err != nil {
		return nil, err
	}
	if !optionField(p, field) {
		return nil, fmt.Errorf("%w: %q on page %q", ErrUnknownField, field, pageID)
	}

	records, _, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	return &domain.FilterOptions{
		Page:   pageID,
		Field:  field,
		Values: filters.Options(records, field),
	}, nil
}

// Records returns the normalized records of a page that pass f
func (s *FunnelService) Records(ctx context.Context, pageID string, f filters.Filter) ([]funnel.Record, error) {
	p, err := s.page(pageID)
	if err != nil {
		return nil, err
	}
	f, err = s.resolveFilter(p, f)
	if err != nil {
		return nil, err
	}

	records, _, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	return filters.Apply(records, f, p.DateParser()), nil
}

// CheckSources reports, per page, whether a source can be built from its
// definition. It does not contact the sources.
func (s *FunnelService) CheckSources() map[string]error {
	out := make(map[string]error, len(s.registry.All()))
	for _, p := range s.registry.All() {
		_, err := s.provider.For(p.Definition().Source)
		out[p.ID()] = err
	}
	return out
}

func (s *FunnelService) page(pageID string) (*pages.Page, error) {
	p, ok := s.registry.Get(pageID)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrPageNotFound, pageID)
	}
	return p, nil
}

func (s *FunnelService) resolveFilter(p *pages.Page, f filters.Filter) (filters.Filter, error) {
	if f.DateField == "" {
		f.DateField = p.DateField()
	}
	if f.HasDateRange() && f.DateField == "" {
		return f, fmt.Errorf("%w: page %q has no date field", ErrInvalidFilter, p.ID())
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, fmt.Errorf("%w: from is after to", ErrInvalidFilter)
	}
	if len(f.QueryFields) == 0 {
		f.QueryFields = filters.DefaultQueryFields
	}
	return f, nil
}

// load fetches and normalizes the rows of a page.
func (s *FunnelService) load(ctx context.Context, p *pages.Page) ([]funnel.Record, domain.DataQuality, error) {
	def := p.Definition()
	src, err := s.provider.For(def.Source)
	if err != nil {
		return nil, domain.DataQuality{}, fmt.Errorf("%w: page %q: %w", ErrSourceUnavailable, p.ID(), err)
	}

	table, err := src.Fetch(ctx)
	s.metrics.RecordFetch(ctx, p.ID(), table.Len(), err)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, domain.DataQuality{}, ctxErr
		}
		s.logger.ErrorContext(ctx, "source fetch failed",
			slog.String("page", p.ID()),
			slog.String("source", src.Describe()),
			slog.String("error", err.Error()))
		return nil, domain.DataQuality{}, fmt.Errorf("%w: page %q: %w", ErrSourceUnavailable, p.ID(), err)
	}

	records, quality := p.Normalize(sources.ToRecords(table, def.Columns))
	s.metrics.RecordDataQuality(ctx, p.ID(), quality.UnrecognizedFlags, quality.UnparsedDates)
	if n := quality.Total(); n > 0 {
		s.logger.WarnContext(ctx, "unreadable cells in source",
			slog.String("page", p.ID()),
			slog.Int("cells", n),
			slog.Any("unrecognized_flags", quality.UnrecognizedFlags),
			slog.Any("unparsed_dates", quality.UnparsedDates))
	}
	return records, quality, nil
}

func optionField(p *pages.Page, field string) bool {
	if slices.Contains(filters.FilterableFields, field) || p.AllowsGroup(field) {
		return true
	}
	_, ok := p.Definition().Categoricals[field]
	return ok
}

func groupReports(records []funnel.Record, field string, stages []funnel.Stage) []domain.GroupReport {
	key := func(r funnel.Record) string {
		if v := r.Value(field); v != "" {
			return v
		}
		return funnel.DefaultCategoricalLabel
	}

	sizes := make(map[string]int)
	for _, r := range records {
		sizes[key(r)]++
	}

	groups := funnel.AggregateBy(records, key, stages)
	order := funnel.GroupOrder(groups)
	out := make([]domain.GroupReport, len(order))
	for i, k := range order {
		counts := groups[k]
		out[i] = domain.GroupReport{
			Key:          k,
			RecordCount:  sizes[k],
			Stages:       toStageCounts(counts),
			Rates:        toRates(funnel.Rates(counts)),
			RatesVsTotal: toRates(funnel.RatesVsTotal(counts)),
		}
	}
	return out
}

func toStageCounts(in []funnel.StageCount) []domain.StageCount {
	out := make([]domain.StageCount, len(in))
	for i, sc := range in {
		out[i] = domain.StageCount{Name: sc.Name, Count: sc.Count}
	}
	return out
}

func toRates(in []funnel.Rate) []domain.Rate {
	out := make([]domain.Rate, len(in))
	for i, r := range in {
		out[i] = domain.Rate{Transition: r.Transition, Percentage: r.Percentage}
	}
	return out
}
