package http

import (
	"context"

	"github.com/johnfenner/beecker-sub000/internal/filters"
	"github.com/johnfenner/beecker-sub000/internal/funnel"
	"github.com/johnfenner/beecker-sub000/pkg/contracts/domain"
)

// FunnelServiceInterface is the part of services.FunnelService the
// handlers use
type FunnelServiceInterface interface {
	Pages() []domain.PageInfo
	Page(pageID string) (domain.PageInfo, error)
	Render(ctx context.Context, pageID string, f filters.Filter, groupBy string) (*domain.FunnelReport, error)
	RenderWithRecords(ctx context.Context, pageID string, f filters.Filter, groupBy string) (*domain.FunnelReport, []funnel.Record, error)
	Overview(ctx context.Context, f filters.Filter) (*domain.Overview, error)
	FilterOptions(ctx context.Context, pageID, field string) (*domain.FilterOptions, error)
}
