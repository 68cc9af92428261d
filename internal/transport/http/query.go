package http

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/johnfenner/beecker-sub000/internal/errors"
	"github.com/johnfenner/beecker-sub000/internal/filters"
	"github.com/johnfenner/beecker-sub000/internal/funnel"
	api "github.com/johnfenner/beecker-sub000/pkg/contracts/api/v1"
)

// decodeFunnelQuery reads a FunnelQuery from the query string. Multi-valued
// parameters may repeat or hold a comma separated list.
func decodeFunnelQuery(values url.Values) api.FunnelQuery {
	return api.FunnelQuery{
		DateRangeRequest: api.DateRangeRequest{
			From: strings.TrimSpace(values.Get("from")),
			To:   strings.TrimSpace(values.Get("to")),
		},
		Prospector: multiValue(values, "prospector"),
		Campaign:   multiValue(values, "campaign"),
		Country:    multiValue(values, "country"),
		Industry:   multiValue(values, "industry"),
		Source:     multiValue(values, "source"),
		Avatar:     multiValue(values, "avatar"),
		Query:      strings.TrimSpace(values.Get("q")),
		GroupBy:    strings.TrimSpace(values.Get("group_by")),
	}
}

// decodeExportRequest reads an ExportRequest. Only a malformed rows flag is
// an error here; everything else is left to validation.
func decodeExportRequest(values url.Values) (api.ExportRequest, error) {
	req := api.ExportRequest{
		FunnelQuery: decodeFunnelQuery(values),
		Format:      strings.ToLower(strings.TrimSpace(values.Get("format"))),
	}
	if raw := values.Get("rows"); raw != "" {
		rows, err := strconv.ParseBool(raw)
		if err != nil {
			return req, apierrors.InvalidParameter("rows", err)
		}
		req.Rows = rows
	}
	return req, nil
}

func multiValue(values url.Values, key string) []string {
	var out []string
	for _, v := range values[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// toFilter converts a validated query into a filter. The date field is
// left to the page default.
func toFilter(q api.FunnelQuery) (filters.Filter, error) {
	var f filters.Filter
	var err error

	if q.From != "" {
		if f.From, err = time.Parse(filters.DateLayout, q.From); err != nil {
			return f, apierrors.InvalidParameter("from", err)
		}
	}
	if q.To != "" {
		if f.To, err = time.Parse(filters.DateLayout, q.To); err != nil {
			return f, apierrors.InvalidParameter("to", err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, apierrors.ErrValidation("to", fmt.Sprintf("to (%s) must not be before from (%s)", q.To, q.From))
	}

	fields := map[string][]string{
		funnel.FieldProspector: q.Prospector,
		funnel.FieldCampaign:   q.Campaign,
		funnel.FieldCountry:    q.Country,
		funnel.FieldIndustry:   q.Industry,
		funnel.FieldSource:     q.Source,
		funnel.FieldAvatar:     q.Avatar,
	}
	for field, values := range fields {
		if len(values) == 0 {
			delete(fields, field)
		}
	}
	if len(fields) > 0 {
		f.Fields = fields
	}
	f.Query = q.Query
	return f, nil
}
