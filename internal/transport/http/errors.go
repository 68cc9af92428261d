package http

import (
	"context"
	"errors"

	apierrors "github.com/johnfenner/beecker-sub000/internal/errors"
	"github.com/johnfenner/beecker-sub000/internal/services"
)

// toAPIError maps service errors onto API errors. Context errors pass
// through so the error handler reports them as timeouts.
func toAPIError(err error, pageID string) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, services.ErrPageNotFound):
		return apierrors.PageNotFound(pageID)
	case errors.Is(err, services.ErrUnknownGroupKey):
		return apierrors.InvalidParameter("group_by", err)
	case errors.Is(err, services.ErrUnknownField):
		return apierrors.InvalidParameter("field", err)
	case errors.Is(err, services.ErrInvalidFilter):
		return apierrors.InvalidParameter("filter", err)
	case errors.Is(err, services.ErrSourceUnavailable):
		return apierrors.SourceError(pageID, err)
	default:
		return err
	}
}
