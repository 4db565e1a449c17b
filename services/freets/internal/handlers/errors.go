package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/example/fritter/internal/platform/api"
	"github.com/example/fritter/internal/platform/httpserver"
	"github.com/example/fritter/services/freets/internal/domain"
)

// writeError maps a service error onto the API envelope. Infrastructure
// failures are logged and reported without detail.
func (h *Handlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	rid := httpserver.RequestIDFromContext(r.Context())

	var verr *domain.ValidationError
	var nf *domain.NotFoundError
	switch {
	case errors.As(err, &verr):
		details := api.FieldDetails(verr.Field)
		if verr.Code == domain.CodeContentTooLong {
			api.TooLarge(w, verr.Code, verr.Message, rid, details)
			return
		}
		api.BadRequest(w, verr.Code, verr.Message, rid, details)
	case errors.As(err, &nf):
		api.NotFound(w, "NOT_FOUND", nf.Message(), rid)
	case errors.Is(err, domain.ErrPermission):
		api.Forbidden(w, "FORBIDDEN", domain.ErrPermission.Error(), rid)
	case errors.Is(err, domain.ErrConflict):
		api.Conflict(w, "CONFLICT", err.Error(), rid)
	default:
		h.logger().Error("request failed",
			zap.String("request_id", rid),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		api.Internal(w, rid)
	}
}

func badJSON(w http.ResponseWriter, r *http.Request) {
	api.BadRequest(w, "INVALID_JSON", "invalid JSON", httpserver.RequestIDFromContext(r.Context()), nil)
}
