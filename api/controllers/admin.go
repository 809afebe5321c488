package controllers

import (
	"net/http"

	"github.com/ecocycle/ecocycle-backend/api/responses"
	adminsvc "github.com/ecocycle/ecocycle-backend/internal/admin"
	pkgerrors "github.com/ecocycle/ecocycle-backend/pkg/errors"
	"github.com/ecocycle/ecocycle-backend/pkg/logger"
)

// AdminStats serves the dashboard counters.
func AdminStats(svc adminsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "admin service unavailable"))
			return
		}

		actor, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := svc.Stats(r.Context(), actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, stats)
	}
}
