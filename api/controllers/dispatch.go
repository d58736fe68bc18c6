package controllers

import (
	"net/http"

	"github.com/gracepointe/serveteam-backend/api/responses"
	"github.com/gracepointe/serveteam-backend/api/validators"
	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

// RunDispatch drains a batch of pending notifications on demand. The cron
// worker covers steady state; this endpoint exists for manual catch-up after
// an incident.
func RunDispatch(dispatchSvc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		batch, err := validators.ParseQueryInt(r, "batch", 50, 1, 500)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		stats, err := dispatchSvc.ProcessPending(r.Context(), batch)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
