package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gracepointe/serveteam-backend/api/middleware"
	"github.com/gracepointe/serveteam-backend/api/responses"
	"github.com/gracepointe/serveteam-backend/api/validators"
	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
	"github.com/gracepointe/serveteam-backend/pkg/pagination"
)

func grantedMinistry(r *http.Request) (enums.Ministry, error) {
	raw := r.URL.Query().Get("ministry")
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "ministry query parameter required")
	}
	ministry, err := enums.ParseMinistry(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "unknown ministry")
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	if !claims.HasMinistry(ministry) {
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "ministry not granted")
	}
	return ministry, nil
}

// ListAlerts pages through a ministry's alert feed, newest first.
func ListAlerts(alertSvc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ministry, err := grantedMinistry(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := alertSvc.List(r.Context(), alerts.ListParams{
			Ministry:   ministry,
			Limit:      limit,
			Cursor:     r.URL.Query().Get("cursor"),
			UnreadOnly: r.URL.Query().Get("unread") == "true",
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MarkAlertRead acknowledges a single alert.
func MarkAlertRead(alertSvc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ministry, err := grantedMinistry(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		alertID, err := validators.ParseURLUUID(chi.URLParam(r, "alertID"), "alertID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := alertSvc.MarkRead(r.Context(), ministry, alertID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "read"})
	}
}

// MarkAllAlertsRead acknowledges every unread alert for a ministry.
func MarkAllAlertsRead(alertSvc alerts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ministry, err := grantedMinistry(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		count, err := alertSvc.MarkAllRead(r.Context(), ministry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int64{"read": count})
	}
}
