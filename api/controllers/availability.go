package controllers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gracepointe/serveteam-backend/api/middleware"
	"github.com/gracepointe/serveteam-backend/api/responses"
	"github.com/gracepointe/serveteam-backend/api/validators"
	"github.com/gracepointe/serveteam-backend/internal/availability"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

type addWindowRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
	Reason    string `json:"reason" validate:"max=500"`
}

// AddUnavailability records a window during which the volunteer cannot serve.
func AddUnavailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		volunteerID, err := validators.ParseURLUUID(chi.URLParam(r, "volunteerID"), "volunteerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addWindowRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		start, err := time.Parse("2006-01-02", req.StartDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "start_date must be a YYYY-MM-DD date"))
			return
		}
		end, err := time.Parse("2006-01-02", req.EndDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "end_date must be a YYYY-MM-DD date"))
			return
		}

		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		window, err := svc.AddWindow(r.Context(), availability.AddWindowParams{
			VolunteerID: volunteerID,
			StartDate:   start,
			EndDate:     end,
			Reason:      req.Reason,
			CreatedBy:   claims.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, window)
	}
}

// RemoveUnavailability deletes a window. Removing an already removed window
// succeeds.
func RemoveUnavailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		volunteerID, err := validators.ParseURLUUID(chi.URLParam(r, "volunteerID"), "volunteerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		windowID, err := validators.ParseURLUUID(chi.URLParam(r, "windowID"), "windowID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveWindow(r.Context(), volunteerID, windowID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

// ListUnavailability returns the volunteer's windows, newest start first.
func ListUnavailability(svc availability.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		volunteerID, err := validators.ParseURLUUID(chi.URLParam(r, "volunteerID"), "volunteerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		windows, err := svc.ListWindows(r.Context(), volunteerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, windows)
	}
}
