package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gracepointe/serveteam-backend/api/middleware"
	"github.com/gracepointe/serveteam-backend/api/responses"
	"github.com/gracepointe/serveteam-backend/api/validators"
	"github.com/gracepointe/serveteam-backend/internal/matching"
	"github.com/gracepointe/serveteam-backend/internal/roster"
	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
	"github.com/gracepointe/serveteam-backend/pkg/pagination"
)

type createPlanRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	ServiceDate string `json:"service_date" validate:"required"`
	Ministry    string `json:"ministry" validate:"required"`
}

// CreatePlan registers a new service plan.
func CreatePlan(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPlanRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		serviceDate, err := time.Parse("2006-01-02", req.ServiceDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "service_date must be a YYYY-MM-DD date"))
			return
		}
		ministry, err := enums.ParseMinistry(req.Ministry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ministry"))
			return
		}

		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}
		if !claims.HasMinistry(ministry) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "ministry not granted"))
			return
		}

		plan, err := svc.CreateServicePlan(r.Context(), roster.CreatePlanParams{
			Title:       req.Title,
			ServiceDate: serviceDate,
			Ministry:    ministry,
			CreatedBy:   claims.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, plan)
	}
}

// ListPlans returns plans filtered by ministry and start date, cursor-paged.
func ListPlans(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := roster.ListPlansParams{}

		if raw := strings.TrimSpace(r.URL.Query().Get("ministry")); raw != "" {
			ministry, err := enums.ParseMinistry(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid ministry"))
				return
			}
			params.Ministry = &ministry
		}

		from, err := validators.ParseQueryDate(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !from.IsZero() {
			params.FromDate = &from
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params.Limit = limit
		params.Cursor = strings.TrimSpace(r.URL.Query().Get("cursor"))

		result, err := svc.ListPlans(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetPlan returns one plan with its slots and assignments.
func GetPlan(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.ParseURLUUID(chi.URLParam(r, "planID"), "planID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := svc.GetPlan(r.Context(), planID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

type createSlotRequest struct {
	RoleType      string `json:"role_type" validate:"required,max=100"`
	RequiredCount int    `json:"required_count" validate:"required,min=1"`
}

// CreateSlot adds a role slot to a plan.
func CreateSlot(svc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		planID, err := validators.ParseURLUUID(chi.URLParam(r, "planID"), "planID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req createSlotRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		slot, err := svc.CreateRoleSlot(r.Context(), roster.CreateSlotParams{
			ServicePlanID: planID,
			RoleType:      req.RoleType,
			RequiredCount: req.RequiredCount,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, slot)
	}
}

// SlotCandidates runs the matcher for a slot and returns ranked volunteers.
// An empty list means the pool is exhausted, not an error.
func SlotCandidates(rosterSvc roster.Service, matchingSvc matching.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, err := validators.ParseURLUUID(chi.URLParam(r, "slotID"), "slotID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		plan, err := rosterSvc.GetSlotPlan(r.Context(), slotID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pool, err := matchingSvc.DefaultPool(r.Context(), plan.Ministry)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		candidates, err := matchingSvc.FindCandidates(r.Context(), matching.SlotContext{
			RoleSlotID:  slotID,
			ServiceDate: plan.ServiceDate,
			Ministry:    plan.Ministry,
		}, pool)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if candidates == nil {
			candidates = []models.Volunteer{}
		}
		responses.WriteSuccess(w, candidates)
	}
}
