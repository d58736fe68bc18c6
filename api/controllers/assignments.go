package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/api/middleware"
	"github.com/gracepointe/serveteam-backend/api/responses"
	"github.com/gracepointe/serveteam-backend/api/validators"
	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/internal/presence"
	"github.com/gracepointe/serveteam-backend/internal/roster"
	"github.com/gracepointe/serveteam-backend/internal/rsvp"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

type inviteRequest struct {
	VolunteerID string `json:"volunteer_id" validate:"required,uuid4"`
}

// InviteVolunteer creates an invited assignment in a slot, queues the
// invitation email, and nudges the dispatcher so the invite does not wait
// for the next cron cycle.
func InviteVolunteer(rosterSvc roster.Service, dispatchSvc dispatch.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slotID, err := validators.ParseURLUUID(chi.URLParam(r, "slotID"), "slotID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req inviteRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		volunteerID, err := uuid.Parse(req.VolunteerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "volunteer_id must be a uuid"))
			return
		}

		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		assignment, err := rosterSvc.AssignVolunteer(r.Context(), roster.AssignParams{
			RoleSlotID:  slotID,
			VolunteerID: volunteerID,
			InvitedBy:   claims.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The assignment row is committed before the invite is queued, so a
		// dispatch outage leaves a retriable invited assignment rather than
		// losing the slot reservation.
		if _, err := dispatchSvc.Enqueue(r.Context(), assignment.ID, enums.NotificationKindInvite); err != nil {
			logg.Error(r.Context(), "queue invitation after assignment", err)
		} else if _, err := dispatchSvc.ProcessPending(r.Context(), 1); err != nil {
			// Best effort; the cron cycle picks the record up otherwise.
			logg.Error(r.Context(), "send queued invitation", err)
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, assignment)
	}
}

// CancelAssignment withdraws an assignment. Cancelling twice is a no-op.
func CancelAssignment(rosterSvc roster.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParseURLUUID(chi.URLParam(r, "assignmentID"), "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		assignment, err := rosterSvc.CancelAssignment(r.Context(), assignmentID, roster.Actor{
			UserID: claims.UserID,
			Role:   claims.Role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

type respondRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accepted declined"`
}

// RespondInApp lets the authenticated volunteer answer their own invitation.
func RespondInApp(rsvpSvc rsvp.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParseURLUUID(chi.URLParam(r, "assignmentID"), "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req respondRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		params := rsvp.RespondParams{
			AssignmentID: assignmentID,
			Decision:     enums.AssignmentStatus(req.Decision),
			Actor: roster.Actor{
				UserID: claims.UserID,
				Role:   claims.Role,
			},
		}
		// Volunteers can only answer their own invitations. Admins and
		// leaders may respond on a volunteer's behalf.
		if claims.Role == enums.CallerRoleVolunteer {
			if claims.VolunteerID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "volunteer profile required"))
				return
			}
			params.VolunteerID = *claims.VolunteerID
		}

		assignment, err := rsvpSvc.Respond(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, assignment)
	}
}

type presenceRequest struct {
	Attended *bool `json:"attended" validate:"required"`
}

// RecordPresence closes an accepted assignment as confirmed or absent.
func RecordPresence(presenceSvc presence.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assignmentID, err := validators.ParseURLUUID(chi.URLParam(r, "assignmentID"), "assignmentID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req presenceRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		record, err := presenceSvc.Record(r.Context(), presence.RecordParams{
			AssignmentID: assignmentID,
			Attended:     *req.Attended,
			RecordedBy:   claims.UserID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, record)
	}
}
