package rsvp

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/internal/roster"
	"github.com/gracepointe/serveteam-backend/pkg/auth"
	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
)

// Service handles volunteer responses to invitations, from both the
// authenticated in-app path and signed email links.
type Service interface {
	Respond(ctx context.Context, params RespondParams) (*models.Assignment, error)
	RespondWithToken(ctx context.Context, token string) (*models.Assignment, error)
}

// AssignmentFinder reads assignments for response validation.
type AssignmentFinder interface {
	FindAssignment(ctx context.Context, assignmentID uuid.UUID) (*models.Assignment, error)
}

// RespondParams carries an in-app response.
type RespondParams struct {
	AssignmentID uuid.UUID
	VolunteerID  uuid.UUID
	Decision     enums.AssignmentStatus
	Actor        roster.Actor
}

type service struct {
	finder  AssignmentFinder
	roster  roster.Service
	linkCfg config.ResponseLinkConfig

	now func() time.Time
}

// NewService wires the response handler.
func NewService(finder AssignmentFinder, rosterSvc roster.Service, linkCfg config.ResponseLinkConfig) (Service, error) {
	if finder == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "assignment finder required")
	}
	if rosterSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "roster service required")
	}
	return &service{
		finder:  finder,
		roster:  rosterSvc,
		linkCfg: linkCfg,
		now:     func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Respond(ctx context.Context, params RespondParams) (*models.Assignment, error) {
	if params.AssignmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "assignment id required")
	}
	if params.Decision != enums.AssignmentStatusAccepted && params.Decision != enums.AssignmentStatusDeclined {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "decision must be accepted or declined")
	}

	assignment, err := s.finder.FindAssignment(ctx, params.AssignmentID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find assignment")
	}
	if assignment == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}
	if params.VolunteerID != uuid.Nil && assignment.VolunteerID != params.VolunteerID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "assignment not found")
	}

	// Replaying the same decision is a no-op so accept links can be
	// clicked twice without surfacing an error.
	if assignment.Status == params.Decision {
		return assignment, nil
	}
	if assignment.Status != enums.AssignmentStatusInvited {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "invitation already resolved as "+string(assignment.Status))
	}

	respondedAt := s.now()
	return s.roster.Transition(ctx, roster.TransitionParams{
		AssignmentID: params.AssignmentID,
		To:           params.Decision,
		Actor:        params.Actor,
		RespondedAt:  &respondedAt,
	})
}

// RespondWithToken authenticates the response by the signed link alone. The
// token binds assignment, volunteer, and a single decision, so a forwarded
// link cannot act on anyone else's invitation.
func (s *service) RespondWithToken(ctx context.Context, token string) (*models.Assignment, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "response token required")
	}

	claims, err := auth.ParseResponseLink(s.linkCfg, token)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid response token")
	}

	return s.Respond(ctx, RespondParams{
		AssignmentID: claims.AssignmentID,
		VolunteerID:  claims.VolunteerID,
		Decision:     claims.Decision,
		Actor: roster.Actor{
			UserID: claims.VolunteerID,
			Role:   enums.CallerRoleVolunteer,
		},
	})
}
