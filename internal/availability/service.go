package availability

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
)

// Service manages volunteer unavailability windows. A volunteer is available
// on a date exactly when no window covers it.
type Service interface {
	AddWindow(ctx context.Context, params AddWindowParams) (*models.AvailabilityWindow, error)
	RemoveWindow(ctx context.Context, volunteerID, windowID uuid.UUID) error
	ListWindows(ctx context.Context, volunteerID uuid.UUID) ([]models.AvailabilityWindow, error)
	IsAvailable(ctx context.Context, volunteerID uuid.UUID, date time.Time) (bool, error)
}

type service struct {
	repo Repository
}

// AddWindowParams carries the inputs for a new unavailability window.
type AddWindowParams struct {
	VolunteerID uuid.UUID
	StartDate   time.Time
	EndDate     time.Time
	Reason      string
	CreatedBy   uuid.UUID
}

// NewService wires availability dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "availability repository required")
	}
	return &service{repo: repo}, nil
}

// TruncateToDate drops the time-of-day portion, normalizing to UTC midnight.
// All window comparisons are whole-day.
func TruncateToDate(t time.Time) time.Time {
	return t.UTC().Truncate(24 * time.Hour)
}

func (s *service) AddWindow(ctx context.Context, params AddWindowParams) (*models.AvailabilityWindow, error) {
	if params.VolunteerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "volunteer id required")
	}
	if params.CreatedBy == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "created by required")
	}

	start := TruncateToDate(params.StartDate)
	end := TruncateToDate(params.EndDate)
	if end.Before(start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "window end date precedes start date")
	}

	volunteer, err := s.repo.FindVolunteer(ctx, params.VolunteerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find volunteer")
	}
	if volunteer == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "volunteer not found")
	}

	window := &models.AvailabilityWindow{
		VolunteerID: params.VolunteerID,
		StartDate:   start,
		EndDate:     end,
		CreatedBy:   params.CreatedBy,
	}
	if reason := strings.TrimSpace(params.Reason); reason != "" {
		window.Reason = &reason
	}

	if err := s.repo.Create(ctx, window); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create availability window")
	}
	return window, nil
}

// RemoveWindow deletes the window if present. Removing an already removed
// window succeeds so retried requests stay safe.
func (s *service) RemoveWindow(ctx context.Context, volunteerID, windowID uuid.UUID) error {
	if volunteerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "volunteer id required")
	}
	if windowID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "window id required")
	}

	if _, err := s.repo.Delete(ctx, volunteerID, windowID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete availability window")
	}
	return nil
}

func (s *service) ListWindows(ctx context.Context, volunteerID uuid.UUID) ([]models.AvailabilityWindow, error) {
	if volunteerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "volunteer id required")
	}
	windows, err := s.repo.ListByVolunteer(ctx, volunteerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list availability windows")
	}
	return windows, nil
}

func (s *service) IsAvailable(ctx context.Context, volunteerID uuid.UUID, date time.Time) (bool, error) {
	if volunteerID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "volunteer id required")
	}
	count, err := s.repo.CountOverlapping(ctx, volunteerID, TruncateToDate(date))
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count overlapping windows")
	}
	return count == 0, nil
}
