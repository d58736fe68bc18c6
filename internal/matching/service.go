package matching

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
)

// SlotContext carries the slot facts the matcher filters against.
type SlotContext struct {
	RoleSlotID  uuid.UUID
	ServiceDate time.Time
	Ministry    enums.Ministry
}

// Service ranks candidate volunteers for a role slot. An empty result is a
// normal return, not an error; the caller decides how to escalate.
type Service interface {
	FindCandidates(ctx context.Context, slot SlotContext, pool []models.Volunteer) ([]models.Volunteer, error)
	DefaultPool(ctx context.Context, ministry enums.Ministry) ([]models.Volunteer, error)
}

type service struct {
	repo Repository
}

// NewService wires matching dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "matching repository required")
	}
	return &service{repo: repo}, nil
}

// DefaultPool loads the active volunteers tagged for the ministry, in stable
// provisioning order.
func (s *service) DefaultPool(ctx context.Context, ministry enums.Ministry) ([]models.Volunteer, error) {
	if !ministry.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown ministry")
	}
	pool, err := s.repo.ActivePool(ctx, ministry)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load volunteer pool")
	}
	return pool, nil
}

func (s *service) FindCandidates(ctx context.Context, slot SlotContext, pool []models.Volunteer) ([]models.Volunteer, error) {
	if slot.RoleSlotID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "role slot id required")
	}
	if len(pool) == 0 {
		return nil, nil
	}

	date := slot.ServiceDate.UTC().Truncate(24 * time.Hour)
	ids := make([]uuid.UUID, 0, len(pool))
	for _, v := range pool {
		ids = append(ids, v.ID)
	}

	unavailable, err := s.repo.UnavailableOn(ctx, ids, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load unavailability")
	}
	booked, err := s.repo.ActiveOnDate(ctx, ids, date)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load same-day assignments")
	}

	eligible := make([]models.Volunteer, 0, len(pool))
	for _, v := range pool {
		if !v.Active {
			continue
		}
		if unavailable[v.ID] {
			continue
		}
		if booked[v.ID] {
			continue
		}
		eligible = append(eligible, v)
	}
	if len(eligible) == 0 {
		return nil, nil
	}

	lastServed, err := s.repo.LastServedAt(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load service history")
	}

	// Least recently served first; never-served volunteers sort ahead of
	// everyone. Stable sort preserves pool order for ties.
	sort.SliceStable(eligible, func(i, j int) bool {
		ti, iServed := lastServed[eligible[i].ID]
		tj, jServed := lastServed[eligible[j].ID]
		if !iServed && !jServed {
			return false
		}
		if !iServed {
			return true
		}
		if !jServed {
			return false
		}
		return ti.Before(tj)
	})

	return eligible, nil
}
