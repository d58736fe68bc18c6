package alerts

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	"github.com/gracepointe/serveteam-backend/pkg/pagination"
)

// Service defines alert raise/list/read operations for leader dashboards.
type Service interface {
	Raise(ctx context.Context, params RaiseParams) error
	List(ctx context.Context, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, ministry enums.Ministry, alertID uuid.UUID) error
	MarkAllRead(ctx context.Context, ministry enums.Ministry) (int64, error)
	PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error)
}

type service struct {
	repo Repository
}

// RaiseParams describes a new alert.
type RaiseParams struct {
	Kind     enums.AlertKind
	Ministry enums.Ministry
	Title    string
	Message  string
	Subject  *uuid.UUID
}

// ListParams configures pagination for alerts.
type ListParams struct {
	Ministry   enums.Ministry
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// ListResult wraps returned alerts and the cursor for the next page.
type ListResult struct {
	Items  []models.Alert `json:"items"`
	Cursor string         `json:"cursor"`
}

// NewService wires alerts dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "alerts repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Raise(ctx context.Context, params RaiseParams) error {
	if !params.Kind.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown alert kind")
	}
	if !params.Ministry.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown ministry")
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "alert title required")
	}

	alert := &models.Alert{
		Kind:      params.Kind,
		Ministry:  params.Ministry,
		Title:     title,
		Message:   strings.TrimSpace(params.Message),
		SubjectID: params.Subject,
	}
	if err := s.repo.Create(ctx, alert); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create alert")
	}
	return nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if !params.Ministry.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown ministry")
	}

	query := listAlertsParams{
		Ministry:   params.Ministry,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list alerts")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, ministry enums.Ministry, alertID uuid.UUID) error {
	if !ministry.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown ministry")
	}
	if alertID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "alert id required")
	}

	result, err := s.repo.MarkRead(ctx, ministry, alertID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark alert read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "alert not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, ministry enums.Ministry) (int64, error) {
	if !ministry.IsValid() {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "unknown ministry")
	}

	count, err := s.repo.MarkAllRead(ctx, ministry, time.Now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark alerts read")
	}
	return count, nil
}

// PurgeRead removes alerts that were read before the retention window.
func (s *service) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "retention must be positive")
	}
	cutoff := time.Now().UTC().Add(-olderThan)
	deleted, err := s.repo.DeleteReadBefore(ctx, cutoff)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "purge alerts")
	}
	return deleted, nil
}
