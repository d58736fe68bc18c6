package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	pkgerrors "github.com/gracepointe/serveteam-backend/pkg/errors"
	paginationpkg "github.com/gracepointe/serveteam-backend/pkg/pagination"
)

type fakeRepository struct {
	createFn           func(ctx context.Context, alert *models.Alert) error
	listFn             func(ctx context.Context, params listAlertsParams) ([]models.Alert, *paginationpkg.Cursor, error)
	markReadFn         func(ctx context.Context, ministry enums.Ministry, alertID uuid.UUID, now time.Time) (alertMarkResult, error)
	markAllReadFn      func(ctx context.Context, ministry enums.Ministry, now time.Time) (int64, error)
	deleteReadBeforeFn func(ctx context.Context, cutoff time.Time) (int64, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeRepository) Create(ctx context.Context, alert *models.Alert) error {
	if f.createFn != nil {
		return f.createFn(ctx, alert)
	}
	return nil
}

func (f *fakeRepository) List(ctx context.Context, params listAlertsParams) ([]models.Alert, *paginationpkg.Cursor, error) {
	if f.listFn != nil {
		return f.listFn(ctx, params)
	}
	return nil, nil, nil
}

func (f *fakeRepository) MarkRead(ctx context.Context, ministry enums.Ministry, alertID uuid.UUID, now time.Time) (alertMarkResult, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, ministry, alertID, now)
	}
	return alertMarkResult{}, nil
}

func (f *fakeRepository) MarkAllRead(ctx context.Context, ministry enums.Ministry, now time.Time) (int64, error) {
	if f.markAllReadFn != nil {
		return f.markAllReadFn(ctx, ministry, now)
	}
	return 0, nil
}

func (f *fakeRepository) DeleteReadBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	if f.deleteReadBeforeFn != nil {
		return f.deleteReadBeforeFn(ctx, cutoff)
	}
	return 0, nil
}

func newServiceWithRepo(repo Repository) Service {
	svc, _ := NewService(repo)
	return svc
}

func TestRaiseValidation(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})

	err := svc.Raise(context.Background(), RaiseParams{
		Kind:     enums.AlertKind("weather"),
		Ministry: enums.MinistryWorship,
		Title:    "t",
	})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for unknown kind, got %v", err)
	}

	err = svc.Raise(context.Background(), RaiseParams{
		Kind:     enums.AlertKindUnfilledSlot,
		Ministry: enums.MinistryWorship,
		Title:    "   ",
	})
	appErr = pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for blank title, got %v", err)
	}
}

func TestRaiseCreatesAlert(t *testing.T) {
	var created *models.Alert
	repo := &fakeRepository{
		createFn: func(ctx context.Context, alert *models.Alert) error {
			created = alert
			return nil
		},
	}
	svc := newServiceWithRepo(repo)

	subject := uuid.New()
	err := svc.Raise(context.Background(), RaiseParams{
		Kind:     enums.AlertKindDeliveryFailed,
		Ministry: enums.MinistryKids,
		Title:    " Delivery failed ",
		Message:  "provider rejected recipient",
		Subject:  &subject,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatalf("expected create call")
	}
	if created.Title != "Delivery failed" {
		t.Fatalf("title not trimmed: %q", created.Title)
	}
	if created.SubjectID == nil || *created.SubjectID != subject {
		t.Fatalf("subject id not stored")
	}
}

func TestListPaginates(t *testing.T) {
	first := models.Alert{ID: uuid.New(), CreatedAt: time.Now().Add(-time.Hour)}
	next := paginationpkg.Cursor{CreatedAt: time.Now(), ID: uuid.New()}

	repo := &fakeRepository{
		listFn: func(ctx context.Context, params listAlertsParams) ([]models.Alert, *paginationpkg.Cursor, error) {
			if !params.UnreadOnly {
				t.Fatalf("unread filter not forwarded")
			}
			return []models.Alert{first}, &next, nil
		},
	}
	svc := newServiceWithRepo(repo)

	result, err := svc.List(context.Background(), ListParams{
		Ministry:   enums.MinistryWorship,
		Limit:      1,
		UnreadOnly: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 alert")
	}
	if result.Cursor == "" {
		t.Fatalf("expected next-page cursor")
	}
}

func TestMarkReadNotFound(t *testing.T) {
	repo := &fakeRepository{
		markReadFn: func(ctx context.Context, ministry enums.Ministry, alertID uuid.UUID, now time.Time) (alertMarkResult, error) {
			return alertMarkResult{Found: false}, nil
		},
	}
	svc := newServiceWithRepo(repo)

	err := svc.MarkRead(context.Background(), enums.MinistryWorship, uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestPurgeReadRequiresPositiveRetention(t *testing.T) {
	svc := newServiceWithRepo(&fakeRepository{})

	_, err := svc.PurgeRead(context.Background(), 0)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
