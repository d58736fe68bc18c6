package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/internal/availability"
	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/internal/matching"
	"github.com/gracepointe/serveteam-backend/internal/presence"
	"github.com/gracepointe/serveteam-backend/internal/roster"
	"github.com/gracepointe/serveteam-backend/internal/rsvp"
	pkgauth "github.com/gracepointe/serveteam-backend/pkg/auth"
	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/db/models"
	"github.com/gracepointe/serveteam-backend/pkg/enums"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubAvailabilityService struct{}

func (stubAvailabilityService) AddWindow(ctx context.Context, params availability.AddWindowParams) (*models.AvailabilityWindow, error) {
	panic("unimplemented")
}

func (stubAvailabilityService) RemoveWindow(ctx context.Context, volunteerID, windowID uuid.UUID) error {
	panic("unimplemented")
}

func (stubAvailabilityService) ListWindows(ctx context.Context, volunteerID uuid.UUID) ([]models.AvailabilityWindow, error) {
	return []models.AvailabilityWindow{}, nil
}

func (stubAvailabilityService) IsAvailable(ctx context.Context, volunteerID uuid.UUID, date time.Time) (bool, error) {
	return true, nil
}

type stubRosterService struct{}

func (stubRosterService) CreateServicePlan(ctx context.Context, params roster.CreatePlanParams) (*models.ServicePlan, error) {
	panic("unimplemented")
}

func (stubRosterService) CreateRoleSlot(ctx context.Context, params roster.CreateSlotParams) (*models.RoleSlot, error) {
	panic("unimplemented")
}

func (stubRosterService) AssignVolunteer(ctx context.Context, params roster.AssignParams) (*models.Assignment, error) {
	panic("unimplemented")
}

func (stubRosterService) Transition(ctx context.Context, params roster.TransitionParams) (*models.Assignment, error) {
	panic("unimplemented")
}

func (stubRosterService) CancelAssignment(ctx context.Context, assignmentID uuid.UUID, actor roster.Actor) (*models.Assignment, error) {
	panic("unimplemented")
}

func (stubRosterService) GetPlan(ctx context.Context, planID uuid.UUID) (*models.ServicePlan, error) {
	panic("unimplemented")
}

func (stubRosterService) GetSlotPlan(ctx context.Context, slotID uuid.UUID) (*models.ServicePlan, error) {
	panic("unimplemented")
}

func (stubRosterService) ListPlans(ctx context.Context, params roster.ListPlansParams) (*roster.ListPlansResult, error) {
	return &roster.ListPlansResult{Items: []models.ServicePlan{}}, nil
}

type stubMatchingService struct{}

func (stubMatchingService) FindCandidates(ctx context.Context, slot matching.SlotContext, pool []models.Volunteer) ([]models.Volunteer, error) {
	return nil, nil
}

func (stubMatchingService) DefaultPool(ctx context.Context, ministry enums.Ministry) ([]models.Volunteer, error) {
	return nil, nil
}

type stubDispatchService struct{}

func (stubDispatchService) Enqueue(ctx context.Context, assignmentID uuid.UUID, kind enums.NotificationKind) (*models.NotificationRecord, error) {
	panic("unimplemented")
}

func (stubDispatchService) ProcessPending(ctx context.Context, batchSize int) (dispatch.Stats, error) {
	return dispatch.Stats{}, nil
}

func (stubDispatchService) EnqueueDueReminders(ctx context.Context) (int, error) {
	return 0, nil
}

func (stubDispatchService) PurgeOldRecords(ctx context.Context) (int64, error) {
	return 0, nil
}

type stubRSVPService struct{}

func (stubRSVPService) Respond(ctx context.Context, params rsvp.RespondParams) (*models.Assignment, error) {
	panic("unimplemented")
}

func (stubRSVPService) RespondWithToken(ctx context.Context, token string) (*models.Assignment, error) {
	return &models.Assignment{ID: uuid.New()}, nil
}

type stubPresenceService struct{}

func (stubPresenceService) Record(ctx context.Context, params presence.RecordParams) (*models.PresenceRecord, error) {
	panic("unimplemented")
}

func (stubPresenceService) Get(ctx context.Context, assignmentID uuid.UUID) (*models.PresenceRecord, error) {
	panic("unimplemented")
}

type stubAlertsService struct{}

func (stubAlertsService) Raise(ctx context.Context, params alerts.RaiseParams) error {
	return nil
}

func (stubAlertsService) List(ctx context.Context, params alerts.ListParams) (*alerts.ListResult, error) {
	return &alerts.ListResult{Items: []models.Alert{}}, nil
}

func (stubAlertsService) MarkRead(ctx context.Context, ministry enums.Ministry, alertID uuid.UUID) error {
	return nil
}

func (stubAlertsService) MarkAllRead(ctx context.Context, ministry enums.Ministry) (int64, error) {
	return 0, nil
}

func (stubAlertsService) PurgeRead(ctx context.Context, olderThan time.Duration) (int64, error) {
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "serveteam-test",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(
		cfg,
		logg,
		stubPinger{},
		nil,
		Services{
			Availability: stubAvailabilityService{},
			Roster:       stubRosterService{},
			Matching:     stubMatchingService{},
			Dispatch:     stubDispatchService{},
			RSVP:         stubRSVPService{},
			Presence:     stubPresenceService{},
			Alerts:       stubAlertsService{},
		},
	)
}

func buildToken(t *testing.T, cfg *config.Config, role enums.CallerRole, ministries ...enums.Ministry) string {
	t.Helper()
	volunteerID := uuid.New()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:      uuid.New(),
		VolunteerID: &volunteerID,
		Role:        role,
		Ministries:  ministries,
		JTI:         uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestProtectedGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestRespondLinkSkipsAuth(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/respond?token=anything", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for signed link got %d", resp.Code)
	}
}

func TestSchedulerGroupForbidsVolunteers(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	volunteer := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	volunteer.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CallerRoleVolunteer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, volunteer)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for volunteer got %d", resp.Code)
	}

	leader := httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil)
	leader.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CallerRoleLeader, enums.MinistryWorship))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, leader)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for leader got %d", resp.Code)
	}
}

func TestAlertsReadableByVolunteers(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?ministry=worship", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CallerRoleVolunteer, enums.MinistryWorship))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for granted ministry got %d", resp.Code)
	}

	denied := httptest.NewRequest(http.MethodGet, "/api/v1/alerts?ministry=hospitality", nil)
	denied.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CallerRoleVolunteer, enums.MinistryWorship))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, denied)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for ungranted ministry got %d", resp.Code)
	}
}

func TestUnavailabilityListForAuthenticatedVolunteer(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/volunteers/"+uuid.NewString()+"/unavailability", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.CallerRoleVolunteer))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for unavailability list got %d", resp.Code)
	}
}
