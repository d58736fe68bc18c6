package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/gracepointe/serveteam-backend/api/controllers"
	"github.com/gracepointe/serveteam-backend/api/middleware"
	"github.com/gracepointe/serveteam-backend/internal/alerts"
	"github.com/gracepointe/serveteam-backend/internal/availability"
	"github.com/gracepointe/serveteam-backend/internal/dispatch"
	"github.com/gracepointe/serveteam-backend/internal/matching"
	"github.com/gracepointe/serveteam-backend/internal/presence"
	"github.com/gracepointe/serveteam-backend/internal/roster"
	"github.com/gracepointe/serveteam-backend/internal/rsvp"
	"github.com/gracepointe/serveteam-backend/pkg/config"
	"github.com/gracepointe/serveteam-backend/pkg/db"
	"github.com/gracepointe/serveteam-backend/pkg/logger"
	"github.com/gracepointe/serveteam-backend/pkg/redis"
)

// Services bundles the domain services the router exposes.
type Services struct {
	Availability availability.Service
	Roster       roster.Service
	Matching     matching.Service
	Dispatch     dispatch.Service
	RSVP         rsvp.Service
	Presence     presence.Service
	Alerts       alerts.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	svcs Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	// Signed response links from invitation emails. The token is the whole
	// credential, so the route stays outside the auth stack.
	r.Get("/api/v1/respond", controllers.RespondByLink(svcs.RSVP, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/volunteers/{volunteerID}/unavailability", func(r chi.Router) {
			r.Post("/", controllers.AddUnavailability(svcs.Availability, logg))
			r.Get("/", controllers.ListUnavailability(svcs.Availability, logg))
			r.Delete("/{windowID}", controllers.RemoveUnavailability(svcs.Availability, logg))
		})

		r.Post("/assignments/{assignmentID}/respond", controllers.RespondInApp(svcs.RSVP, logg))

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", controllers.ListAlerts(svcs.Alerts, logg))
			r.Post("/{alertID}/read", controllers.MarkAlertRead(svcs.Alerts, logg))
			r.Post("/read-all", controllers.MarkAllAlertsRead(svcs.Alerts, logg))
		})

		// Scheduling writes are leader work. Volunteers only read and respond.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireScheduler(logg))

			r.Route("/plans", func(r chi.Router) {
				r.Post("/", controllers.CreatePlan(svcs.Roster, logg))
				r.Get("/", controllers.ListPlans(svcs.Roster, logg))
				r.Get("/{planID}", controllers.GetPlan(svcs.Roster, logg))
				r.Post("/{planID}/slots", controllers.CreateSlot(svcs.Roster, logg))
			})

			r.Route("/slots/{slotID}", func(r chi.Router) {
				r.Get("/candidates", controllers.SlotCandidates(svcs.Roster, svcs.Matching, logg))
				r.Post("/assignments", controllers.InviteVolunteer(svcs.Roster, svcs.Dispatch, logg))
			})

			r.Delete("/assignments/{assignmentID}", controllers.CancelAssignment(svcs.Roster, logg))
			r.Post("/assignments/{assignmentID}/presence", controllers.RecordPresence(svcs.Presence, logg))

			r.Post("/dispatch/run", controllers.RunDispatch(svcs.Dispatch, logg))
		})
	})

	return r
}
