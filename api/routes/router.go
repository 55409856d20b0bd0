package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/songqueue-backend/api/controllers"
	"github.com/angelmondragon/songqueue-backend/api/middleware"
	"github.com/angelmondragon/songqueue-backend/internal/auth"
	"github.com/angelmondragon/songqueue-backend/internal/queue"
	"github.com/angelmondragon/songqueue-backend/pkg/auth/session"
	"github.com/angelmondragon/songqueue-backend/pkg/config"
	"github.com/angelmondragon/songqueue-backend/pkg/logger"
	"github.com/angelmondragon/songqueue-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	storePinger controllers.Pinger,
	redisClient *redis.Client,
	sessionManager session.AccessSessionChecker,
	authService auth.Service,
	queueService queue.Service,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	// a nil *redis.Client must not reach the middleware as a non-nil interface
	var (
		rateStore middleware.RateLimiterStore
		idemStore redis.IdempotencyStore
	)
	checks := map[string]controllers.Pinger{}
	if storePinger != nil {
		checks["store"] = storePinger
	}
	if redisClient != nil {
		rateStore = redisClient
		idemStore = redisClient
		checks["redis"] = redisClient
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, checks, logg))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/requests", controllers.SubmitSongRequest(queueService, logg))
		r.Get("/queue", controllers.ListPublicQueue(queueService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, rateStore, logg)).Post("/login", controllers.AdminAuthLogin(authService, cfg, logg))
			r.With(middleware.RequireOperator(logg)).Post("/logout", controllers.AdminAuthLogout(authService, cfg, logg))
		})

		r.Route("/requests", func(r chi.Router) {
			r.Use(middleware.RequireOperator(logg))

			r.Get("/", controllers.AdminListRequests(queueService, logg))
			r.Get("/{requestId}", controllers.AdminGetRequest(queueService, logg))

			// grouped so idempotency sees the fully resolved route pattern
			r.Group(func(r chi.Router) {
				r.Use(middleware.Idempotency(idemStore, logg))
				r.Put("/order", controllers.AdminReorderRequests(queueService, logg))
				r.Post("/clear-played", controllers.AdminClearPlayedRequests(queueService, logg))
				r.Post("/{requestId}/played", controllers.AdminMarkRequestPlayed(queueService, logg))
			})
		})
	})

	return r
}
