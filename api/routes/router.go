package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pulseboardhq/pulseboard-backend/api/controllers"
	"github.com/pulseboardhq/pulseboard-backend/api/middleware"
	"github.com/pulseboardhq/pulseboard-backend/internal/analytics"
	"github.com/pulseboardhq/pulseboard-backend/internal/events"
	"github.com/pulseboardhq/pulseboard-backend/pkg/config"
	"github.com/pulseboardhq/pulseboard-backend/pkg/db"
	"github.com/pulseboardhq/pulseboard-backend/pkg/logger"
	"github.com/pulseboardhq/pulseboard-backend/pkg/metrics"
	"github.com/pulseboardhq/pulseboard-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	gatherer prometheus.Gatherer,
	dbP db.Pinger,
	redisClient *redis.Client,
	analyticsService analytics.Service,
	eventsRepo events.Repository,
	computeMetrics *metrics.ComputeMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	// A nil redis client disables throttling and readiness probing for it;
	// the narrowing keeps typed nils out of the interface values.
	var limiter redis.Limiter
	var redisProbe controllers.Pinger
	if redisClient != nil {
		limiter = redisClient
		redisProbe = redisClient
	}

	queryPolicy := middleware.NewRateLimitPolicy("query", cfg.RateLimit, cfg.RateLimit.QueryLimit)
	clusterPolicy := middleware.NewRateLimitPolicy("cluster", cfg.RateLimit, cfg.RateLimit.ClusterLimit)
	ingestPolicy := middleware.NewRateLimitPolicy("ingest", cfg.RateLimit, cfg.RateLimit.IngestLimit)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisProbe))
	})

	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/events", func(r chi.Router) {
			r.With(middleware.RateLimit(ingestPolicy, limiter, logg)).
				Post("/", controllers.IngestEvents(eventsRepo, computeMetrics, cfg.Ingest.MaxBatchSize, logg))
			r.With(middleware.RateLimit(queryPolicy, limiter, logg)).
				Get("/", controllers.ListEvents(eventsRepo, logg))
		})

		r.Route("/analytics", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(queryPolicy, limiter, logg))
				r.Get("/summary", controllers.AnalyticsSummary(analyticsService, logg))
				r.Get("/engagement", controllers.AnalyticsEngagement(analyticsService, logg))
				r.Get("/funnel", controllers.AnalyticsFunnel(analyticsService, logg))
				r.Get("/cohorts", controllers.AnalyticsCohorts(analyticsService, logg))
				r.Get("/experiment", controllers.AnalyticsExperiment(analyticsService, logg))
				r.Get("/channels", controllers.AnalyticsChannels(analyticsService, logg))
			})

			// Segmentation re-clusters on every call; it gets its own,
			// tighter window instead of the shared query budget.
			r.With(middleware.RateLimit(clusterPolicy, limiter, logg)).
				Get("/segments", controllers.AnalyticsSegments(analyticsService, logg))
		})
	})

	return r
}
