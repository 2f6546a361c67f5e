package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/alerts"
	"github.com/marcalaing/gpt-rank-sub000/internal/audit"
	"github.com/marcalaing/gpt-rank-sub000/internal/brands"
	"github.com/marcalaing/gpt-rank-sub000/internal/jobs"
	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/prompts"
	"github.com/marcalaing/gpt-rank-sub000/internal/runs"
	"github.com/marcalaing/gpt-rank-sub000/internal/scoring"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/config"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/metrics"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/middleware"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server/respond"
	"github.com/marcalaing/gpt-rank-sub000/internal/usage"
)

const rateGroupRunExecute = "RUN_EXECUTE"

// RouterDeps carries the handlers the router mounts. Bootstrap builds the
// dependency graph; the router only wires middleware and routes.
type RouterDeps struct {
	Config          config.Config
	OrgsHandler     *orgs.Handler
	ProjectsHandler *projects.Handler
	BrandsHandler   *brands.Handler
	PromptsHandler  *prompts.Handler
	RunsHandler     *runs.Handler
	ScoresHandler   *scoring.Handler
	UsageHandler    *usage.Handler
	AlertsHandler   *alerts.Handler
	AuditHandler    *audit.Handler
	JobsHandler     *jobs.Handler
}

// NewRouter constructs the Gin engine with middleware and routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	r.Use(
		middleware.RequestID(),
		middleware.Logging(),
		middleware.Recovery(),
		middleware.CORS(cfg.CORSAllowOrigin),
	)

	// Liveness and metrics stay outside API-key auth so probes and
	// scrapers need no credentials.
	r.GET("/healthz", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api/v1")
	api.Use(
		middleware.Auth(cfg.APIKey, cfg.Env),
		middleware.RateLimit(middleware.RateLimitConfig{
			Rules: map[string]middleware.RateLimitRule{
				// On-demand runs call out to paid providers; everything
				// else is unthrottled.
				rateGroupRunExecute: {Rate: 0.5, Burst: 3},
			},
			GroupFor: rateLimitGroup,
		}),
	)

	api.GET("/health", func(c *gin.Context) {
		respond.JSON(c, http.StatusOK, gin.H{"ok": true})
	})
	deps.OrgsHandler.RegisterRoutes(api)
	deps.ProjectsHandler.RegisterRoutes(api)
	deps.BrandsHandler.RegisterRoutes(api)
	deps.PromptsHandler.RegisterRoutes(api)
	deps.RunsHandler.RegisterRoutes(api)
	deps.ScoresHandler.RegisterRoutes(api)
	deps.UsageHandler.RegisterRoutes(api)
	deps.AlertsHandler.RegisterRoutes(api)
	deps.AuditHandler.RegisterRoutes(api)
	deps.JobsHandler.RegisterRoutes(api)

	cron := r.Group("/api/cron")
	cron.Use(middleware.CronAuth(cfg.CronSecret, cfg.Env))
	deps.JobsHandler.RegisterCron(cron)

	return r
}

func rateLimitGroup(c *gin.Context) string {
	if c.Request.Method == http.MethodPost && strings.HasSuffix(c.FullPath(), "/run") {
		return rateGroupRunExecute
	}
	return ""
}

// Addr normalizes the listen address.
func Addr(port string) string {
	if port == "" {
		return ":8080"
	}
	if port[0] == ':' {
		return port
	}
	return ":" + port
}
