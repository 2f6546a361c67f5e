package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/marcalaing/gpt-rank-sub000/internal/alerts"
	"github.com/marcalaing/gpt-rank-sub000/internal/audit"
	"github.com/marcalaing/gpt-rank-sub000/internal/brands"
	"github.com/marcalaing/gpt-rank-sub000/internal/extraction"
	"github.com/marcalaing/gpt-rank-sub000/internal/jobs"
	"github.com/marcalaing/gpt-rank-sub000/internal/orgs"
	"github.com/marcalaing/gpt-rank-sub000/internal/projects"
	"github.com/marcalaing/gpt-rank-sub000/internal/prompts"
	"github.com/marcalaing/gpt-rank-sub000/internal/provider"
	"github.com/marcalaing/gpt-rank-sub000/internal/provider/anthropic"
	"github.com/marcalaing/gpt-rank-sub000/internal/provider/openai"
	"github.com/marcalaing/gpt-rank-sub000/internal/runs"
	"github.com/marcalaing/gpt-rank-sub000/internal/scoring"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/config"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/server"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/storage/db"
	"github.com/marcalaing/gpt-rank-sub000/internal/shared/storage/object"
	localstore "github.com/marcalaing/gpt-rank-sub000/internal/shared/storage/object/local"
	s3store "github.com/marcalaing/gpt-rank-sub000/internal/shared/storage/object/s3"
	"github.com/marcalaing/gpt-rank-sub000/internal/tiers"
	"github.com/marcalaing/gpt-rank-sub000/internal/usage"
)

// App holds shared dependencies for the API server and the scheduler daemon.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.Store
	Tiers  *tiers.Registry

	OrgsRepo        orgs.Repo
	ProjectsRepo    projects.Repo
	BrandsRepo      brands.Repo
	CompetitorsRepo brands.CompetitorsRepo
	PromptsRepo     prompts.Repo
	RunsRepo        runs.Repo
	CitationsRepo   runs.CitationsRepo
	ScoresRepo      scoring.Repo
	RulesRepo       alerts.RulesRepo
	EventsRepo      alerts.EventsRepo
	AuditRepo       audit.Repo
	JobsRepo        jobs.Repo

	UsageService    *usage.Service
	OrgsService     *orgs.Service
	ProjectsService *projects.Service
	BrandsService   *brands.Service
	PromptsService  *prompts.Service
	AlertsService   *alerts.Service
	AuditService    *audit.Service

	Providers *provider.Registry
	Extractor *extraction.Engine
	Runner    *runs.Runner
	Evaluator *alerts.Evaluator
	Scheduler *jobs.Scheduler

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

// Build prepares the full application for the API server, router included.
func Build(cfg config.Config) (*App, error) {
	app, err := build(cfg, db.DefaultServerOptions())
	if err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:          app.Config,
		OrgsHandler:     app.OrgsHandler,
		ProjectsHandler: app.ProjectsHandler,
		BrandsHandler:   app.BrandsHandler,
		PromptsHandler:  app.PromptsHandler,
		RunsHandler:     app.RunsHandler,
		ScoresHandler:   app.ScoresHandler,
		UsageHandler:    app.UsageHandler,
		AlertsHandler:   app.AlertsHandler,
		AuditHandler:    app.AuditHandler,
		JobsHandler:     app.JobsHandler,
	})

	return app, nil
}

// BuildScheduler prepares dependencies for the scheduler daemon. The daemon
// only ticks the job queue, so it gets a smaller connection pool and no
// router.
func BuildScheduler(cfg config.Config) (*App, error) {
	return build(cfg, db.DefaultSchedulerOptions())
}

func build(cfg config.Config, dbDefaults db.Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, dbDefaults)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	registry := tiers.NewRegistry()
	if strings.TrimSpace(cfg.TiersPath) != "" {
		if err := registry.Load(cfg.TiersPath); err != nil {
			return nil, fmt.Errorf("load tier limits: %w", err)
		}
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Tiers:  registry,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config, defaults db.Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(defaults))
	if err != nil {
		if isDevLike(cfg.Env) {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.Store, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		// The runner prefixes archive keys itself, so the store mounts at
		// the bucket root.
		return s3store.New(ctx, cfg.AWSRegion, cfg.ArchiveBucket, "")
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildProviders(cfg config.Config) (*provider.Registry, error) {
	registry := provider.NewRegistry()

	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.ProviderTimeout)
		if err != nil {
			return nil, fmt.Errorf("openai adapter: %w", err)
		}
		registry.Register(client)
	}

	if strings.TrimSpace(cfg.AnthropicAPIKey) != "" {
		client, err := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicBaseURL, cfg.AnthropicModel, cfg.ProviderTimeout)
		if err != nil {
			return nil, fmt.Errorf("anthropic adapter: %w", err)
		}
		registry.Register(client)
	}

	if len(registry.Names()) == 0 {
		if !isDevLike(cfg.Env) {
			return nil, fmt.Errorf("no provider credentials configured")
		}
		log.Printf("bootstrap: no provider credentials; registering placeholder adapters")
		registry.Register(provider.Placeholder{ProviderName: "openai"})
		registry.Register(provider.Placeholder{ProviderName: "anthropic"})
	}

	return registry, nil
}

func buildExtractor(cfg config.Config) *extraction.Engine {
	var primary extraction.Strategy
	if strings.TrimSpace(cfg.OpenAIAPIKey) != "" {
		primary = extraction.NewLLM(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.ExtractionModel, cfg.ExtractionTimeout)
	}
	return extraction.NewEngine(primary, extraction.Lexical{})
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	cfg := app.Config

	if app.DB != nil {
		app.OrgsRepo = &orgs.PGRepo{DB: app.DB}
		app.ProjectsRepo = &projects.PGRepo{DB: app.DB}
		app.BrandsRepo = &brands.PGRepo{DB: app.DB}
		app.CompetitorsRepo = &brands.PGCompetitorsRepo{DB: app.DB}
		app.PromptsRepo = &prompts.PGRepo{DB: app.DB}
		app.RunsRepo = &runs.PGRepo{DB: app.DB}
		app.CitationsRepo = &runs.PGCitationsRepo{DB: app.DB}
		app.ScoresRepo = &scoring.PGRepo{DB: app.DB}
		app.RulesRepo = &alerts.PGRulesRepo{DB: app.DB}
		app.EventsRepo = &alerts.PGEventsRepo{DB: app.DB}
		app.AuditRepo = &audit.PGRepo{DB: app.DB}
		app.JobsRepo = &jobs.PGRepo{DB: app.DB}
		app.UsageService = usage.NewPostgresService(usage.NewPGStore(app.DB))
	} else {
		app.OrgsRepo = orgs.NewMemoryRepo()
		app.ProjectsRepo = projects.NewMemoryRepo()
		app.BrandsRepo = brands.NewMemoryRepo()
		app.CompetitorsRepo = brands.NewMemoryCompetitorsRepo()
		app.PromptsRepo = prompts.NewMemoryRepo()
		app.RunsRepo = runs.NewMemoryRepo()
		app.CitationsRepo = runs.NewMemoryCitationsRepo()
		app.ScoresRepo = scoring.NewMemoryRepo()
		app.RulesRepo = alerts.NewMemoryRulesRepo()
		app.EventsRepo = alerts.NewMemoryEventsRepo()
		app.AuditRepo = audit.NewMemoryRepo()
		app.JobsRepo = jobs.NewMemoryRepo()
		app.UsageService = usage.NewService()
	}

	providers, err := buildProviders(cfg)
	if err != nil {
		return err
	}
	app.Providers = providers
	app.Extractor = buildExtractor(cfg)

	app.OrgsService = &orgs.Service{Repo: app.OrgsRepo, Tiers: app.Tiers}
	app.ProjectsService = &projects.Service{Repo: app.ProjectsRepo, Orgs: app.OrgsRepo, Tiers: app.Tiers}
	app.BrandsService = &brands.Service{Repo: app.BrandsRepo, Competitors: app.CompetitorsRepo, Projects: app.ProjectsRepo}
	app.PromptsService = &prompts.Service{Repo: app.PromptsRepo, Projects: app.ProjectsRepo, Orgs: app.OrgsRepo, Tiers: app.Tiers}
	app.AlertsService = &alerts.Service{Rules: app.RulesRepo, Events: app.EventsRepo, Projects: app.ProjectsRepo}
	app.AuditService = &audit.Service{Repo: app.AuditRepo}

	app.Runner = &runs.Runner{
		Prompts:       app.PromptsRepo,
		Projects:      app.ProjectsRepo,
		Orgs:          app.OrgsRepo,
		Brands:        app.BrandsRepo,
		Competitors:   app.CompetitorsRepo,
		Repo:          app.RunsRepo,
		Citations:     app.CitationsRepo,
		Scores:        app.ScoresRepo,
		Usage:         app.UsageService,
		Tiers:         app.Tiers,
		Providers:     providers,
		Extractor:     app.Extractor,
		Archive:       app.Store,
		ArchivePrefix: cfg.ArchivePrefix,
		Locale:        cfg.DefaultLocale,
	}

	app.Evaluator = &alerts.Evaluator{
		Rules:  app.RulesRepo,
		Events: app.EventsRepo,
		Runs:   app.RunsRepo,
	}

	app.Scheduler = &jobs.Scheduler{
		Config: jobs.Config{
			BatchSize:         cfg.SchedulerBatchSize,
			ProjectMaxRunning: cfg.SchedulerProjectMax,
			OrgMaxRunning:     cfg.SchedulerOrgMax,
			MaxAttempts:       cfg.SchedulerMaxAttempts,
			BackoffBase:       cfg.SchedulerBackoffBase,
		},
		Jobs:            app.JobsRepo,
		Prompts:         app.PromptsRepo,
		Projects:        app.ProjectsService,
		Runner:          app.Runner,
		Audit:           app.AuditService,
		Alerts:          app.Evaluator,
		DefaultProvider: cfg.DefaultProvider,
	}

	app.OrgsHandler = orgs.NewHandler(app.OrgsService)
	app.ProjectsHandler = projects.NewHandler(app.ProjectsService)
	app.BrandsHandler = brands.NewHandler(app.BrandsService)
	app.PromptsHandler = prompts.NewHandler(app.PromptsService)
	app.RunsHandler = &runs.Handler{
		Runner:          app.Runner,
		Repo:            app.RunsRepo,
		Citations:       app.CitationsRepo,
		Prompts:         app.PromptsRepo,
		Projects:        app.ProjectsService,
		Audit:           app.AuditService,
		Alerts:          app.Evaluator,
		DefaultProvider: cfg.DefaultProvider,
	}
	app.ScoresHandler = scoring.NewHandler(app.ScoresRepo)
	app.UsageHandler = usage.NewHandler(app.UsageService, app.OrgsRepo, app.Tiers)
	app.AlertsHandler = alerts.NewHandler(app.AlertsService)
	app.AuditHandler = audit.NewHandler(app.AuditService)
	app.JobsHandler = &jobs.Handler{Scheduler: app.Scheduler, Repo: app.JobsRepo}

	return nil
}
