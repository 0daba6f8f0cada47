package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-tailor/internal/analyses"
	"resume-tailor/internal/generatedresumes"
	"resume-tailor/internal/jobdesc"
	"resume-tailor/internal/llm"
	"resume-tailor/internal/llm/gemini"
	"resume-tailor/internal/services/health"
	"resume-tailor/internal/shared/config"
	"resume-tailor/internal/shared/server"
	"resume-tailor/internal/shared/server/middleware"
	"resume-tailor/internal/shared/storage/db"
	"resume-tailor/internal/shared/storage/object"
	localstore "resume-tailor/internal/shared/storage/object/local"
	s3store "resume-tailor/internal/shared/storage/object/s3"
	"resume-tailor/internal/shared/telemetry"
)

// App holds shared dependencies.
type App struct {
	Config                  config.Config
	Router                  *gin.Engine
	DB                      *sql.DB
	Store                   object.ObjectStore
	LLM                     llm.Client
	JobFetcher              *jobdesc.Fetcher
	AnalysisRuns            analyses.RunRepo
	GeneratedResumesRepo    generatedresumes.Repo
	AnalysesService         *analyses.Service
	GeneratedResumesService *generatedresumes.Service
	AnalysisHandler         *analyses.Handler
	GeneratedResumeHandler  *generatedresumes.Handler
	Health                  *health.Service
}

// Build prepares shared dependencies and wires the router.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}

	app := &App{
		Config:     cfg,
		DB:         sqlDB,
		Store:      store,
		LLM:        BuildLLM(cfg),
		JobFetcher: jobdesc.NewFetcher(jobdesc.Options{}),
	}
	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config:                 app.Config,
		Health:                 app.Health,
		AnalysisHandler:        app.AnalysisHandler,
		GeneratedResumeHandler: app.GeneratedResumeHandler,
		RateLimiter:            middleware.NewRateLimiter(nil),
	})
	return app, nil
}

// Close releases the database pool.
func (a *App) Close() error {
	if a == nil || a.DB == nil {
		return nil
	}
	return a.DB.Close()
}

// BuildLLM selects the Gemini transport. The API key is passed in here and read
// nowhere else.
func BuildLLM(cfg config.Config) llm.Client {
	opts := gemini.Options{
		APIKey:  cfg.GeminiAPIKey,
		Model:   cfg.LLMModel,
		BaseURL: cfg.LLMBaseURL,
		Timeout: cfg.LLMTimeout,
	}
	if cfg.LLMTransport == "sdk" {
		return gemini.NewSDKClient(opts)
	}
	return gemini.NewClient(opts)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Info("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(db.DefaultServerOptions()))
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "database connect failed", "error": err.Error()})
			return nil, nil
		}
		return nil, err
	}

	if isDevLike(cfg.Env) {
		if err := db.RunMigrations(ctx, sqlDB); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildServices(app *App) {
	var runs analyses.RunRepo
	var generatedRepo generatedresumes.Repo
	if app.DB != nil {
		runs = &analyses.PGRepo{DB: app.DB}
		generatedRepo = &generatedresumes.PGRepo{DB: app.DB}
	} else {
		runs = analyses.NewMemoryRepo()
		generatedRepo = generatedresumes.NewMemoryRepo()
	}

	app.AnalysisRuns = runs
	app.GeneratedResumesRepo = generatedRepo
	app.AnalysesService = analyses.NewService(app.LLM, runs, app.Config.LLMModel)
	app.GeneratedResumesService = &generatedresumes.Service{Repo: generatedRepo, Store: app.Store}
	app.AnalysisHandler = analyses.NewHandler(app.AnalysesService, app.JobFetcher.Fetch)
	app.GeneratedResumeHandler = generatedresumes.NewHandler(app.GeneratedResumesService)
	app.Health = health.NewService(app.DB, app.Config.ObjectStoreType, app.Config.LLMTransport, app.Config.GeminiAPIKey != "")
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}
