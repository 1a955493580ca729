package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pixav/maxwell/internal/config"
	"github.com/pixav/maxwell/internal/control"
	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/handler/api"
	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/repository/mariadb"
	"github.com/pixav/maxwell/internal/task"
	pipelineSvc "github.com/pixav/maxwell/internal/usecase/pipeline"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		logger.Errorf(ctx, "❌  Configuration error: %v", err)
		os.Exit(1)
	}

	logger.Init()

	database := initDb(ctx, cfg)

	r := initRouter(ctx)

	ctrl := control.NewControl(cfg.RedisAddr, cfg.RedisPassword)
	inspector := task.NewInspector(cfg.RedisAddr, cfg.RedisPassword)

	taskRepo := mariadb.NewTaskRepository(database.DB)
	videoRepo := mariadb.NewVideoRepository(database.DB)
	accountRepo := mariadb.NewAccountRepository(database.DB)
	instanceRepo := mariadb.NewStorageInstanceRepository(database.DB)

	queues := map[string]string{
		pipelineSvc.StageDownload: cfg.DownloadQueue,
		pipelineSvc.StageUpload:   cfg.UploadQueue,
		pipelineSvc.StageVerify:   cfg.VerifyQueue,
	}

	registerVideoSvc := pipelineSvc.NewVideoRegistrar(videoRepo, taskRepo, db.NewUUID, cfg.DefaultMaxRetries)
	registerAccountSvc := pipelineSvc.NewAccountRegistrar(accountRepo, instanceRepo, db.NewUUID)
	cancelTaskSvc := pipelineSvc.NewTaskCanceller(taskRepo)
	statusSvc := pipelineSvc.NewStatusReporter(taskRepo, accountRepo, inspector, ctrl, ctrl, pipelineSvc.StatusOptions{
		CacheTTL:      cfg.StatusCacheTTL,
		Queues:        queues,
		MaxQueueDepth: cfg.MaxQueueDepth,
	})

	// load balancer probes hit this without a token
	r.Get("/healthz", api.HealthzHandler())

	r.Group(func(r chi.Router) {
		r.Use(api.WithJWTAuth(cfg.JWTSecret))

		r.Post("/videos", api.RegisterVideoHandler(registerVideoSvc))
		r.With(api.WithID()).
			Get("/videos/{id}", api.GetVideoHandler(videoRepo))

		r.With(api.WithID()).
			Get("/tasks/{id}", api.GetTaskHandler(taskRepo))
		r.With(api.WithID()).
			Delete("/tasks/{id}", api.CancelTaskHandler(cancelTaskSvc))

		r.Post("/accounts", api.RegisterAccountHandler(registerAccountSvc))
		r.Get("/accounts", api.ListAccountsHandler(registerAccountSvc))

		r.Get("/status", api.StatusHandler(statusSvc))
		r.Post("/pause", api.PauseHandler(ctrl))
		r.Delete("/pause", api.ResumeHandler(ctrl))
	})

	listenRouter(ctx, r, cfg, database)
}

func initDb(ctx context.Context, cfg *config.Settings) *db.Database {
	logger.Info(ctx, "initialising database...")

	database, err := db.New(db.MariaDbConfig{
		DSN:             cfg.MariaDBDSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		logger.Errorf(ctx, "❌  Failed to connect to db: %v", err)
		os.Exit(1)
	}

	return database
}

func initRouter(ctx context.Context) *chi.Mux {
	logger.Info(ctx, "initialising router...")

	r := chi.NewRouter()

	r.Use(middleware.Logger)

	r.NotFound(api.NotFoundHandler())
	r.MethodNotAllowed(api.MethodNotAllowedHandler())

	return r
}

func listenRouter(ctx context.Context, r *chi.Mux, cfg *config.Settings, database *db.Database) {
	srv := &http.Server{Addr: ":" + strconv.Itoa(cfg.ServerPort), Handler: r}

	// start serving
	go func() {
		logger.Infof(ctx, "🚀 API listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf(ctx, "❌  Listen error: %v", err)
			os.Exit(1)
		}
	}()

	// block until we get SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "🛑 Shutdown signal received, exiting…")

	// graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf(ctx, "❌  Server shutdown failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Server gracefully stopped")

	if err := database.Close(); err != nil {
		logger.Errorf(ctx, "DB close error: %v", err)
		os.Exit(1)
	}
}
