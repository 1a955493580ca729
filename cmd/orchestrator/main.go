package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pixav/maxwell/internal/config"
	"github.com/pixav/maxwell/internal/control"
	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/model"
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
	defer func() {
		if err := database.Close(); err != nil {
			logger.Warnf(ctx, "DB close error: %v", err)
		}
	}()

	queues := map[string]string{
		pipelineSvc.StageDownload: cfg.DownloadQueue,
		pipelineSvc.StageUpload:   cfg.UploadQueue,
		pipelineSvc.StageVerify:   cfg.VerifyQueue,
	}

	notifier := task.NewNotifier(cfg.RedisAddr, cfg.RedisPassword, task.QueueNames{
		Download: cfg.DownloadQueue,
		Upload:   cfg.UploadQueue,
		Verify:   cfg.VerifyQueue,
	}, cfg.PublishTimeout)
	defer func() {
		if err := notifier.Close(); err != nil {
			logger.Warnf(ctx, "notifier close error: %v", err)
		}
	}()

	inspector := task.NewInspector(cfg.RedisAddr, cfg.RedisPassword)
	ctrl := control.NewControl(cfg.RedisAddr, cfg.RedisPassword)

	taskRepo := mariadb.NewTaskRepository(database.DB)
	videoRepo := mariadb.NewVideoRepository(database.DB)
	accountRepo := mariadb.NewAccountRepository(database.DB)

	leaser := pipelineSvc.NewAccountLeaser(accountRepo, pipelineSvc.LeaseOptions{TTL: cfg.LeaseTTL})
	admitter := pipelineSvc.NewAdmissionController(taskRepo, inspector, pipelineSvc.AdmissionOptions{
		MaxQueueDepth:      cfg.MaxQueueDepth,
		WarnQueueDepth:     cfg.WarnQueueDepth,
		MaxInFlightUploads: cfg.MaxInFlightUploads,
		Queues:             queues,
	})
	dispatcher := pipelineSvc.NewDispatcher(taskRepo, leaser, notifier, admitter, pipelineSvc.DispatchOptions{
		BatchSize: cfg.DispatchBatchSize,
		Queues:    queues,
	})
	reaper := pipelineSvc.NewReaper(taskRepo, accountRepo, videoRepo, pipelineSvc.ReapOptions{
		StageTimeouts: map[model.TaskState]time.Duration{
			model.TaskStateDownloading: cfg.DownloadingTimeout,
			model.TaskStateRemuxing:    cfg.RemuxingTimeout,
			model.TaskStateUploading:   cfg.UploadingTimeout,
			model.TaskStateVerifying:   cfg.VerifyingTimeout,
		},
		VideoRetention: cfg.VideoRetention,
	})

	runner := pipelineSvc.NewRunner(dispatcher, reaper, ctrl, pipelineSvc.RunnerOptions{
		DispatchInterval: cfg.DispatchInterval,
		ReapInterval:     cfg.ReapInterval,
	})

	runOrchestrator(ctx, runner)
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

func runOrchestrator(ctx context.Context, runner *pipelineSvc.Runner) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// cancel the loop on SIGINT/SIGTERM
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info(ctx, "🛑 Shutdown signal received, exiting…")
		cancel()
	}()

	logger.Info(ctx, "🚀 Orchestrator started")
	if err := runner.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf(ctx, "❌  Orchestrator failed: %v", err)
		os.Exit(1)
	}
	logger.Info(ctx, "✅  Orchestrator gracefully stopped")
}
