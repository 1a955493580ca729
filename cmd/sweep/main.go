package main

import (
	"context"
	"log"
	"time"

	"github.com/pixav/maxwell/internal/config"
	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/repository/mariadb"
	pipelineSvc "github.com/pixav/maxwell/internal/usecase/pipeline"
)

// One-shot reap sweep for cron setups and for kicking a stuck deployment by
// hand. The periodic sweep inside the orchestrator does the same work.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌  Configuration error: %v", err)
	}

	database := initDb(cfg)
	defer func() {
		if err := database.Close(); err != nil {
			log.Printf("DB close error: %v", err)
		}
	}()

	taskRepo := mariadb.NewTaskRepository(database.DB)
	videoRepo := mariadb.NewVideoRepository(database.DB)
	accountRepo := mariadb.NewAccountRepository(database.DB)

	reaper := pipelineSvc.NewReaper(taskRepo, accountRepo, videoRepo, pipelineSvc.ReapOptions{
		StageTimeouts: map[model.TaskState]time.Duration{
			model.TaskStateDownloading: cfg.DownloadingTimeout,
			model.TaskStateRemuxing:    cfg.RemuxingTimeout,
			model.TaskStateUploading:   cfg.UploadingTimeout,
			model.TaskStateVerifying:   cfg.VerifyingTimeout,
		},
		VideoRetention: cfg.VideoRetention,
	})

	stats, err := reaper.Sweep(context.Background())
	if err != nil {
		log.Fatalf("❌  Sweep failed: %v", err)
	}
	log.Printf("✅  Sweep completed: %d requeued, %d failed, %d leases reclaimed, %d cooldowns lifted, %d videos expired",
		stats.Requeued, stats.Failed, stats.OrphanLeases, stats.CooldownsReleased, stats.VideosExpired)
}

func initDb(cfg *config.Settings) *db.Database {
	log.Println("initialising database...")
	dbCfg := db.MariaDbConfig{
		DSN:             cfg.MariaDBDSN,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	}
	database, err := db.New(dbCfg)
	if err != nil {
		log.Fatalf("❌  Failed to connect to db: %v", err)
	}
	return database
}
