package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/migration"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
	"github.com/pixav/maxwell/internal/repository/mariadb"
	"github.com/pixav/maxwell/internal/usecase/pipeline"
	"github.com/pixav/maxwell/test/testutil"
)

const testMagnet = "magnet:?xt=urn:btih:c9e15763f722f23e98a29decdfae341b98d53056&dn=test"

func TestRegisterVideoIntegration(t *testing.T) {
	testDB, err := testutil.SetupTestDB()
	if err != nil {
		t.Fatalf("setup DB: %v", err)
	}
	defer testDB.Cleanup()
	database := testDB.DB
	if err := migration.MigrateUp(database); err != nil {
		t.Fatalf("could not run migrations: %v", err)
	}

	ctx := context.Background()
	videoRepo := mariadb.NewVideoRepository(database)
	taskRepo := mariadb.NewTaskRepository(database)
	svc := pipeline.NewVideoRegistrar(videoRepo, taskRepo, db.NewUUID, 3)

	in := port.RegisterVideoInput{Title: "Big Buck Bunny", MagnetURI: testMagnet}

	out, err := svc.RegisterVideo(ctx, in)
	if err != nil {
		t.Fatalf("RegisterVideo returned error: %v", err)
	}

	var (
		status model.VideoStatus
		title  string
	)
	row := database.QueryRowContext(ctx,
		"SELECT status, title FROM videos WHERE magnet_uri = ?", testMagnet)
	if err := row.Scan(&status, &title); err != nil {
		t.Fatalf("failed to scan video record: %v", err)
	}
	if status != model.VideoStatusDiscovered {
		t.Errorf("expected status %q, got %q", model.VideoStatusDiscovered, status)
	}
	if title != in.Title {
		t.Errorf("expected title %q, got %q", in.Title, title)
	}

	state, retries, queueName := taskRow(t, database, out.Task.ID)
	if state != model.TaskStatePending {
		t.Errorf("expected task state pending, got %q", state)
	}
	if retries != 0 || queueName != "" {
		t.Errorf("expected fresh task, got retries=%d queue=%q", retries, queueName)
	}

	// a second registration for the same magnet must be refused while the
	// first task is still open
	if _, err := svc.RegisterVideo(ctx, in); !errors.Is(err, pipeline.ErrDuplicateOpenTask) {
		t.Fatalf("expected ErrDuplicateOpenTask, got %v", err)
	}

	// once the open task is terminal the same magnet may run again, on the
	// same video row
	if err := taskRepo.MarkFailed(ctx, out.Task.ID, "cancelled by operator"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	out2, err := svc.RegisterVideo(ctx, in)
	if err != nil {
		t.Fatalf("re-registering after failure returned error: %v", err)
	}
	if out2.Video.ID != out.Video.ID {
		t.Errorf("expected the existing video row to be reused, got %s and %s", out.Video.ID, out2.Video.ID)
	}
	if out2.Task.ID == out.Task.ID {
		t.Error("expected a fresh task for the restarted video")
	}

	videoCount := 0
	if err := database.QueryRow("SELECT COUNT(*) FROM videos").Scan(&videoCount); err != nil {
		t.Fatalf("count videos: %v", err)
	}
	if videoCount != 1 {
		t.Errorf("expected 1 video row, got %d", videoCount)
	}
	taskCount := 0
	if err := database.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&taskCount); err != nil {
		t.Fatalf("count tasks: %v", err)
	}
	if taskCount != 2 {
		t.Errorf("expected 2 task rows, got %d", taskCount)
	}
}
