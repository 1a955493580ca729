package mariadb

import (
	"context"
	"database/sql"
	"log"
	"strings"

	"github.com/pixav/maxwell/internal/db"
	"github.com/pixav/maxwell/internal/model"
	"github.com/pixav/maxwell/internal/port"
	"github.com/pixav/maxwell/internal/usecase/pipeline"
)

type TaskRepository struct {
	db *sql.DB
}

// compile-time check: *TaskRepository must satisfy port.TaskRepository
var _ port.TaskRepository = (*TaskRepository)(nil)

func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	log.Printf("creating database record for task #%s on video #%s...", task.ID, task.VideoID)

	const query = `
      INSERT INTO tasks
        (id, video_id, account_id, state, queue_name, retries, max_retries)
      VALUES (?, ?, ?, ?, ?, ?, ?)
    `
	_, err := r.db.ExecContext(ctx, query,
		task.ID, task.VideoID, task.AccountID,
		task.State, task.QueueName, task.Retries, task.MaxRetries,
	)
	if err != nil {
		return err
	}

	return nil
}

func (r *TaskRepository) GetByID(ctx context.Context, id db.UUID) (*model.Task, error) {
	const query = `
      SELECT id, video_id, account_id, state, queue_name, retries, max_retries, error_message, created_at, updated_at
      FROM tasks
      WHERE id = ?
    `
	row := r.db.QueryRowContext(ctx, query, id)

	var (
		task      model.Task
		accountID db.NullUUID
		errMsg    sql.NullString
	)
	if err := row.Scan(
		&task.ID, &task.VideoID, &accountID, &task.State, &task.QueueName,
		&task.Retries, &task.MaxRetries, &errMsg,
		&task.CreatedAt, &task.UpdatedAt,
	); err != nil {
		return nil, err
	}
	task.AccountID = nullUUIDPtr(accountID)
	task.ErrorMessage = nullStringPtr(errMsg)
	return &task, nil
}

func (r *TaskRepository) HasOpenTask(ctx context.Context, videoID db.UUID) (bool, error) {
	const query = `
      SELECT EXISTS (
        SELECT 1 FROM tasks
        WHERE video_id = ? AND state NOT IN ('complete', 'failed')
      )
    `
	var exists bool
	if err := r.db.QueryRowContext(ctx, query, videoID).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *TaskRepository) CountByState(ctx context.Context, state model.TaskState) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE state = ?`
	var n int
	if err := r.db.QueryRowContext(ctx, query, state).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *TaskRepository) CountsByState(ctx context.Context) (map[model.TaskState]int, error) {
	const query = `SELECT state, COUNT(*) FROM tasks GROUP BY state`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.TaskState]int)
	for rows.Next() {
		var (
			state model.TaskState
			n     int
		)
		if err := rows.Scan(&state, &n); err != nil {
			return nil, err
		}
		counts[state] = n
	}
	return counts, rows.Err()
}

func (r *TaskRepository) ClaimPendingBatch(ctx context.Context, queueName string, limit int) ([]port.DownloadDispatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// SKIP LOCKED keeps concurrent dispatcher instances off each other's
	// rows; everyone claims a disjoint batch.
	const selectQuery = `
      SELECT t.id, t.video_id, COALESCE(v.magnet_uri, ''), t.retries, t.max_retries
      FROM tasks t
      JOIN videos v ON v.id = t.video_id
      WHERE t.state = 'pending'
      ORDER BY t.created_at ASC
      LIMIT ?
      FOR UPDATE SKIP LOCKED
    `
	rows, err := tx.QueryContext(ctx, selectQuery, limit)
	if err != nil {
		return nil, err
	}

	var batch []port.DownloadDispatch
	for rows.Next() {
		var d port.DownloadDispatch
		if err := rows.Scan(&d.TaskID, &d.VideoID, &d.MagnetURI, &d.Retries, &d.MaxRetries); err != nil {
			_ = rows.Close()
			return nil, err
		}
		batch = append(batch, d)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(batch) == 0 {
		return nil, nil
	}

	taskArgs := make([]any, 0, len(batch)+1)
	taskArgs = append(taskArgs, queueName)
	videoArgs := make([]any, 0, len(batch))
	for _, d := range batch {
		taskArgs = append(taskArgs, d.TaskID)
		videoArgs = append(videoArgs, d.VideoID)
	}

	updateTasks := `
      UPDATE tasks
      SET state = 'downloading', queue_name = ?
      WHERE id IN (` + placeholders(len(batch)) + `)
    `
	if _, err := tx.ExecContext(ctx, updateTasks, taskArgs...); err != nil {
		return nil, err
	}

	updateVideos := `
      UPDATE videos
      SET status = 'downloading'
      WHERE id IN (` + placeholders(len(batch)) + `)
    `
	if _, err := tx.ExecContext(ctx, updateVideos, videoArgs...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *TaskRepository) ListUploadReady(ctx context.Context, limit int) ([]port.UploadCandidate, error) {
	const query = `
      SELECT t.id, t.video_id, v.local_path, COALESCE(v.size_bytes, 0), t.retries, t.max_retries
      FROM tasks t
      JOIN videos v ON v.id = t.video_id
      WHERE t.state = 'remuxing'
        AND v.local_path IS NOT NULL
      ORDER BY t.updated_at ASC
      LIMIT ?
    `
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var candidates []port.UploadCandidate
	for rows.Next() {
		var c port.UploadCandidate
		if err := rows.Scan(&c.TaskID, &c.VideoID, &c.LocalPath, &c.SizeBytes, &c.Retries, &c.MaxRetries); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

func (r *TaskRepository) AttachAccountAndAdvance(ctx context.Context, taskID, accountID db.UUID, queueName string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	const updateTask = `
      UPDATE tasks
      SET state = 'uploading', account_id = ?, queue_name = ?
      WHERE id = ? AND state = 'remuxing'
    `
	res, err := tx.ExecContext(ctx, updateTask, accountID, queueName, taskID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		// someone else moved the task; nothing was written
		return false, nil
	}

	const updateVideo = `
      UPDATE videos v
      JOIN tasks t ON t.video_id = v.id
      SET v.status = 'uploading'
      WHERE t.id = ?
    `
	if _, err := tx.ExecContext(ctx, updateVideo, taskID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *TaskRepository) ClaimVerifyBatch(ctx context.Context, queueName string, limit int) ([]port.VerifyDispatch, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	// queue_name doubles as the published marker: a verifying task still
	// routed to the upload queue has not been announced downstream yet.
	const selectQuery = `
      SELECT t.id, t.video_id, COALESCE(v.share_url, ''), t.retries, t.max_retries
      FROM tasks t
      JOIN videos v ON v.id = t.video_id
      WHERE t.state = 'verifying'
        AND t.queue_name <> ?
      ORDER BY t.updated_at ASC
      LIMIT ?
      FOR UPDATE SKIP LOCKED
    `
	rows, err := tx.QueryContext(ctx, selectQuery, queueName, limit)
	if err != nil {
		return nil, err
	}

	var batch []port.VerifyDispatch
	for rows.Next() {
		var d port.VerifyDispatch
		if err := rows.Scan(&d.TaskID, &d.VideoID, &d.ShareURL, &d.Retries, &d.MaxRetries); err != nil {
			_ = rows.Close()
			return nil, err
		}
		batch = append(batch, d)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	if len(batch) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(batch)+1)
	args = append(args, queueName)
	for _, d := range batch {
		args = append(args, d.TaskID)
	}

	updateQuery := `
      UPDATE tasks
      SET queue_name = ?
      WHERE id IN (` + placeholders(len(batch)) + `)
    `
	if _, err := tx.ExecContext(ctx, updateQuery, args...); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return batch, nil
}

func (r *TaskRepository) AdvanceState(ctx context.Context, id db.UUID, from, to model.TaskState) error {
	if !model.CanAdvance(from, to) {
		return pipeline.ErrInvalidTransition
	}

	log.Printf("advancing task #%s from %q to %q...", id, from, to)

	const query = `
      UPDATE tasks
      SET state = ?
      WHERE id = ? AND state = ?
    `
	res, err := r.db.ExecContext(ctx, query, to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}

	// lost the compare-and-set: report whether the task even exists
	const existsQuery = `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = ?)`
	var exists bool
	if err := r.db.QueryRowContext(ctx, existsQuery, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return pipeline.ErrTaskNotFound
	}
	return pipeline.ErrStateConflict
}

func (r *TaskRepository) MarkFailed(ctx context.Context, id db.UUID, reason string) error {
	log.Printf("failing task #%s: %s", id, reason)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	const updateTask = `
      UPDATE tasks
      SET state = 'failed', error_message = ?
      WHERE id = ? AND state NOT IN ('complete', 'failed')
    `
	res, err := tx.ExecContext(ctx, updateTask, reason, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		const existsQuery = `SELECT EXISTS (SELECT 1 FROM tasks WHERE id = ?)`
		var exists bool
		if err := tx.QueryRowContext(ctx, existsQuery, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pipeline.ErrTaskNotFound
		}
		return pipeline.ErrAlreadyTerminal
	}

	const updateVideo = `
      UPDATE videos v
      JOIN tasks t ON t.video_id = v.id
      SET v.status = 'failed'
      WHERE t.id = ?
    `
	if _, err := tx.ExecContext(ctx, updateVideo, id); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *TaskRepository) ListStale(ctx context.Context, q port.StaleQuery) ([]port.StaleTask, error) {
	query := `
      SELECT t.id, t.video_id, t.account_id, t.state, t.retries, t.max_retries, t.updated_at
      FROM tasks t
      JOIN videos v ON v.id = t.video_id
      LEFT JOIN accounts a ON a.id = t.account_id
      WHERE t.state = ?
        AND (t.updated_at < ?`
	args := []any{q.State, q.Cutoff}

	if q.OrLeaseExpired {
		query += ` OR (a.lease_expires_at IS NOT NULL AND a.lease_expires_at <= ?)`
		args = append(args, q.Now)
	}
	query += `)`

	if q.OnlyMissingLocal {
		query += `
        AND v.local_path IS NULL`
	}

	query += `
      ORDER BY t.updated_at ASC
      LIMIT ?
    `
	args = append(args, q.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var stale []port.StaleTask
	for rows.Next() {
		var (
			s         port.StaleTask
			accountID db.NullUUID
		)
		if err := rows.Scan(&s.TaskID, &s.VideoID, &accountID, &s.State, &s.Retries, &s.MaxRetries, &s.UpdatedAt); err != nil {
			return nil, err
		}
		s.AccountID = nullUUIDPtr(accountID)
		stale = append(stale, s)
	}
	return stale, rows.Err()
}

func (r *TaskRepository) RequeueForRetry(ctx context.Context, req port.RequeueRequest) (bool, error) {
	log.Printf("requeuing task #%s from %q to %q (attempt %d)...", req.TaskID, req.From, req.To, req.ObservedRetries+1)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	// conditional on the observed (state, retries) pair so concurrent
	// sweeps cannot double-count an attempt
	const updateTask = `
      UPDATE tasks
      SET state = ?, retries = retries + 1, queue_name = ?, error_message = ?
      WHERE id = ? AND state = ? AND retries = ?
    `
	res, err := tx.ExecContext(ctx, updateTask,
		req.To, req.QueueName, req.Reason,
		req.TaskID, req.From, req.ObservedRetries,
	)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	videoStatus := model.VideoStatusDiscovered
	if req.To == model.TaskStateRemuxing {
		videoStatus = model.VideoStatusDownloaded
	}
	const updateVideo = `
      UPDATE videos v
      JOIN tasks t ON t.video_id = v.id
      SET v.status = ?
      WHERE t.id = ?
    `
	if _, err := tx.ExecContext(ctx, updateVideo, videoStatus, req.TaskID); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func (r *TaskRepository) FailExhausted(ctx context.Context, id db.UUID, from model.TaskState, observedRetries int, reason string) (bool, error) {
	log.Printf("failing task #%s after %d attempts: %s", id, observedRetries, reason)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	const updateTask = `
      UPDATE tasks
      SET state = 'failed', error_message = ?
      WHERE id = ? AND state = ? AND retries = ?
    `
	res, err := tx.ExecContext(ctx, updateTask, reason, id, from, observedRetries)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	const updateVideo = `
      UPDATE videos v
      JOIN tasks t ON t.video_id = v.id
      SET v.status = 'failed'
      WHERE t.id = ?
    `
	if _, err := tx.ExecContext(ctx, updateVideo, id); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
