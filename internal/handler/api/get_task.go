package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/opctx"
	"github.com/pixav/maxwell/internal/port"
)

func GetTaskHandler(repo port.TaskRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IDFromContext(r.Context())
		if !ok {
			WriteError(r.Context(), w, http.StatusBadRequest, "ID is required", nil)
			return
		}
		ctx := opctx.WithTaskID(r.Context(), id)

		task, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteError(ctx, w, http.StatusNotFound, "Task not found", nil)
				return
			}
			WriteError(ctx, w, http.StatusInternalServerError, "Could not get task details", err)
			return
		}

		RespondJSON(w, http.StatusOK, task)
		logger.Infof(ctx, "✅  Successfully returned details for task #%s", id)
	}
}
