package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/opctx"
	"github.com/pixav/maxwell/internal/port"
	"github.com/pixav/maxwell/internal/usecase/pipeline"
)

type CancelTaskRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=512"`
}

func CancelTaskHandler(svc port.TaskCanceller) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IDFromContext(r.Context())
		if !ok {
			WriteError(r.Context(), w, http.StatusBadRequest, "ID is required", nil)
			return
		}
		ctx := opctx.WithTaskID(r.Context(), id)

		// the body is optional; an absent or empty one means no reason given
		var req CancelTaskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			WriteError(ctx, w, http.StatusBadRequest, "Invalid request", err)
			return
		}

		if err := svc.CancelTask(ctx, id, req.Reason); err != nil {
			if errors.Is(err, pipeline.ErrTaskNotFound) {
				WriteError(ctx, w, http.StatusNotFound, "Task not found", nil)
				return
			}
			if errors.Is(err, pipeline.ErrAlreadyTerminal) {
				WriteError(ctx, w, http.StatusConflict, "Task already finished", nil)
				return
			}
			WriteError(ctx, w, http.StatusInternalServerError, "Could not cancel task", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		logger.Infof(ctx, "✅  Successfully cancelled task #%s", id)
	}
}
