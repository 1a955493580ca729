package api

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/port"
)

func GetVideoHandler(repo port.VideoRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := IDFromContext(r.Context())
		if !ok {
			WriteError(r.Context(), w, http.StatusBadRequest, "ID is required", nil)
			return
		}

		video, err := repo.GetByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				WriteError(r.Context(), w, http.StatusNotFound, "Video not found", nil)
				return
			}
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not get video details", err)
			return
		}

		RespondJSON(w, http.StatusOK, video)
		logger.Infof(r.Context(), "✅  Successfully returned details for video #%s", id)
	}
}
