package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/port"
	"github.com/pixav/maxwell/internal/usecase/pipeline"
	"github.com/pixav/maxwell/internal/validation"
)

func RegisterVideoHandler(svc port.VideoRegistrar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in port.RegisterVideoInput
		if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
			WriteError(r.Context(), w, http.StatusBadRequest, "Invalid request", fmt.Errorf("invalid JSON: %w", err))
			return
		}

		if errs := validation.ValidateStruct(in); errs != nil {
			errsJSON, err := validation.ErrorsToJson(errs)
			if err != nil {
				WriteError(r.Context(), w, http.StatusInternalServerError, "Validation error (could not encode details)", fmt.Errorf("encoding validation errors: %w", err))
				return
			}

			// return the validation errors payload directly
			RespondRawJSON(w, http.StatusBadRequest, []byte(errsJSON))
			logger.Warnf(r.Context(), "❌  Validation failed: %s", errsJSON)
			return
		}

		out, err := svc.RegisterVideo(r.Context(), in)
		if err != nil {
			if errors.Is(err, pipeline.ErrDuplicateOpenTask) {
				WriteError(r.Context(), w, http.StatusConflict, "Video already has an open task", nil)
				return
			}
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not register video", err)
			return
		}

		RespondJSON(w, http.StatusCreated, out)
		logger.Infof(r.Context(), "✅  Successfully registered video #%s with task #%s", out.Video.ID, out.Task.ID)
	}
}
