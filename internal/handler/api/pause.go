package api

import (
	"net/http"

	"github.com/pixav/maxwell/internal/logger"
	"github.com/pixav/maxwell/internal/port"
)

// PauseHandler flips the shared pause flag. Dispatch stops on the next tick;
// reap sweeps are not affected.
func PauseHandler(sw port.PauseSwitch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sw.Pause(r.Context()); err != nil {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not pause dispatching", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		logger.Info(r.Context(), "✅  Dispatching paused")
	}
}

func ResumeHandler(sw port.PauseSwitch) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sw.Resume(r.Context()); err != nil {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not resume dispatching", err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
		logger.Info(r.Context(), "✅  Dispatching resumed")
	}
}
