package api

import (
	"net/http"

	"github.com/pixav/maxwell/internal/port"
)

func StatusHandler(svc port.StatusReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.Status(r.Context())
		if err != nil {
			WriteError(r.Context(), w, http.StatusInternalServerError, "Could not assemble status snapshot", err)
			return
		}

		// snapshots go stale within seconds; the service caches, clients must not
		w.Header().Set("Cache-Control", "no-store, max-age=0, must-revalidate")
		RespondJSON(w, http.StatusOK, out)
	}
}

func HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
