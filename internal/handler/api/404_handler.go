package api

import "net/http"

// NotFoundHandler answers unmatched routes with the same JSON error shape
// the rest of the API uses.
func NotFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		RespondJSON(w, http.StatusNotFound, ErrorResponse{Error: "No such endpoint"})
	}
}
