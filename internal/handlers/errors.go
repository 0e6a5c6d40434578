package handlers

import (
	"errors"
	"net/http"

	"snapfeed/internal/feed"
)

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError writes a standardised JSON error response
func (h *APIHandler) writeError(w http.ResponseWriter, code int, errType, message string) {
	h.writeJSON(w, code, errorResponse{Error: errType, Message: message})
}

// unauthorised handles callers with no valid session
func (h *APIHandler) unauthorised(w http.ResponseWriter, r *http.Request) {
	h.Logger.Warn("401 unauthorised", "path", r.URL.Path, "ip", r.RemoteAddr)
	h.writeError(w, http.StatusUnauthorized, "Unauthorized", "You need to be logged in to perform this action.")
}

// serviceError maps a feed service failure onto an HTTP response. Collaborator
// failures keep their triggering message; anything unclassified stays generic.
func (h *APIHandler) serviceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, feed.ErrInvalidInput):
		h.writeError(w, http.StatusBadRequest, "InvalidInput", err.Error())

	case errors.Is(err, feed.ErrUnauthorized):
		h.unauthorised(w, r)

	case errors.Is(err, feed.ErrForbidden):
		h.writeError(w, http.StatusForbidden, "Forbidden", "You do not own this post.")

	case errors.Is(err, feed.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "NotFound", "Post not found.")

	case errors.Is(err, feed.ErrBlobStore):
		h.Logger.Error("blob store failure", "err", err, "path", r.URL.Path)
		h.writeError(w, http.StatusInternalServerError, "UpstreamStoreFailure", err.Error())

	case errors.Is(err, feed.ErrPersistence):
		h.Logger.Error("persistence failure", "err", err, "path", r.URL.Path)
		h.writeError(w, http.StatusInternalServerError, "PersistenceFailure", err.Error())

	default:
		h.Logger.Error("500 internal server error", "err", err, "path", r.URL.Path)
		h.writeError(w, http.StatusInternalServerError, "InternalServerError",
			"Something went wrong on our end. We've logged the error and will look into it.")
	}
}

// notFound serves unmatched routes
func (h *APIHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.Logger.Warn("404 not found", "path", r.URL.Path, "method", r.Method, "ip", r.RemoteAddr)
	h.writeError(w, http.StatusNotFound, "NotFound", "The resource you are looking for doesn't exist.")
}
