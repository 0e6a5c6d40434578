package handlers

import (
	"errors"
	"net/http"

	"snapfeed/internal/feed"

	"github.com/google/uuid"
)

type feedResponse struct {
	Posts []feed.Item `json:"posts"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// HandleCreatePost accepts a multipart upload (file + optional caption) and
// returns the persisted post.
func (h *APIHandler) HandleCreatePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := h.Sessions.UserID(r)
		if userID == 0 {
			h.unauthorised(w, r)
			return
		}

		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)

		file, header, err := r.FormFile("file")
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				h.writeError(w, http.StatusRequestEntityTooLarge, "InvalidInput", "Uploaded file is too large.")
				return
			}
			h.writeError(w, http.StatusBadRequest, "InvalidInput", "A file upload is required.")
			return
		}
		defer file.Close()

		post, err := h.Feed.CreatePost(r.Context(), userID, feed.Upload{
			Filename:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Body:        file,
		}, r.FormValue("caption"))
		if err != nil {
			h.serviceError(w, r, err)
			return
		}

		h.writeJSON(w, http.StatusCreated, post)
	})
}

// HandleFeed returns every post, newest first, annotated with ownership.
func (h *APIHandler) HandleFeed() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := h.Sessions.UserID(r)
		if userID == 0 {
			h.unauthorised(w, r)
			return
		}

		items, err := h.Feed.ListFeed(r.Context(), userID)
		if err != nil {
			h.serviceError(w, r, err)
			return
		}

		h.writeJSON(w, http.StatusOK, feedResponse{Posts: items})
	})
}

func (h *APIHandler) HandleDeletePost() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := h.Sessions.UserID(r)
		if userID == 0 {
			h.unauthorised(w, r)
			return
		}

		postID, err := uuid.Parse(r.PathValue("id"))
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "InvalidInput", "Post id must be a valid UUID.")
			return
		}

		if err := h.Feed.DeletePost(r.Context(), userID, postID); err != nil {
			h.serviceError(w, r, err)
			return
		}

		h.writeJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "post deleted"})
	})
}
