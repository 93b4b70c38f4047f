package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ripple-app/ripple/internal/middleware"
	"github.com/ripple-app/ripple/shared/api"
	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/logger"
	"github.com/ripple-app/ripple/shared/utils"
)

// Timeline returns every post newest first, with the viewer's locally
// committed posts folded in on top until the feed catches up. The live
// feed view serves the read; a one-shot query covers a watch failure.
func (h *Handler) Timeline(w http.ResponseWriter, r *http.Request) {
	var posts []domain.Post
	if err := h.tracker.TrackTimeline(r.Context()); err == nil {
		posts = h.tracker.Timeline()
	} else {
		logger.Log.Warn("live timeline unavailable", "error", err)
		var readErr error
		posts, readErr = h.feed.Timeline(r.Context())
		if readErr != nil {
			utils.WriteErrorAndStatusCode(w, readErr)
			return
		}
	}

	viewer := middleware.GetViewer(r)
	highlight := ""
	if viewer.Id != "" {
		sess := h.sessions.Get(viewer.Id)
		posts = sess.Merge(posts)
		highlight = sess.Highlight()
	}

	utils.WriteJSON(w, http.StatusOK, api.TimelineResponse{
		Posts: h.postResponses(r.Context(), posts, viewer, highlight),
	})
}

// CreatePost publishes a new root.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var body api.CreatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	viewer := middleware.GetViewer(r)
	sess := h.sessions.Get(viewer.Id)
	post, err := h.publisher.PublishRoot(r.Context(), sess, viewer, body.Text, body.Recipients)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.CreatePostResponse{
		Post: h.postResponse(r.Context(), post, viewer, sess.Highlight()),
	})
}

func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	postId := chi.URLParam(r, "post")

	post, err := h.feed.GetPost(r.Context(), postId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	viewer := middleware.GetViewer(r)
	utils.WriteJSON(w, http.StatusOK, h.postResponse(r.Context(), post, viewer, ""))
}
