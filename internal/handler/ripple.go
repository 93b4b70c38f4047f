package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/ripple-app/ripple/internal/middleware"
	"github.com/ripple-app/ripple/shared/api"
	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/errors"
	"github.com/ripple-app/ripple/shared/logger"
	"github.com/ripple-app/ripple/shared/utils"
)

// GetRipple returns one full chain with its summary counts. The live
// membership view serves the read, so continuations published while the
// chain is on screen appear without a re-read; a one-shot query covers a
// watch failure.
func (h *Handler) GetRipple(w http.ResponseWriter, r *http.Request) {
	rippleId := chi.URLParam(r, "ripple")

	var posts []domain.Post
	if err := h.tracker.TrackRipple(r.Context(), rippleId); err == nil {
		posts = h.tracker.RippleMembers(rippleId)
	} else {
		logger.Log.Warn("live membership unavailable", "rippleId", rippleId, "error", err)
		var readErr error
		posts, readErr = h.ripples.Members(r.Context(), rippleId)
		if readErr != nil {
			utils.WriteErrorAndStatusCode(w, readErr)
			return
		}
	}
	if len(posts) == 0 {
		utils.WriteErrorAndStatusCode(w, errors.RippleNotFound)
		return
	}

	viewer := middleware.GetViewer(r)
	highlight := ""
	if viewer.Id != "" {
		highlight = h.sessions.Get(viewer.Id).Highlight()
	}

	participants := len(lo.UniqBy(posts, func(p domain.Post) string { return p.Author.Id }))
	generations := lo.MaxBy(posts, func(a, b domain.Post) bool { return a.Generation > b.Generation }).Generation + 1

	utils.WriteJSON(w, http.StatusOK, api.RippleResponse{
		RippleId:     rippleId,
		Posts:        h.postResponses(r.Context(), posts, viewer, highlight),
		Participants: participants,
		Generations:  generations,
	})
}

// ContinueRipple publishes a continuation into an existing chain.
func (h *Handler) ContinueRipple(w http.ResponseWriter, r *http.Request) {
	rippleId := chi.URLParam(r, "ripple")

	var body api.CreatePostRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	viewer := middleware.GetViewer(r)
	sess := h.sessions.Get(viewer.Id)
	post, err := h.publisher.Continue(r.Context(), sess, viewer, rippleId, body.Text, body.Recipients)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, api.CreatePostResponse{
		Post: h.postResponse(r.Context(), post, viewer, sess.Highlight()),
	})
}
