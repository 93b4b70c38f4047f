package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ripple-app/ripple/internal/middleware"
	"github.com/ripple-app/ripple/shared/api"
	"github.com/ripple-app/ripple/shared/utils"
)

// ToggleLike flips the viewer's like on a post and returns the new state.
func (h *Handler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	postId := chi.URLParam(r, "post")
	viewer := middleware.GetViewer(r)

	liked, err := h.reactions.ToggleLike(r.Context(), postId, viewer)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.ToggleLikeResponse{Liked: liked})
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	postId := chi.URLParam(r, "post")

	var body api.CreateCommentRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	viewer := middleware.GetViewer(r)
	comment, err := h.reactions.SubmitComment(r.Context(), postId, viewer, body.Text)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreateCommentResponse{Comment: comment})
}

// GetComments returns a post's comments oldest first.
func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	postId := chi.URLParam(r, "post")

	comments, err := h.reactions.Comments(r.Context(), postId)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.CommentsResponse{Comments: comments})
}
