package api

import (
	"github.com/ripple-app/ripple/shared/domain"
)

// Request DTOs

type CreateCommentRequest struct {
	Text string `json:"text" validate:"required"`
}

// Response DTOs

type ToggleLikeResponse struct {
	Liked bool `json:"liked"`
}

type CommentsResponse struct {
	Comments []domain.Comment `json:"comments"`
}

type CreateCommentResponse struct {
	Comment domain.Comment `json:"comment"`
}
