// Package api holds the request and response DTOs of the HTTP surface.
package api

import (
	"github.com/ripple-app/ripple/shared/domain"
)

// Request DTOs

// CreatePostRequest publishes a root or, on the ripple route, a
// continuation. Recipients is the raw line the author typed; the server
// splits and validates it.
type CreatePostRequest struct {
	Text       string `json:"text" validate:"required"`
	Recipients string `json:"recipients" validate:"required"`
}

// Response DTOs

// PostResponse is one post enriched with its reaction aggregates.
type PostResponse struct {
	domain.Post
	LikeCount    int  `json:"likeCount"`
	ViewerLiked  bool `json:"viewerLiked"`
	CommentCount int  `json:"commentCount"`
	Highlighted  bool `json:"highlighted"`
}

type CreatePostResponse struct {
	Post PostResponse `json:"post"`
}

// TimelineResponse is the merged feed, newest first.
type TimelineResponse struct {
	Posts []PostResponse `json:"posts"`
}

// RippleResponse is one full chain, newest first, with summary counts.
type RippleResponse struct {
	RippleId     string         `json:"rippleId"`
	Posts        []PostResponse `json:"posts"`
	Participants int            `json:"participants"`
	Generations  int            `json:"generations"`
}
