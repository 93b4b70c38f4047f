package handler

import (
	"context"

	"github.com/ripple-app/ripple/internal/service"
	"github.com/ripple-app/ripple/shared/api"
	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/logger"
)

type PublisherService interface {
	PublishRoot(ctx context.Context, sess *service.Session, author domain.User, text, recipientLine string) (domain.Post, error)
	Continue(ctx context.Context, sess *service.Session, author domain.User, rippleId, text, recipientLine string) (domain.Post, error)
}

type RippleService interface {
	Members(ctx context.Context, rippleId string) ([]domain.Post, error)
}

type ReactionService interface {
	ToggleLike(ctx context.Context, postId string, viewer domain.User) (bool, error)
	SubmitComment(ctx context.Context, postId string, viewer domain.User, text string) (domain.Comment, error)
	Comments(ctx context.Context, postId string) ([]domain.Comment, error)
}

type TrackerService interface {
	Track(ctx context.Context, postId string) error
	LikeCount(postId string) int
	HasLiked(postId, userId string) bool
	Comments(postId string) []domain.Comment
	TrackRipple(ctx context.Context, rippleId string) error
	RippleMembers(rippleId string) []domain.Post
	TrackTimeline(ctx context.Context) error
	Timeline() []domain.Post
}

type FeedService interface {
	Timeline(ctx context.Context) ([]domain.Post, error)
	GetPost(ctx context.Context, postId string) (domain.Post, error)
}

type Handler struct {
	publisher PublisherService
	ripples   RippleService
	reactions ReactionService
	tracker   TrackerService
	feed      FeedService
	sessions  *service.Sessions
}

func New(publisher PublisherService, ripples RippleService, reactions ReactionService, tracker TrackerService, feed FeedService, sessions *service.Sessions) *Handler {
	return &Handler{publisher, ripples, reactions, tracker, feed, sessions}
}

// postResponse enriches one post with the tracker's reaction aggregates.
// A tracking failure degrades to zero counts instead of failing the page.
func (h *Handler) postResponse(ctx context.Context, post domain.Post, viewer domain.User, highlight string) api.PostResponse {
	if err := h.tracker.Track(ctx, post.Id); err != nil {
		logger.Log.Warn("reaction tracking unavailable", "postId", post.Id, "error", err)
	}
	return api.PostResponse{
		Post:         post,
		LikeCount:    h.tracker.LikeCount(post.Id),
		ViewerLiked:  viewer.Id != "" && h.tracker.HasLiked(post.Id, viewer.Id),
		CommentCount: len(h.tracker.Comments(post.Id)),
		Highlighted:  highlight != "" && post.Id == highlight,
	}
}

func (h *Handler) postResponses(ctx context.Context, posts []domain.Post, viewer domain.User, highlight string) []api.PostResponse {
	out := make([]api.PostResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, h.postResponse(ctx, p, viewer, highlight))
	}
	return out
}
