package service

import (
	"context"
	"strings"
	"time"

	"github.com/ripple-app/ripple/internal/storage/docstore"
	"github.com/ripple-app/ripple/internal/store"
	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/errors"
)

type ReactionStorage interface {
	LikeMark(ctx context.Context, postId, userId string) (domain.LikeMark, error)
	SetLikeMark(ctx context.Context, postId, userId string) error
	DeleteLikeMark(ctx context.Context, postId, userId string) error
	CreateComment(ctx context.Context, postId string, draft domain.CommentDraft) (string, error)
	Comments(ctx context.Context, postId string) ([]domain.Comment, error)
	SubscribeLikes(ctx context.Context, postId string) (store.Subscription, error)
	SubscribeComments(ctx context.Context, postId string) (store.Subscription, error)
}

// Reactions handles likes and comments on single posts.
type Reactions struct {
	storage ReactionStorage
	fanout  *Fanout
}

func NewReactions(storage ReactionStorage, fanout *Fanout) *Reactions {
	return &Reactions{storage: storage, fanout: fanout}
}

// ToggleLike flips the viewer's like mark and reports the resulting state.
// The mark is keyed by user id, so repeating the same intent converges on
// the same end state instead of stacking duplicates.
func (r *Reactions) ToggleLike(ctx context.Context, postId string, viewer domain.User) (bool, error) {
	if viewer.Id == "" {
		return false, errors.Validation("sign in to like posts")
	}

	_, err := r.storage.LikeMark(ctx, postId, viewer.Id)
	switch {
	case err == nil:
		if err := r.storage.DeleteLikeMark(ctx, postId, viewer.Id); err != nil {
			return true, err
		}
		return false, nil
	case err == errors.NotFound:
		if err := r.storage.SetLikeMark(ctx, postId, viewer.Id); err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

// SubmitComment appends a comment and kicks off the owner notification.
// The notification runs detached: its outcome never surfaces here.
func (r *Reactions) SubmitComment(ctx context.Context, postId string, viewer domain.User, text string) (domain.Comment, error) {
	if viewer.Id == "" {
		return domain.Comment{}, errors.Validation("sign in to comment")
	}
	if strings.TrimSpace(text) == "" {
		return domain.Comment{}, errors.Validation("comment text must not be empty")
	}

	id, err := r.storage.CreateComment(ctx, postId, domain.CommentDraft{Author: viewer, Text: text})
	if err != nil {
		return domain.Comment{}, err
	}

	comment := domain.Comment{Id: id, Author: viewer, Text: text, CreatedAt: time.Now().UTC()}
	go r.fanout.NotifyCommentOwner(context.Background(), postId, comment)
	return comment, nil
}

func (r *Reactions) Comments(ctx context.Context, postId string) ([]domain.Comment, error) {
	return r.storage.Comments(ctx, postId)
}

// WatchLikes is a live view of a post's like marks. The channel closes
// when ctx is done.
func (r *Reactions) WatchLikes(ctx context.Context, postId string) (<-chan []domain.LikeMark, error) {
	sub, err := r.storage.SubscribeLikes(ctx, postId)
	if err != nil {
		return nil, err
	}
	out := make(chan []domain.LikeMark, 1)
	go func() {
		defer close(out)
		for recs := range sub.Updates() {
			out <- docstore.DecodeLikes(postId, recs)
		}
	}()
	return out, nil
}

// WatchComments is a live view of a post's comment list, oldest first.
func (r *Reactions) WatchComments(ctx context.Context, postId string) (<-chan []domain.Comment, error) {
	sub, err := r.storage.SubscribeComments(ctx, postId)
	if err != nil {
		return nil, err
	}
	out := make(chan []domain.Comment, 1)
	go func() {
		defer close(out)
		for recs := range sub.Updates() {
			out <- docstore.DecodeComments(recs)
		}
	}()
	return out, nil
}
