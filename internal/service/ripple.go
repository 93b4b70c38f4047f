// Package service holds the application workflows: ripple placement,
// notification fan-out, reactions and the publishing sessions. Each service
// declares the narrow storage surface it needs.
package service

import (
	"context"

	"github.com/ripple-app/ripple/internal/storage/docstore"
	"github.com/ripple-app/ripple/internal/store"
	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/errors"
)

type RippleStorage interface {
	AssignRipple(ctx context.Context, postId, rippleId string) error
	PostsByRipple(ctx context.Context, rippleId string) ([]domain.Post, error)
	SubscribeRipple(ctx context.Context, rippleId string) (store.Subscription, error)
}

// Ripple manages the grouping of posts into chains.
type Ripple struct {
	storage RippleStorage
}

func NewRipple(storage RippleStorage) *Ripple {
	return &Ripple{storage: storage}
}

// AssignRoot stamps a fresh root with its own id as the group id. Until
// this patch lands the root is not queryable as part of any ripple.
func (r *Ripple) AssignRoot(ctx context.Context, postId string) error {
	return r.storage.AssignRipple(ctx, postId, postId)
}

// ResolveContinuation places a new post inside the group: parent is the
// newest member of the snapshot, generation is the parent's plus one.
// Two writers resolving against the same snapshot get the same placement;
// that is accepted, not prevented.
func (r *Ripple) ResolveContinuation(rippleId string, snapshot []domain.Post) (domain.Placement, error) {
	if len(snapshot) == 0 {
		return domain.Placement{}, errors.RippleNotFound
	}
	newest := snapshot[0]
	for _, p := range snapshot[1:] {
		if p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	return domain.Placement{
		RippleId:     rippleId,
		ParentPostId: newest.Id,
		Generation:   newest.Generation + 1,
	}, nil
}

// Members reads the group membership fresh, newest first.
func (r *Ripple) Members(ctx context.Context, rippleId string) ([]domain.Post, error) {
	return r.storage.PostsByRipple(ctx, rippleId)
}

// Membership is a live view of the group.
func (r *Ripple) Membership(ctx context.Context, rippleId string) (store.Subscription, error) {
	return r.storage.SubscribeRipple(ctx, rippleId)
}

// WatchMembers streams the group membership, newest post first. The channel
// closes when ctx is done.
func (r *Ripple) WatchMembers(ctx context.Context, rippleId string) (<-chan []domain.Post, error) {
	sub, err := r.Membership(ctx, rippleId)
	if err != nil {
		return nil, err
	}
	out := make(chan []domain.Post, 1)
	go func() {
		defer close(out)
		for recs := range sub.Updates() {
			out <- docstore.DecodePosts(recs)
		}
	}()
	return out, nil
}
