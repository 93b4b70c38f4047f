package service

import (
	"context"

	"github.com/ripple-app/ripple/internal/storage/docstore"
	"github.com/ripple-app/ripple/internal/store"
	"github.com/ripple-app/ripple/shared/domain"
)

type FeedStorage interface {
	Timeline(ctx context.Context) ([]domain.Post, error)
	SubscribeTimeline(ctx context.Context) (store.Subscription, error)
	GetPost(ctx context.Context, postId string) (domain.Post, error)
}

// Feed serves the main post feed, one-shot and live.
type Feed struct {
	storage FeedStorage
}

func NewFeed(storage FeedStorage) *Feed {
	return &Feed{storage: storage}
}

// Timeline reads every post fresh, newest first.
func (f *Feed) Timeline(ctx context.Context) ([]domain.Post, error) {
	return f.storage.Timeline(ctx)
}

func (f *Feed) GetPost(ctx context.Context, postId string) (domain.Post, error) {
	return f.storage.GetPost(ctx, postId)
}

// WatchTimeline streams the full feed, newest post first. The channel
// closes when ctx is done.
func (f *Feed) WatchTimeline(ctx context.Context) (<-chan []domain.Post, error) {
	sub, err := f.storage.SubscribeTimeline(ctx)
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
