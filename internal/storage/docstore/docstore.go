// Package docstore is the domain-typed storage layer: collection naming,
// record encoding and the query shapes the services run, on top of the raw
// document store adapter.
package docstore

import (
	"context"
	"time"

	"github.com/ripple-app/ripple/internal/store"
	"github.com/ripple-app/ripple/shared/domain"
)

const postsCollection = "posts"

type Storage struct {
	store store.Store
}

func New(s store.Store) *Storage {
	return &Storage{store: s}
}

func postPath(postId string) string {
	return postsCollection + "/" + postId
}

func likesCollection(postId string) string {
	return postPath(postId) + "/likes"
}

func commentsCollection(postId string) string {
	return postPath(postId) + "/comments"
}

func (s *Storage) CreatePost(ctx context.Context, draft domain.PostDraft) (string, error) {
	return s.store.Create(ctx, postsCollection, postFields(draft))
}

// AssignRipple backfills the group id onto a fresh root. Separate from
// CreatePost because the id is only known after the store assigned it.
func (s *Storage) AssignRipple(ctx context.Context, postId, rippleId string) error {
	return s.store.Patch(ctx, postPath(postId), store.Fields{"rippleId": rippleId})
}

func (s *Storage) GetPost(ctx context.Context, postId string) (domain.Post, error) {
	rec, err := s.store.Get(ctx, postPath(postId))
	if err != nil {
		return domain.Post{}, err
	}
	return postFromRecord(rec), nil
}

func rippleQuery(rippleId string) store.Query {
	return store.Query{
		Collection: postsCollection,
		Filters:    []store.Filter{{Field: "rippleId", Value: rippleId}},
		OrderBy:    []store.Order{{Field: "timestamp", Direction: store.Desc}},
	}
}

// PostsByRipple reads the group membership fresh, newest first.
func (s *Storage) PostsByRipple(ctx context.Context, rippleId string) ([]domain.Post, error) {
	recs, err := s.store.Query(ctx, rippleQuery(rippleId))
	if err != nil {
		return nil, err
	}
	return postsFromRecords(recs), nil
}

func (s *Storage) SubscribeRipple(ctx context.Context, rippleId string) (store.Subscription, error) {
	return s.store.Subscribe(ctx, rippleQuery(rippleId))
}

func timelineQuery() store.Query {
	return store.Query{
		Collection: postsCollection,
		OrderBy:    []store.Order{{Field: "timestamp", Direction: store.Desc}},
	}
}

func (s *Storage) Timeline(ctx context.Context) ([]domain.Post, error) {
	recs, err := s.store.Query(ctx, timelineQuery())
	if err != nil {
		return nil, err
	}
	return postsFromRecords(recs), nil
}

func (s *Storage) SubscribeTimeline(ctx context.Context) (store.Subscription, error) {
	return s.store.Subscribe(ctx, timelineQuery())
}

// DecodePosts converts a subscription snapshot into domain posts.
func DecodePosts(recs []store.Record) []domain.Post {
	return postsFromRecords(recs)
}

// DecodeComments converts a subscription snapshot into domain comments.
func DecodeComments(recs []store.Record) []domain.Comment {
	return commentsFromRecords(recs)
}

// DecodeLikes converts a subscription snapshot into like marks.
func DecodeLikes(postId string, recs []store.Record) []domain.LikeMark {
	return likesFromRecords(postId, recs)
}

func (s *Storage) LikeMark(ctx context.Context, postId, userId string) (domain.LikeMark, error) {
	rec, err := s.store.Get(ctx, likesCollection(postId)+"/"+userId)
	if err != nil {
		return domain.LikeMark{}, err
	}
	return domain.LikeMark{PostId: postId, UserId: userId, LikedAt: timestamp(rec.Data["likedAt"])}, nil
}

func (s *Storage) SetLikeMark(ctx context.Context, postId, userId string) error {
	// likedAt stays epoch milliseconds, the shape of every mark already in
	// the store.
	return s.store.Set(ctx, likesCollection(postId)+"/"+userId, store.Fields{"likedAt": time.Now().UnixMilli()})
}

func (s *Storage) DeleteLikeMark(ctx context.Context, postId, userId string) error {
	return s.store.Delete(ctx, likesCollection(postId)+"/"+userId)
}

func (s *Storage) SubscribeLikes(ctx context.Context, postId string) (store.Subscription, error) {
	return s.store.Subscribe(ctx, store.Query{Collection: likesCollection(postId)})
}

func (s *Storage) CreateComment(ctx context.Context, postId string, draft domain.CommentDraft) (string, error) {
	return s.store.Create(ctx, commentsCollection(postId), commentFields(draft))
}

func commentsQuery(postId string) store.Query {
	return store.Query{
		Collection: commentsCollection(postId),
		OrderBy:    []store.Order{{Field: "timestamp", Direction: store.Asc}},
	}
}

func (s *Storage) Comments(ctx context.Context, postId string) ([]domain.Comment, error) {
	recs, err := s.store.Query(ctx, commentsQuery(postId))
	if err != nil {
		return nil, err
	}
	return commentsFromRecords(recs), nil
}

func (s *Storage) SubscribeComments(ctx context.Context, postId string) (store.Subscription, error) {
	return s.store.Subscribe(ctx, commentsQuery(postId))
}
