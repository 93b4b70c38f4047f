package service

import (
	"context"
	"sync"
	"time"

	"github.com/ripple-app/ripple/shared/domain"
)

const (
	trackerIdleTTL       = 5 * time.Minute
	trackerSweepInterval = time.Minute
)

// Tracker keeps live views for what is currently on screen: per-post
// reaction aggregates, per-ripple membership and the timeline itself.
// Each view holds its subscriptions until nothing has asked for it within
// the idle window; a sweeper then drops it.
type Tracker struct {
	reactions *Reactions
	ripples   *Ripple
	feed      *Feed

	mu       sync.RWMutex
	posts    map[string]*postReactions
	members  map[string]*rippleMembers
	timeline *timelineView

	now  func() time.Time
	stop chan struct{}
}

type postReactions struct {
	cancel   context.CancelFunc
	lastUsed time.Time
	likes    []domain.LikeMark
	comments []domain.Comment
}

type rippleMembers struct {
	cancel   context.CancelFunc
	lastUsed time.Time
	posts    []domain.Post
}

type timelineView struct {
	cancel   context.CancelFunc
	lastUsed time.Time
	posts    []domain.Post
}

func NewTracker(reactions *Reactions, ripples *Ripple, feed *Feed) *Tracker {
	t := &Tracker{
		reactions: reactions,
		ripples:   ripples,
		feed:      feed,
		posts:     make(map[string]*postReactions),
		members:   make(map[string]*rippleMembers),
		now:       time.Now,
		stop:      make(chan struct{}),
	}
	go t.sweep()
	return t
}

// SetClock replaces the time source.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.now = now
}

// consume copies each snapshot into the view under the tracker lock and
// signals the first one.
func consume[T any](t *Tracker, ch <-chan []T, apply func([]T), ready *sync.WaitGroup) {
	go func() {
		first := true
		for snap := range ch {
			t.mu.Lock()
			apply(snap)
			t.mu.Unlock()
			if first {
				ready.Done()
				first = false
			}
		}
		if first {
			ready.Done()
		}
	}()
}

// awaitReady blocks until every first snapshot landed or ctx gave up.
func awaitReady(ctx context.Context, ready *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		ready.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Track starts watching a post's reactions. Tracking the same post again
// only refreshes its idle timer. Track returns once the initial likes and
// comments snapshots have landed, so readers never observe a tracked post
// as empty just because the subscription is young.
func (t *Tracker) Track(ctx context.Context, postId string) error {
	t.mu.Lock()
	if e, ok := t.posts[postId]; ok {
		e.lastUsed = t.now()
		t.mu.Unlock()
		return nil
	}

	// Watch lifetime is owned by the tracker, not by the caller's ctx.
	watchCtx, cancel := context.WithCancel(context.Background())
	likes, err := t.reactions.WatchLikes(watchCtx, postId)
	if err != nil {
		cancel()
		t.mu.Unlock()
		return err
	}
	comments, err := t.reactions.WatchComments(watchCtx, postId)
	if err != nil {
		cancel()
		t.mu.Unlock()
		return err
	}

	e := &postReactions{cancel: cancel, lastUsed: t.now()}
	t.posts[postId] = e
	t.mu.Unlock()

	var ready sync.WaitGroup
	ready.Add(2)
	consume(t, likes, func(marks []domain.LikeMark) { e.likes = marks }, &ready)
	consume(t, comments, func(list []domain.Comment) { e.comments = list }, &ready)
	return awaitReady(ctx, &ready)
}

// TrackRipple starts watching a ripple's membership, so continuations land
// in the rendered chain without a re-read.
func (t *Tracker) TrackRipple(ctx context.Context, rippleId string) error {
	t.mu.Lock()
	if v, ok := t.members[rippleId]; ok {
		v.lastUsed = t.now()
		t.mu.Unlock()
		return nil
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	stream, err := t.ripples.WatchMembers(watchCtx, rippleId)
	if err != nil {
		cancel()
		t.mu.Unlock()
		return err
	}

	v := &rippleMembers{cancel: cancel, lastUsed: t.now()}
	t.members[rippleId] = v
	t.mu.Unlock()

	var ready sync.WaitGroup
	ready.Add(1)
	consume(t, stream, func(posts []domain.Post) { v.posts = posts }, &ready)
	return awaitReady(ctx, &ready)
}

// TrackTimeline starts watching the full feed.
func (t *Tracker) TrackTimeline(ctx context.Context) error {
	t.mu.Lock()
	if t.timeline != nil {
		t.timeline.lastUsed = t.now()
		t.mu.Unlock()
		return nil
	}

	watchCtx, cancel := context.WithCancel(context.Background())
	stream, err := t.feed.WatchTimeline(watchCtx)
	if err != nil {
		cancel()
		t.mu.Unlock()
		return err
	}

	v := &timelineView{cancel: cancel, lastUsed: t.now()}
	t.timeline = v
	t.mu.Unlock()

	var ready sync.WaitGroup
	ready.Add(1)
	consume(t, stream, func(posts []domain.Post) { v.posts = posts }, &ready)
	return awaitReady(ctx, &ready)
}

func (t *Tracker) LikeCount(postId string) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.posts[postId]; ok {
		return len(e.likes)
	}
	return 0
}

// HasLiked reports whether the user's mark is present in the latest
// snapshot.
func (t *Tracker) HasLiked(postId, userId string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.posts[postId]
	if !ok {
		return false
	}
	for _, m := range e.likes {
		if m.UserId == userId {
			return true
		}
	}
	return false
}

func (t *Tracker) Comments(postId string) []domain.Comment {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.posts[postId]
	if !ok {
		return nil
	}
	return append([]domain.Comment(nil), e.comments...)
}

// RippleMembers is the latest membership snapshot, newest post first. Nil
// until TrackRipple has been called for the group.
func (t *Tracker) RippleMembers(rippleId string) []domain.Post {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.members[rippleId]
	if !ok {
		return nil
	}
	return append([]domain.Post(nil), v.posts...)
}

// Timeline is the latest feed snapshot, newest post first. Nil until
// TrackTimeline has been called.
func (t *Tracker) Timeline() []domain.Post {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.timeline == nil {
		return nil
	}
	return append([]domain.Post(nil), t.timeline.posts...)
}

func (t *Tracker) sweep() {
	ticker := time.NewTicker(trackerSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			t.evictIdle()
		case <-t.stop:
			return
		}
	}
}

// evictIdle drops every view that has not been tracked within the idle
// window, closing its subscriptions.
func (t *Tracker) evictIdle() {
	t.mu.Lock()
	defer t.mu.Unlock()
	cutoff := t.now().Add(-trackerIdleTTL)
	for id, e := range t.posts {
		if e.lastUsed.Before(cutoff) {
			e.cancel()
			delete(t.posts, id)
		}
	}
	for id, v := range t.members {
		if v.lastUsed.Before(cutoff) {
			v.cancel()
			delete(t.members, id)
		}
	}
	if t.timeline != nil && t.timeline.lastUsed.Before(cutoff) {
		t.timeline.cancel()
		t.timeline = nil
	}
}

// Close stops the sweeper and every subscription. The tracker is unusable
// afterwards.
func (t *Tracker) Close() {
	close(t.stop)
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, e := range t.posts {
		e.cancel()
		delete(t.posts, id)
	}
	for id, v := range t.members {
		v.cancel()
		delete(t.members, id)
	}
	if t.timeline != nil {
		t.timeline.cancel()
		t.timeline = nil
	}
}
