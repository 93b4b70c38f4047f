package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ripple-app/ripple/internal/middleware"
	"github.com/ripple-app/ripple/internal/service"
	"github.com/ripple-app/ripple/shared/api"
	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/errors"
)

// Mock services with overridable behavior per test

type MockPublisher struct {
	MockPublishRoot func(ctx context.Context, sess *service.Session, author domain.User, text, recipientLine string) (domain.Post, error)
	MockContinue    func(ctx context.Context, sess *service.Session, author domain.User, rippleId, text, recipientLine string) (domain.Post, error)
}

func (m *MockPublisher) PublishRoot(ctx context.Context, sess *service.Session, author domain.User, text, recipientLine string) (domain.Post, error) {
	if m.MockPublishRoot != nil {
		return m.MockPublishRoot(ctx, sess, author, text, recipientLine)
	}
	return domain.Post{}, nil
}

func (m *MockPublisher) Continue(ctx context.Context, sess *service.Session, author domain.User, rippleId, text, recipientLine string) (domain.Post, error) {
	if m.MockContinue != nil {
		return m.MockContinue(ctx, sess, author, rippleId, text, recipientLine)
	}
	return domain.Post{}, nil
}

type MockRipples struct {
	MockMembers func(ctx context.Context, rippleId string) ([]domain.Post, error)
}

func (m *MockRipples) Members(ctx context.Context, rippleId string) ([]domain.Post, error) {
	if m.MockMembers != nil {
		return m.MockMembers(ctx, rippleId)
	}
	return nil, nil
}

type MockReactions struct {
	MockToggleLike    func(ctx context.Context, postId string, viewer domain.User) (bool, error)
	MockSubmitComment func(ctx context.Context, postId string, viewer domain.User, text string) (domain.Comment, error)
	MockComments      func(ctx context.Context, postId string) ([]domain.Comment, error)
}

func (m *MockReactions) ToggleLike(ctx context.Context, postId string, viewer domain.User) (bool, error) {
	if m.MockToggleLike != nil {
		return m.MockToggleLike(ctx, postId, viewer)
	}
	return false, nil
}

func (m *MockReactions) SubmitComment(ctx context.Context, postId string, viewer domain.User, text string) (domain.Comment, error) {
	if m.MockSubmitComment != nil {
		return m.MockSubmitComment(ctx, postId, viewer, text)
	}
	return domain.Comment{}, nil
}

func (m *MockReactions) Comments(ctx context.Context, postId string) ([]domain.Comment, error) {
	if m.MockComments != nil {
		return m.MockComments(ctx, postId)
	}
	return nil, nil
}

// MockTracker serves fixed aggregates and live-view snapshots.
type MockTracker struct {
	Likes            map[string]int
	LikedBy          map[string]string // postId -> userId with a mark
	Comment          map[string][]domain.Comment
	Members          map[string][]domain.Post
	Feed             []domain.Post
	TrackErr         error
	TrackRippleErr   error
	TrackTimelineErr error
}

func (m *MockTracker) Track(context.Context, string) error { return m.TrackErr }

func (m *MockTracker) LikeCount(postId string) int { return m.Likes[postId] }

func (m *MockTracker) HasLiked(postId, userId string) bool { return m.LikedBy[postId] == userId }

func (m *MockTracker) Comments(postId string) []domain.Comment { return m.Comment[postId] }

func (m *MockTracker) TrackRipple(context.Context, string) error { return m.TrackRippleErr }

func (m *MockTracker) RippleMembers(rippleId string) []domain.Post { return m.Members[rippleId] }

func (m *MockTracker) TrackTimeline(context.Context) error { return m.TrackTimelineErr }

func (m *MockTracker) Timeline() []domain.Post { return m.Feed }

type MockFeed struct {
	MockTimeline func(ctx context.Context) ([]domain.Post, error)
	MockGetPost  func(ctx context.Context, postId string) (domain.Post, error)
}

func (m *MockFeed) Timeline(ctx context.Context) ([]domain.Post, error) {
	if m.MockTimeline != nil {
		return m.MockTimeline(ctx)
	}
	return nil, nil
}

func (m *MockFeed) GetPost(ctx context.Context, postId string) (domain.Post, error) {
	if m.MockGetPost != nil {
		return m.MockGetPost(ctx, postId)
	}
	return domain.Post{}, nil
}

type testDeps struct {
	publisher *MockPublisher
	ripples   *MockRipples
	reactions *MockReactions
	tracker   *MockTracker
	feed      *MockFeed
	sessions  *service.Sessions
}

func setupTestHandler(deps testDeps) *chi.Mux {
	if deps.publisher == nil {
		deps.publisher = &MockPublisher{}
	}
	if deps.ripples == nil {
		deps.ripples = &MockRipples{}
	}
	if deps.reactions == nil {
		deps.reactions = &MockReactions{}
	}
	if deps.tracker == nil {
		deps.tracker = &MockTracker{}
	}
	if deps.feed == nil {
		deps.feed = &MockFeed{}
	}
	if deps.sessions == nil {
		deps.sessions = service.NewSessions(time.Second)
	}
	h := New(deps.publisher, deps.ripples, deps.reactions, deps.tracker, deps.feed, deps.sessions)

	r := chi.NewRouter()
	r.Get("/v1/health", h.Health)
	r.Get("/v1/timeline", h.Timeline)
	r.Post("/v1/posts", h.CreatePost)
	r.Get("/v1/posts/{post}", h.GetPost)
	r.Post("/v1/posts/{post}/likes", h.ToggleLike)
	r.Post("/v1/posts/{post}/comments", h.CreateComment)
	r.Get("/v1/posts/{post}/comments", h.GetComments)
	r.Get("/v1/ripples/{ripple}", h.GetRipple)
	r.Post("/v1/ripples/{ripple}/posts", h.ContinueRipple)
	return r
}

func asViewer(req *http.Request, viewer domain.User) *http.Request {
	return req.WithContext(middleware.WithViewer(req.Context(), viewer))
}

func TestHealth(t *testing.T) {
	router := setupTestHandler(testDeps{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
}

func TestTimeline(t *testing.T) {
	posts := []domain.Post{
		{Id: "p2", Text: "newer"},
		{Id: "p1", Text: "older"},
	}

	t.Run("live view", func(t *testing.T) {
		tracker := &MockTracker{
			Feed:    posts,
			Likes:   map[string]int{"p2": 3},
			LikedBy: map[string]string{"p2": "u1"},
			Comment: map[string][]domain.Comment{"p1": {{Id: "c1"}}},
		}
		router := setupTestHandler(testDeps{tracker: tracker})

		req := asViewer(httptest.NewRequest(http.MethodGet, "/v1/timeline", nil), domain.User{Id: "u1"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.TimelineResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Posts, 2)
		assert.Equal(t, "p2", resp.Posts[0].Id)
		assert.Equal(t, 3, resp.Posts[0].LikeCount)
		assert.True(t, resp.Posts[0].ViewerLiked)
		assert.Equal(t, 1, resp.Posts[1].CommentCount)
	})

	t.Run("one-shot fallback when the watch fails", func(t *testing.T) {
		router := setupTestHandler(testDeps{
			tracker: &MockTracker{TrackTimelineErr: context.DeadlineExceeded},
			feed:    &MockFeed{MockTimeline: func(context.Context) ([]domain.Post, error) { return posts, nil }},
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/timeline", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.TimelineResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Posts, 2)
		assert.Equal(t, "p2", resp.Posts[0].Id)
	})
}

func TestTimelineMergesOptimisticPosts(t *testing.T) {
	sessions := service.NewSessions(time.Hour)
	publisher := &MockPublisher{
		MockPublishRoot: func(_ context.Context, sess *service.Session, author domain.User, text, _ string) (domain.Post, error) {
			post := domain.Post{Id: "local-1", Author: author, Text: text, CreatedAt: time.Now()}
			sess.Commit(post)
			return post, nil
		},
	}
	router := setupTestHandler(testDeps{
		publisher: publisher,
		sessions:  sessions,
		// Live feed lags: the fresh post is not in it yet.
		tracker: &MockTracker{Feed: []domain.Post{{Id: "p1"}}},
	})

	viewer := domain.User{Id: "u1", DisplayName: "Maya"}
	body := []byte(`{"text": "did a deed", "recipients": "a@example.com"}`)
	req := asViewer(httptest.NewRequest(http.MethodPost, "/v1/posts", bytes.NewReader(body)), viewer)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = asViewer(httptest.NewRequest(http.MethodGet, "/v1/timeline", nil), viewer)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp api.TimelineResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Posts, 2)
	assert.Equal(t, "local-1", resp.Posts[0].Id)
	assert.True(t, resp.Posts[0].Highlighted)
}

func TestCreatePost(t *testing.T) {
	viewer := domain.User{Id: "u1", DisplayName: "Maya"}

	t.Run("successful request", func(t *testing.T) {
		publisher := &MockPublisher{
			MockPublishRoot: func(_ context.Context, _ *service.Session, author domain.User, text, recipientLine string) (domain.Post, error) {
				assert.Equal(t, viewer, author)
				assert.Equal(t, "did a deed", text)
				assert.Equal(t, "a@example.com", recipientLine)
				return domain.Post{Id: "p1", Author: author, Text: text, RippleId: "p1"}, nil
			},
		}
		router := setupTestHandler(testDeps{publisher: publisher})

		body := []byte(`{"text": "did a deed", "recipients": "a@example.com"}`)
		req := asViewer(httptest.NewRequest(http.MethodPost, "/v1/posts", bytes.NewReader(body)), viewer)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp api.CreatePostResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "p1", resp.Post.Id)
	})

	t.Run("invalid json", func(t *testing.T) {
		router := setupTestHandler(testDeps{})

		req := asViewer(httptest.NewRequest(http.MethodPost, "/v1/posts", bytes.NewReader([]byte(`{bad json`))), viewer)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Body is invalid json")
	})

	t.Run("missing recipients field", func(t *testing.T) {
		router := setupTestHandler(testDeps{})

		req := asViewer(httptest.NewRequest(http.MethodPost, "/v1/posts", bytes.NewReader([]byte(`{"text": "x"}`))), viewer)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("service validation error", func(t *testing.T) {
		publisher := &MockPublisher{
			MockPublishRoot: func(context.Context, *service.Session, domain.User, string, string) (domain.Post, error) {
				return domain.Post{}, errors.Validation("%q is not a valid email address", "bad")
			},
		}
		router := setupTestHandler(testDeps{publisher: publisher})

		body := []byte(`{"text": "x", "recipients": "bad"}`)
		req := asViewer(httptest.NewRequest(http.MethodPost, "/v1/posts", bytes.NewReader(body)), viewer)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "not a valid email address")
	})
}

func TestGetPost(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		router := setupTestHandler(testDeps{
			feed: &MockFeed{MockGetPost: func(_ context.Context, postId string) (domain.Post, error) {
				assert.Equal(t, "p1", postId)
				return domain.Post{Id: "p1", Text: "hello"}, nil
			}},
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/posts/p1", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.PostResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "hello", resp.Text)
	})

	t.Run("missing", func(t *testing.T) {
		router := setupTestHandler(testDeps{
			feed: &MockFeed{MockGetPost: func(context.Context, string) (domain.Post, error) {
				return domain.Post{}, errors.NotFound
			}},
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/posts/nope", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestToggleLike(t *testing.T) {
	reactions := &MockReactions{
		MockToggleLike: func(_ context.Context, postId string, viewer domain.User) (bool, error) {
			assert.Equal(t, "p1", postId)
			assert.Equal(t, "u1", viewer.Id)
			return true, nil
		},
	}
	router := setupTestHandler(testDeps{reactions: reactions})

	req := asViewer(httptest.NewRequest(http.MethodPost, "/v1/posts/p1/likes", nil), domain.User{Id: "u1"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var resp api.ToggleLikeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Liked)
}

func TestComments(t *testing.T) {
	t.Run("create", func(t *testing.T) {
		reactions := &MockReactions{
			MockSubmitComment: func(_ context.Context, postId string, viewer domain.User, text string) (domain.Comment, error) {
				return domain.Comment{Id: "c1", Author: viewer, Text: text}, nil
			},
		}
		router := setupTestHandler(testDeps{reactions: reactions})

		body := []byte(`{"text": "nice"}`)
		req := asViewer(httptest.NewRequest(http.MethodPost, "/v1/posts/p1/comments", bytes.NewReader(body)), domain.User{Id: "u1"})
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusCreated, rr.Code)
		var resp api.CreateCommentResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "c1", resp.Comment.Id)
	})

	t.Run("list", func(t *testing.T) {
		reactions := &MockReactions{
			MockComments: func(context.Context, string) ([]domain.Comment, error) {
				return []domain.Comment{{Id: "c1", Text: "first"}, {Id: "c2", Text: "second"}}, nil
			},
		}
		router := setupTestHandler(testDeps{reactions: reactions})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/posts/p1/comments", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.CommentsResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Comments, 2)
		assert.Equal(t, "first", resp.Comments[0].Text)
	})
}

func TestGetRipple(t *testing.T) {
	posts := []domain.Post{
		{Id: "p3", Author: domain.User{Id: "u1"}, Generation: 2},
		{Id: "p2", Author: domain.User{Id: "u2"}, Generation: 1},
		{Id: "p1", Author: domain.User{Id: "u1"}, Generation: 0},
	}

	t.Run("summary counts from the live view", func(t *testing.T) {
		router := setupTestHandler(testDeps{
			tracker: &MockTracker{Members: map[string][]domain.Post{"p1": posts}},
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ripples/p1", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.RippleResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp.Posts, 3)
		assert.Equal(t, 2, resp.Participants)
		assert.Equal(t, 3, resp.Generations)
	})

	t.Run("one-shot fallback when the watch fails", func(t *testing.T) {
		router := setupTestHandler(testDeps{
			tracker: &MockTracker{TrackRippleErr: context.DeadlineExceeded},
			ripples: &MockRipples{MockMembers: func(_ context.Context, rippleId string) ([]domain.Post, error) {
				assert.Equal(t, "p1", rippleId)
				return posts, nil
			}},
		})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ripples/p1", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.RippleResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp.Posts, 3)
	})

	t.Run("unknown ripple", func(t *testing.T) {
		router := setupTestHandler(testDeps{})

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ripples/nope", nil))

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestContinueRipple(t *testing.T) {
	publisher := &MockPublisher{
		MockContinue: func(_ context.Context, _ *service.Session, author domain.User, rippleId, text, _ string) (domain.Post, error) {
			assert.Equal(t, "p1", rippleId)
			return domain.Post{Id: "p2", Author: author, Text: text, RippleId: rippleId, ParentPostId: "p1", Generation: 1}, nil
		},
	}
	router := setupTestHandler(testDeps{publisher: publisher})

	body := []byte(`{"text": "passing it on", "recipients": "b@example.com"}`)
	req := asViewer(httptest.NewRequest(http.MethodPost, "/v1/ripples/p1/posts", bytes.NewReader(body)), domain.User{Id: "u2"})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var resp api.CreatePostResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Post.Generation)
	assert.Equal(t, "p1", resp.Post.ParentPostId)
}
