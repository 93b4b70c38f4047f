package service

import (
	"sort"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/ripple-app/ripple/shared/domain"
)

// State is where a publish attempt currently stands. A session moves
// Idle -> Submitting -> Committed or Failed; Committed and Failed both
// allow the next attempt.
type State string

const (
	StateIdle       State = "idle"
	StateSubmitting State = "submitting"
	StateCommitted  State = "committed"
	StateFailed     State = "failed"
)

// Session is one viewer's publishing state: the attempt state machine,
// locally committed posts the live feed has not echoed back yet, and the
// transient highlight on the newest own post.
type Session struct {
	mu           sync.Mutex
	state        State
	lastError    string
	optimistic   map[string]domain.Post
	highlight    string
	highlightTTL time.Duration
}

func NewSession(highlightTTL time.Duration) *Session {
	return &Session{
		state:        StateIdle,
		optimistic:   make(map[string]domain.Post),
		highlightTTL: highlightTTL,
	}
}

func (s *Session) State() (State, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, s.lastError
}

// BeginSubmit admits one attempt at a time per session.
func (s *Session) BeginSubmit() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSubmitting {
		return false
	}
	s.state = StateSubmitting
	s.lastError = ""
	return true
}

// Commit records the accepted post under its store id and highlights it.
// A failed attempt leaves no optimistic entry behind.
func (s *Session) Commit(post domain.Post) {
	s.mu.Lock()
	s.state = StateCommitted
	s.optimistic[post.Id] = post
	s.highlight = post.Id
	s.mu.Unlock()

	id := post.Id
	time.AfterFunc(s.highlightTTL, func() {
		s.mu.Lock()
		if s.highlight == id {
			s.highlight = ""
		}
		s.mu.Unlock()
	})
}

func (s *Session) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateFailed
	s.lastError = err.Error()
}

// Merge folds the session's optimistic posts into a live snapshot. A live
// record with the same id supersedes the local copy and retires it; posts
// the feed has not caught up to yet are kept on top, newest first.
func (s *Session) Merge(live []domain.Post) []domain.Post {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range live {
		delete(s.optimistic, p.Id)
	}
	if len(s.optimistic) == 0 {
		return live
	}

	pending := lo.Values(s.optimistic)
	sort.Slice(pending, func(i, j int) bool { return pending[i].CreatedAt.After(pending[j].CreatedAt) })
	return append(pending, live...)
}

// Highlight is the post id to render highlighted, empty once the window
// elapsed or navigation cleared it.
func (s *Session) Highlight() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.highlight
}

// ClearHighlight ends the window early, on navigation away.
func (s *Session) ClearHighlight() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.highlight = ""
}

// settled reports whether the session carries no state worth keeping: no
// attempt in flight, no optimistic posts the feed still owes, no active
// highlight.
func (s *Session) settled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateSubmitting && len(s.optimistic) == 0 && s.highlight == ""
}

// Sessions hands out one session per viewer.
type Sessions struct {
	mu           sync.Mutex
	byViewer     map[string]*Session
	highlightTTL time.Duration
}

func NewSessions(highlightTTL time.Duration) *Sessions {
	return &Sessions{byViewer: make(map[string]*Session), highlightTTL: highlightTTL}
}

// Get returns the viewer's session, creating it on first use. Settled
// sessions of other viewers are dropped on the way, keeping the map
// bounded by the viewers with live publishing state.
func (s *Sessions) Get(viewerId string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.byViewer {
		if id != viewerId && sess.settled() {
			delete(s.byViewer, id)
		}
	}
	sess, ok := s.byViewer[viewerId]
	if !ok {
		sess = NewSession(s.highlightTTL)
		s.byViewer[viewerId] = sess
	}
	return sess
}
