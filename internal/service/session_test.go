package service

import (
	"errors"
	"testing"
	"time"

	"github.com/ripple-app/ripple/shared/domain"
)

func TestSessionMergeSupersedesById(t *testing.T) {
	sess := NewSession(time.Second)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	sess.Commit(domain.Post{Id: "p1", Text: "local", CreatedAt: base})
	sess.Commit(domain.Post{Id: "p2", Text: "local two", CreatedAt: base.Add(time.Second)})

	// Feed has not caught up yet: local copies render on top, newest first.
	merged := sess.Merge([]domain.Post{{Id: "p0", Text: "older"}})
	if len(merged) != 3 || merged[0].Id != "p2" || merged[1].Id != "p1" {
		t.Fatalf("merged = %+v", merged)
	}

	// The feed echoes p1 back: the live record wins and retires the local
	// copy for good.
	live := []domain.Post{{Id: "p1", Text: "from store"}, {Id: "p0"}}
	merged = sess.Merge(live)
	if len(merged) != 3 || merged[0].Id != "p2" {
		t.Fatalf("merged = %+v", merged)
	}
	for _, p := range merged {
		if p.Id == "p1" && p.Text != "from store" {
			t.Errorf("local copy outlived the live record: %+v", p)
		}
	}

	merged = sess.Merge(live)
	if len(merged) != 3 {
		t.Errorf("retired entry came back: %+v", merged)
	}
}

func TestSessionHighlightExpires(t *testing.T) {
	sess := NewSession(30 * time.Millisecond)
	sess.Commit(domain.Post{Id: "p1"})

	if sess.Highlight() != "p1" {
		t.Fatal("commit did not highlight")
	}
	waitFor(t, func() bool { return sess.Highlight() == "" }, "highlight never expired")
}

func TestSessionHighlightFollowsNewestCommit(t *testing.T) {
	sess := NewSession(50 * time.Millisecond)
	sess.Commit(domain.Post{Id: "p1"})
	sess.Commit(domain.Post{Id: "p2"})

	if sess.Highlight() != "p2" {
		t.Fatalf("highlight = %q", sess.Highlight())
	}
	// p1's expiry firing must not clear p2's window early, p2's own timer
	// does that later.
	waitFor(t, func() bool { return sess.Highlight() == "" }, "highlight never expired")
}

func TestSessionClearHighlightOnNavigation(t *testing.T) {
	sess := NewSession(time.Hour)
	sess.Commit(domain.Post{Id: "p1"})

	sess.ClearHighlight()
	if sess.Highlight() != "" {
		t.Error("navigation did not clear the highlight")
	}
}

func TestSessionSingleFlight(t *testing.T) {
	sess := NewSession(time.Second)

	if !sess.BeginSubmit() {
		t.Fatal("first submit rejected")
	}
	if sess.BeginSubmit() {
		t.Fatal("second submit admitted while one is in flight")
	}

	sess.Commit(domain.Post{Id: "p1"})
	if !sess.BeginSubmit() {
		t.Error("submit rejected after commit")
	}

	sess.Fail(errors.New("boom"))
	if !sess.BeginSubmit() {
		t.Error("submit rejected after failure")
	}
}

func TestSessionsPerViewer(t *testing.T) {
	sessions := NewSessions(time.Minute)

	a := sessions.Get("u1")
	a.Commit(domain.Post{Id: "p1"})
	b := sessions.Get("u2")
	if a == b {
		t.Fatal("viewers share a session")
	}
	if sessions.Get("u1") != a {
		t.Fatal("viewer with live publishing state got a new session")
	}
}

// Once the feed has echoed a viewer's posts back and the highlight window
// ended, their session holds nothing and the next lookup drops it.
func TestSessionsDropSettledViewers(t *testing.T) {
	sessions := NewSessions(time.Minute)

	a := sessions.Get("u1")
	a.Commit(domain.Post{Id: "p1"})
	a.Merge([]domain.Post{{Id: "p1"}})
	a.ClearHighlight()

	sessions.Get("u2")

	sessions.mu.Lock()
	_, kept := sessions.byViewer["u1"]
	sessions.mu.Unlock()
	if kept {
		t.Fatal("settled session kept")
	}
}
