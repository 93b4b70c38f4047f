package domain

import "time"

// Post is one deed record. Author fields are a creation-time snapshot and
// never change afterwards; the only post-creation write is the rippleId
// backfill on a fresh root.
type Post struct {
	Id           string    `json:"id"`
	Author       User      `json:"author"`
	Text         string    `json:"text"`
	CreatedAt    time.Time `json:"createdAt"`
	RippleId     string    `json:"rippleId"`
	ParentPostId string    `json:"parentPostId,omitempty"` // empty for roots
	Generation   int       `json:"generation"`
	Recipients   []string  `json:"recipients"`
}

func (p Post) IsRoot() bool {
	return p.ParentPostId == ""
}

// PostDraft carries a post through the layers before the store has
// assigned an id and a server timestamp.
type PostDraft struct {
	Author       User
	Text         string
	Recipients   []string
	RippleId     string
	ParentPostId string
	Generation   int
}

// Placement is where a continuation lands inside its ripple group.
type Placement struct {
	RippleId     string
	ParentPostId string
	Generation   int
}
