package domain

import "time"

// Comment is an append-only entry under one post, ordered by CreatedAt
// ascending.
type Comment struct {
	Id        string    `json:"id"`
	Author    User      `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

type CommentDraft struct {
	Author User
	Text   string
}
