package domain

import "time"

// LikeMark is a membership record: its existence means "liked". The user
// id is the record key, which is what rules out duplicates.
type LikeMark struct {
	PostId  string
	UserId  string
	LikedAt time.Time
}
