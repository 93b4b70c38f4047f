package docstore

import (
	"time"

	"github.com/ripple-app/ripple/internal/store"
	"github.com/ripple-app/ripple/shared/domain"
)

// Wire field names match the records already in the store; renaming any of
// them would orphan the existing population.
//
// Posts have grown fields over time: recipients used to be a single
// "recipient" value, generation and authorEmail are absent on the oldest
// records, and some old reaction timestamps were written as epoch
// milliseconds instead of native timestamps. Decoding tolerates all of it.

func postFields(d domain.PostDraft) store.Fields {
	f := store.Fields{
		"uid":          d.Author.Id,
		"displayName":  d.Author.DisplayName,
		"photoURL":     d.Author.PhotoURL,
		"authorEmail":  d.Author.Email,
		"text":         d.Text,
		"timestamp":    store.ServerTimestamp,
		"recipients":   append([]string(nil), d.Recipients...),
		"rippleId":     d.RippleId,
		"parentPostId": d.ParentPostId,
		"generation":   int64(d.Generation),
	}
	// Legacy readers still look at the singular field.
	if len(d.Recipients) > 0 {
		f["recipient"] = d.Recipients[0]
	}
	return f
}

func postFromRecord(rec store.Record) domain.Post {
	d := rec.Data
	p := domain.Post{
		Id: rec.Id,
		Author: domain.User{
			Id:          str(d["uid"]),
			DisplayName: str(d["displayName"]),
			PhotoURL:    str(d["photoURL"]),
			Email:       str(d["authorEmail"]),
		},
		Text:         str(d["text"]),
		CreatedAt:    timestamp(d["timestamp"]),
		RippleId:     str(d["rippleId"]),
		ParentPostId: str(d["parentPostId"]),
		Generation:   integer(d["generation"]),
	}
	p.Recipients = strs(d["recipients"])
	if len(p.Recipients) == 0 {
		if r := str(d["recipient"]); r != "" {
			p.Recipients = []string{r}
		}
	}
	return p
}

func postsFromRecords(recs []store.Record) []domain.Post {
	out := make([]domain.Post, 0, len(recs))
	for _, rec := range recs {
		out = append(out, postFromRecord(rec))
	}
	return out
}

func commentFields(d domain.CommentDraft) store.Fields {
	return store.Fields{
		"uid":         d.Author.Id,
		"displayName": d.Author.NameOrAnonymous(),
		"photoURL":    d.Author.PhotoURL,
		"text":        d.Text,
		"timestamp":   store.ServerTimestamp,
	}
}

func commentFromRecord(rec store.Record) domain.Comment {
	d := rec.Data
	return domain.Comment{
		Id: rec.Id,
		Author: domain.User{
			Id:          str(d["uid"]),
			DisplayName: str(d["displayName"]),
			PhotoURL:    str(d["photoURL"]),
		},
		Text:      str(d["text"]),
		CreatedAt: timestamp(d["timestamp"]),
	}
}

func likesFromRecords(postId string, recs []store.Record) []domain.LikeMark {
	out := make([]domain.LikeMark, 0, len(recs))
	for _, rec := range recs {
		out = append(out, domain.LikeMark{
			PostId:  postId,
			UserId:  rec.Id,
			LikedAt: timestamp(rec.Data["likedAt"]),
		})
	}
	return out
}

func commentsFromRecords(recs []store.Record) []domain.Comment {
	out := make([]domain.Comment, 0, len(recs))
	for _, rec := range recs {
		out = append(out, commentFromRecord(rec))
	}
	return out
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func integer(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// timestamp accepts native timestamps and the epoch-millisecond numbers
// older reaction records were written with.
func timestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case int64:
		return time.UnixMilli(t).UTC()
	case float64:
		return time.UnixMilli(int64(t)).UTC()
	default:
		return time.Time{}
	}
}

// strs accepts both []string and the []any shape the hosted backend
// returns for arrays.
func strs(v any) []string {
	switch vs := v.(type) {
	case []string:
		return append([]string(nil), vs...)
	case []any:
		out := make([]string, 0, len(vs))
		for _, e := range vs {
			if s, ok := e.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	default:
		return nil
	}
}
