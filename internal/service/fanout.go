package service

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/ripple-app/ripple/internal/notifier"
	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/logger"
)

const appName = "Ripple"

type FanoutStorage interface {
	GetPost(ctx context.Context, postId string) (domain.Post, error)
	PostsByRipple(ctx context.Context, rippleId string) ([]domain.Post, error)
}

// Fanout turns one accepted write into its notification sends. Delivery is
// best effort: a failed recipient is logged and skipped, it never aborts
// the remaining sends and never rolls back the write that triggered it.
type Fanout struct {
	storage  FanoutStorage
	notifier notifier.Notifier
	baseURL  string
}

func NewFanout(storage FanoutStorage, n notifier.Notifier, baseURL string) *Fanout {
	return &Fanout{storage: storage, notifier: n, baseURL: baseURL}
}

func (f *Fanout) rippleLink(rippleId, newPostId string) string {
	return fmt.Sprintf("%s/ripple/%s?new=%s", f.baseURL, rippleId, newPostId)
}

func (f *Fanout) postLink(postId string) string {
	return fmt.Sprintf("%s/post/%s", f.baseURL, postId)
}

func (f *Fanout) send(template, to string, params notifier.Params) {
	if err := f.notifier.Send(template, to, params); err != nil {
		logger.Log.Error("notification delivery failed",
			"template", template, "recipient", to, "error", err)
	}
}

// NotifyTagged mails every address the author tagged on the post.
// Duplicates are collapsed exactly, addresses are never normalized.
func (f *Fanout) NotifyTagged(post domain.Post) {
	for _, to := range lo.Uniq(post.Recipients) {
		f.send(notifier.TemplateTagged, to, notifier.Params{
			"from_name": post.Author.NameOrAnonymous(),
			"post_text": post.Text,
			"post_link": f.postLink(post.Id),
			"app_name":  appName,
		})
	}
}

// NotifyRippleUpdated mails everyone who authored an earlier post in the
// group, minus the new author and minus addresses already tagged on the
// new post. Membership is read fresh at send time, not from the snapshot
// the placement was resolved against.
func (f *Fanout) NotifyRippleUpdated(ctx context.Context, post domain.Post) {
	members, err := f.storage.PostsByRipple(ctx, post.RippleId)
	if err != nil {
		logger.Log.Error("ripple update fan-out skipped, membership read failed",
			"rippleId", post.RippleId, "postId", post.Id, "error", err)
		return
	}

	emails := lo.Uniq(lo.FilterMap(members, func(m domain.Post, _ int) (string, bool) {
		return m.Author.Email, m.Author.Email != ""
	}))
	recipients := lo.Filter(emails, func(email string, _ int) bool {
		return email != post.Author.Email && !lo.Contains(post.Recipients, email)
	})

	for _, to := range recipients {
		f.send(notifier.TemplateRippleUpdated, to, notifier.Params{
			"from_name": post.Author.NameOrAnonymous(),
			"post_text": post.Text,
			"post_link": f.rippleLink(post.RippleId, post.Id),
			"app_name":  appName,
		})
	}
}

// NotifyCommentOwner mails the post author about a new comment. Nothing is
// sent when the author's address is unknown or the author commented on
// their own post.
func (f *Fanout) NotifyCommentOwner(ctx context.Context, postId string, comment domain.Comment) {
	post, err := f.storage.GetPost(ctx, postId)
	if err != nil {
		logger.Log.Error("comment fan-out skipped, post read failed",
			"postId", postId, "error", err)
		return
	}

	owner := post.Author.Email
	if owner == "" || owner == comment.Author.Email {
		return
	}

	f.send(notifier.TemplateComment, owner, notifier.Params{
		"from_name":    comment.Author.NameOrAnonymous(),
		"to_name":      post.Author.NameOrAnonymous(),
		"comment_text": comment.Text,
		"post_link":    f.postLink(postId),
		"app_name":     appName,
	})
}
