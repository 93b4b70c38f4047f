package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/errors"
)

var (
	recipientSplit = regexp.MustCompile(`[,\s;]+`)
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// ParseRecipients splits a free-form recipient line into addresses.
// At least one address is required and the first invalid one is named in
// the error.
func ParseRecipients(raw string) ([]string, error) {
	parts := recipientSplit.Split(strings.TrimSpace(raw), -1)
	addresses := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if !emailPattern.MatchString(p) {
			return nil, errors.Validation("%q is not a valid email address", p)
		}
		addresses = append(addresses, p)
	}
	if len(addresses) == 0 {
		return nil, errors.Validation("tag at least one recipient")
	}
	return addresses, nil
}

type PublisherStorage interface {
	CreatePost(ctx context.Context, draft domain.PostDraft) (string, error)
	PostsByRipple(ctx context.Context, rippleId string) ([]domain.Post, error)
}

// Publisher runs the optimistic publish workflow for roots and
// continuations. The write commits first; every notification send happens
// after and detached, so a dead mail server can not undo a published post.
type Publisher struct {
	storage PublisherStorage
	ripples *Ripple
	fanout  *Fanout
}

func NewPublisher(storage PublisherStorage, ripples *Ripple, fanout *Fanout) *Publisher {
	return &Publisher{storage: storage, ripples: ripples, fanout: fanout}
}

func validateDraft(author domain.User, text string) error {
	if author.Id == "" {
		return errors.Validation("sign in to publish")
	}
	if strings.TrimSpace(text) == "" {
		return errors.Validation("describe your deed first")
	}
	return nil
}

// PublishRoot starts a new ripple: the post is written without a group id,
// then patched with its own id as the group id. Between the two writes the
// post exists but is not queryable as part of any ripple.
func (p *Publisher) PublishRoot(ctx context.Context, sess *Session, author domain.User, text, recipientLine string) (domain.Post, error) {
	if err := validateDraft(author, text); err != nil {
		return domain.Post{}, err
	}
	recipients, err := ParseRecipients(recipientLine)
	if err != nil {
		return domain.Post{}, err
	}
	if !sess.BeginSubmit() {
		return domain.Post{}, errors.Validation("a publish is already in flight")
	}

	id, err := p.storage.CreatePost(ctx, domain.PostDraft{
		Author:     author,
		Text:       text,
		Recipients: recipients,
	})
	if err != nil {
		sess.Fail(err)
		return domain.Post{}, err
	}
	if err := p.ripples.AssignRoot(ctx, id); err != nil {
		sess.Fail(err)
		return domain.Post{}, err
	}

	post := domain.Post{
		Id:         id,
		Author:     author,
		Text:       text,
		CreatedAt:  time.Now().UTC(),
		RippleId:   id,
		Generation: 0,
		Recipients: recipients,
	}
	sess.Commit(post)
	go p.fanout.NotifyTagged(post)
	return post, nil
}

// Continue adds a post to an existing ripple. Placement comes from a fresh
// membership read taken now; a concurrent writer working from the same
// snapshot may land on the same parent and generation, and both posts
// stand.
func (p *Publisher) Continue(ctx context.Context, sess *Session, author domain.User, rippleId, text, recipientLine string) (domain.Post, error) {
	if err := validateDraft(author, text); err != nil {
		return domain.Post{}, err
	}
	recipients, err := ParseRecipients(recipientLine)
	if err != nil {
		return domain.Post{}, err
	}
	if !sess.BeginSubmit() {
		return domain.Post{}, errors.Validation("a publish is already in flight")
	}

	members, err := p.storage.PostsByRipple(ctx, rippleId)
	if err != nil {
		sess.Fail(err)
		return domain.Post{}, err
	}
	placement, err := p.ripples.ResolveContinuation(rippleId, members)
	if err != nil {
		sess.Fail(err)
		return domain.Post{}, err
	}

	id, err := p.storage.CreatePost(ctx, domain.PostDraft{
		Author:       author,
		Text:         text,
		Recipients:   recipients,
		RippleId:     placement.RippleId,
		ParentPostId: placement.ParentPostId,
		Generation:   placement.Generation,
	})
	if err != nil {
		sess.Fail(err)
		return domain.Post{}, err
	}

	post := domain.Post{
		Id:           id,
		Author:       author,
		Text:         text,
		CreatedAt:    time.Now().UTC(),
		RippleId:     placement.RippleId,
		ParentPostId: placement.ParentPostId,
		Generation:   placement.Generation,
		Recipients:   recipients,
	}
	sess.Commit(post)
	go p.fanout.NotifyTagged(post)
	go p.fanout.NotifyRippleUpdated(context.Background(), post)
	return post, nil
}
