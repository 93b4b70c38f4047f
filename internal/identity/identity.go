// Package identity resolves bearer tokens into viewer snapshots.
package identity

import (
	"context"

	"github.com/ripple-app/ripple/shared/domain"
)

type Provider interface {
	Verify(ctx context.Context, idToken string) (domain.User, error)
}
