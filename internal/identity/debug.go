package identity

import (
	"context"
	"strings"

	"github.com/ripple-app/ripple/shared/domain"
	"github.com/ripple-app/ripple/shared/errors"
)

// Debug accepts tokens of the form "uid[:display name[:email]]" verbatim.
// Local development only; never wire it to a reachable deployment.
type Debug struct{}

func (Debug) Verify(_ context.Context, idToken string) (domain.User, error) {
	parts := strings.SplitN(idToken, ":", 3)
	if parts[0] == "" {
		return domain.User{}, errors.Validation("empty debug token")
	}
	u := domain.User{Id: parts[0]}
	if len(parts) > 1 {
		u.DisplayName = parts[1]
	}
	if len(parts) > 2 {
		u.Email = parts[2]
	}
	return u, nil
}
