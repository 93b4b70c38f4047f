// Package middleware carries the request-scoped viewer identity.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ripple-app/ripple/internal/identity"
	"github.com/ripple-app/ripple/shared/domain"
)

// Key to store the viewer in the request context
type key int

const viewerKey key = 0

type Auth struct {
	provider identity.Provider
}

func NewAuth(provider identity.Provider) *Auth {
	return &Auth{provider: provider}
}

// RequireViewer rejects requests without a valid bearer token.
func (a *Auth) RequireViewer() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			viewer, err := a.extractViewer(r)
			if err != nil {
				http.Error(w, "Please sign-in", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), viewerKey, viewer)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func (a *Auth) extractViewer(r *http.Request) (domain.User, error) {
	token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !found || token == "" {
		return domain.User{}, errNoToken
	}
	return a.provider.Verify(r.Context(), token)
}

var errNoToken = errorString("no token")

type errorString string

func (e errorString) Error() string { return string(e) }

// WithViewer returns a context carrying the viewer, the same way the auth
// middleware stores it.
func WithViewer(ctx context.Context, viewer domain.User) context.Context {
	return context.WithValue(ctx, viewerKey, viewer)
}

// GetViewer retrieves the viewer stored by the auth middleware. The zero
// user means the request is anonymous.
func GetViewer(r *http.Request) domain.User {
	viewer, _ := r.Context().Value(viewerKey).(domain.User)
	return viewer
}
