package identity

import (
	"context"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/ripple-app/ripple/shared/domain"
)

// Firebase verifies ID tokens against a Firebase project and maps the
// token claims onto a viewer snapshot.
type Firebase struct {
	auth *auth.Client
}

func NewFirebase(ctx context.Context, credentialsPath string) (*Firebase, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("firebase credentials path not provided")
	}
	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting firebase auth client: %w", err)
	}
	return &Firebase{auth: client}, nil
}

func (f *Firebase) Verify(ctx context.Context, idToken string) (domain.User, error) {
	token, err := f.auth.VerifyIDToken(ctx, idToken)
	if err != nil {
		return domain.User{}, err
	}
	return userFromClaims(token), nil
}

// userFromClaims keeps absent claims absent: a missing email stays empty
// and downstream treats it as unknown.
func userFromClaims(token *auth.Token) domain.User {
	u := domain.User{Id: token.UID}
	if name, ok := token.Claims["name"].(string); ok {
		u.DisplayName = name
	}
	if picture, ok := token.Claims["picture"].(string); ok {
		u.PhotoURL = picture
	}
	if email, ok := token.Claims["email"].(string); ok {
		u.Email = email
	}
	return u
}
