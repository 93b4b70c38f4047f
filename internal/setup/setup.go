// Package setup wires configuration into the object graph the server runs.
package setup

import (
	"context"
	"fmt"

	"github.com/ripple-app/ripple/internal/handler"
	"github.com/ripple-app/ripple/internal/identity"
	"github.com/ripple-app/ripple/internal/middleware"
	"github.com/ripple-app/ripple/internal/notifier"
	"github.com/ripple-app/ripple/internal/service"
	"github.com/ripple-app/ripple/internal/storage/docstore"
	"github.com/ripple-app/ripple/internal/store"
	"github.com/ripple-app/ripple/internal/store/firestore"
	"github.com/ripple-app/ripple/internal/store/memory"
	"github.com/ripple-app/ripple/shared/config"
	"github.com/ripple-app/ripple/shared/logger"
)

// Dependencies holds all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Store   store.Store
	Storage *docstore.Storage
	Tracker *service.Tracker
	Handler *handler.Handler
	Auth    *middleware.Auth
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	st, err := newStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	storage := docstore.New(st)

	n, err := newNotifier(cfg)
	if err != nil {
		return nil, err
	}
	provider, err := newIdentity(ctx, cfg)
	if err != nil {
		return nil, err
	}

	ripples := service.NewRipple(storage)
	feed := service.NewFeed(storage)
	fanout := service.NewFanout(storage, n, cfg.Public.BaseURL)
	reactions := service.NewReactions(storage, fanout)
	tracker := service.NewTracker(reactions, ripples, feed)
	publisher := service.NewPublisher(storage, ripples, fanout)
	sessions := service.NewSessions(cfg.HighlightTTL())

	h := handler.New(publisher, ripples, reactions, tracker, feed, sessions)

	return &Dependencies{
		Config:  cfg,
		Store:   st,
		Storage: storage,
		Tracker: tracker,
		Handler: h,
		Auth:    middleware.NewAuth(provider),
	}, nil
}

func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	switch cfg.Public.Store.Driver {
	case "firestore":
		return firestore.New(ctx, cfg.Public.Store.ProjectID, cfg.Private.FirebaseCredentials)
	case "memory", "":
		logger.Log.Warn("using in-memory store, data is lost on restart")
		return memory.New(), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Public.Store.Driver)
	}
}

func newNotifier(cfg *config.Config) (notifier.Notifier, error) {
	switch cfg.Public.Notifier {
	case "smtp":
		return notifier.NewSMTP(&cfg.Private.Email), nil
	case "log", "":
		return notifier.NewLog(), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Public.Notifier)
	}
}

func newIdentity(ctx context.Context, cfg *config.Config) (identity.Provider, error) {
	if cfg.Private.FirebaseCredentials != "" {
		return identity.NewFirebase(ctx, cfg.Private.FirebaseCredentials)
	}
	logger.Log.Warn("no firebase credentials configured, using debug identity")
	return identity.Debug{}, nil
}
