// Package app assembles the client application: configuration, token store,
// wire clients and the session machine, wired together once per process.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dayplanhq/dayplan-cli/internal/authapi"
	"github.com/dayplanhq/dayplan-cli/internal/config"
	"github.com/dayplanhq/dayplan-cli/internal/request"
	"github.com/dayplanhq/dayplan-cli/internal/schedule"
	"github.com/dayplanhq/dayplan-cli/internal/serviceerr"
	"github.com/dayplanhq/dayplan-cli/internal/session"
	"github.com/dayplanhq/dayplan-cli/internal/telegram"
	"github.com/dayplanhq/dayplan-cli/internal/token"
)

// App is the process-wide handle: every command observes and drives the
// session through the one Session machine held here.
type App struct {
	Config   *config.Config
	Tokens   token.Store
	Session  *session.Machine
	Schedule *schedule.Client
	Telegram *telegram.Client
}

func New(cfg *config.Config) (*App, error) {
	store, err := token.NewFileStore(cfg.Storage.Dir)
	if err != nil {
		return nil, fmt.Errorf("opening token store: %w", err)
	}

	api, err := authapi.NewClient(cfg.Server.BaseURL, &http.Client{Timeout: cfg.Server.Timeout})
	if err != nil {
		return nil, fmt.Errorf("creating auth client: %w", err)
	}

	machine := session.NewMachine(api, store)
	authed := request.NewClient(store, machine, cfg.Server, cfg.Request)

	sched, err := schedule.NewClient(cfg.Server.BaseURL, authed, cfg.Cache.AgendaTTL)
	if err != nil {
		return nil, fmt.Errorf("creating schedule client: %w", err)
	}

	tg, err := telegram.NewClient(cfg.Server.BaseURL, authed)
	if err != nil {
		return nil, fmt.Errorf("creating telegram client: %w", err)
	}

	return &App{
		Config:   cfg,
		Tokens:   store,
		Session:  machine,
		Schedule: sched,
		Telegram: tg,
	}, nil
}

// Close tears the session machine down; in-flight results are discarded.
func (a *App) Close() {
	a.Session.Close()
}

// RequireSession hydrates and insists on an authenticated session.
func (a *App) RequireSession(ctx context.Context) (session.Snapshot, error) {
	snap, err := a.Session.Hydrate(ctx)
	if err != nil {
		return snap, fmt.Errorf("hydrating session: %w", err)
	}
	if !snap.Authenticated() {
		return snap, fmt.Errorf("%w: run `dayplan login` first", serviceerr.ErrNotAuthenticated)
	}
	return snap, nil
}
