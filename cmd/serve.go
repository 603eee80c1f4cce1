package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/grantshandy/starify/internal/auth"
	"github.com/grantshandy/starify/internal/server"
	"github.com/grantshandy/starify/internal/services"
	"github.com/grantshandy/starify/internal/session"
	"github.com/grantshandy/starify/internal/shared"
)

// Serve wires the provider, store, sessions and HTTP server from config and runs until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg := *r.config
	if cmd.IsSet("host") {
		cfg.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		cfg.Server.Port = int(cmd.Int("port"))
	}

	if err := cfg.Validate(); err != nil {
		return err
	}
	cfg.Spotify.RedirectURI = cfg.RedirectURL()

	provider := r.provider
	if provider == nil {
		svc, err := services.NewSpotifyService(cfg.Spotify, r.httpClient)
		if err != nil {
			return err
		}
		provider = svc
	}

	store, release, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	secret, generated, err := session.DecodeSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return err
	}
	if generated {
		r.logger.Warn("auth.session_secret is empty, sessions will not survive a restart")
	}
	sessions, err := session.NewIssuer(secret, cfg.Auth.SessionTTL.Std(), nil)
	if err != nil {
		return err
	}

	backend := auth.NewBackend(provider, store, auth.Options{
		StateTTL:      cfg.Auth.StateTTL.Std(),
		RefreshLeeway: cfg.Auth.RefreshLeeway.Std(),
		Logger:        shared.WithLogger(r.logger, "component", "auth"),
	})

	srv, err := server.New(server.Options{
		Backend:        backend,
		Sessions:       sessions,
		Config:         cfg.Server,
		ResolveTimeout: cfg.Auth.ResolveTimeout.Std(),
		LoginRate:      cfg.Auth.LoginRate,
		LoginBurst:     cfg.Auth.LoginBurst,
		Logger:         r.logger,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.logger.Info("starting starify",
		"addr", cfg.Server.Addr(),
		"redirect_uri", cfg.Spotify.RedirectURI,
		"store", cfg.Store.Backend,
	)
	if err := srv.ListenAndServe(ctx, cfg.Server.Addr()); err != nil {
		return fmt.Errorf("serve failed: %w", err)
	}
	return nil
}
