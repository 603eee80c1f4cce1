package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/grantshandy/starify/internal/auth"
	"github.com/grantshandy/starify/internal/formatter"
	"github.com/grantshandy/starify/internal/models"
	"github.com/grantshandy/starify/internal/services"
	"github.com/grantshandy/starify/internal/shared"
)

// artistsCommand exports a stored user's top artists
func artistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "artists",
		Usage: "Export a stored user's top artists, refreshing their token if needed",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Aliases:  []string{"u"},
				Usage:    "Spotify user id",
				Required: true,
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Number of artists (1-50)",
				Value: 20,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: csv, md, text",
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to a file instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "save",
				Usage: "Write to {user}_artists.{ext}",
			},
		},
		Action: r.Artists,
	}
}

// Artists resolves the user's stored credential and renders their top artists.
func (r *Runner) Artists(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	limit := int(cmd.Int("limit"))
	if limit < 1 || limit > 50 {
		return fmt.Errorf("%w: --limit must be between 1 and 50", shared.ErrInvalidArgument)
	}

	provider, err := r.spotifyProvider()
	if err != nil {
		return err
	}

	store, release, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	backend := auth.NewBackend(provider, store, auth.Options{
		RefreshLeeway: r.config.Auth.RefreshLeeway.Std(),
		Logger:        shared.WithLogger(r.logger, "component", "auth"),
	})

	principal, err := backend.ResolveSession(ctx, userID)
	if err != nil {
		return err
	}
	if principal == nil {
		return fmt.Errorf("%w: no usable credential for %s, log in again", shared.ErrSessionNotFound, userID)
	}

	profile, err := backend.CurrentProfile(ctx, principal)
	if err != nil {
		return err
	}
	artists, err := principal.Client.TopArtists(ctx, limit)
	if err != nil {
		return err
	}
	r.logger.Debug("fetched top artists", "user_id", userID, "count", len(artists))

	export := &formatter.ArtistExport{Profile: *profile, Artists: artists}
	format := cmd.String("format")

	if path := cmd.String("output"); path != "" || cmd.Bool("save") {
		written, err := formatter.WriteExport(export, format, path)
		if err != nil {
			return err
		}
		r.writePlain("%s Exported %d artists to %s\n", styles.ok.Render("✓"), len(artists), written)
		return nil
	}

	data, err := formatter.Export(export, format)
	if err != nil {
		return err
	}
	return r.writePlain("%s", data)
}

// spotifyProvider returns the injected provider or builds the Spotify one from config.
func (r *Runner) spotifyProvider() (models.Provider, error) {
	if r.provider != nil {
		return r.provider, nil
	}
	cfg := r.config.Spotify
	cfg.RedirectURI = r.config.RedirectURL()
	return services.NewSpotifyService(cfg, r.httpClient)
}
