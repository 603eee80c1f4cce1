package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/grantshandy/starify/internal/shared"
)

// ConfigInit writes the example configuration to the --config path.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("%s Config written to %s\n", styles.ok.Render("✓"), r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set spotify.client_id and spotify.client_secret\n")
	r.writePlain("2. Run 'starify keygen' for auth.session_secret and store.encryption_key\n")
	r.writePlain("3. Run 'starify serve'\n")
	return nil
}

// ConfigCheck validates the loaded configuration and prints a summary without secrets.
func (r *Runner) ConfigCheck(ctx context.Context, cmd *cli.Command) error {
	cfg := r.config
	if err := cfg.Validate(); err != nil {
		r.writePlain("%s %v\n", styles.err.Render("✗"), err)
		return err
	}

	r.writePlainHeader("starify configuration")
	r.writePlain("listen         %s\n", cfg.Server.Addr())
	r.writePlain("redirect uri   %s\n", cfg.RedirectURL())
	r.writePlain("scopes         %v\n", cfg.Spotify.Scopes)
	r.writePlain("state ttl      %v\n", cfg.Auth.StateTTL.Std())
	r.writePlain("session ttl    %v\n", cfg.Auth.SessionTTL.Std())
	r.writePlain("store          %s %s\n", cfg.Store.Backend, cfg.Store.Path)

	if cfg.Auth.SessionSecret == "" {
		r.writePlain("%s\n", styles.warn.Render("session_secret is empty; sessions end on restart"))
	}
	if cfg.Store.Backend == shared.StoreSQLite && cfg.Store.EncryptionKey == "" {
		r.writePlain("%s\n", styles.warn.Render("encryption_key is empty; tokens are stored unsealed"))
	}
	if !cfg.Server.SecureCookies {
		r.writePlain("%s\n", styles.warn.Render("secure_cookies is off; use only for local http"))
	}
	r.writePlain("%s configuration is valid\n", styles.ok.Render("✓"))
	return nil
}

// credentialSummary is what the CLI shows for a stored credential. Token values never leave the store.
type credentialSummary struct {
	UserID      string    `json:"user_id"`
	ExpiresAt   time.Time `json:"expires_at"`
	Expired     bool      `json:"expired"`
	HasRefresh  bool      `json:"has_refresh_token"`
	Scopes      []string  `json:"scopes,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
	DisplayName string    `json:"display_name,omitempty"`
}

// CredentialsList prints every stored credential.
func (r *Runner) CredentialsList(ctx context.Context, cmd *cli.Command) error {
	store, release, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	creds, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list credentials: %w", err)
	}

	now := time.Now()
	summaries := make([]credentialSummary, 0, len(creds))
	for _, c := range creds {
		s := credentialSummary{
			UserID:     c.UserID,
			ExpiresAt:  c.ExpiresAt,
			Expired:    c.Expired(now, 0),
			HasRefresh: c.RefreshToken != "",
			Scopes:     c.Scopes,
			UpdatedAt:  c.UpdatedAt,
		}
		if p, err := store.Profile(ctx, c.UserID); err == nil {
			s.DisplayName = p.DisplayName
		}
		summaries = append(summaries, s)
	}

	if cmd.Bool("json") {
		return r.writeJSON(summaries, cmd.Bool("pretty"))
	}

	if len(summaries) == 0 {
		r.writePlain("%s\n", styles.help.Render("no stored credentials"))
		return nil
	}

	r.writePlainHeader(fmt.Sprintf("%d stored credential(s)", len(summaries)))
	for _, s := range summaries {
		status := styles.ok.Render("valid")
		if s.Expired {
			status = styles.warn.Render("expired")
		}
		r.writePlain("%-28s %-8s expires %s", s.UserID, status, s.ExpiresAt.Format(time.RFC3339))
		if s.DisplayName != "" {
			r.writePlain("  (%s)", s.DisplayName)
		}
		r.writePlain("\n")
	}
	return nil
}

// CredentialsRemove deletes one user's credential and cached profile.
func (r *Runner) CredentialsRemove(ctx context.Context, cmd *cli.Command) error {
	userID := cmd.String("user")
	if userID == "" {
		return fmt.Errorf("%w: --user", shared.ErrMissingArgument)
	}

	store, release, err := r.openStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := store.Remove(ctx, userID); err != nil {
		return fmt.Errorf("failed to remove credential: %w", err)
	}

	r.logger.Info("credential removed", "user_id", userID)
	r.writePlain("%s Removed credential for %s\n", styles.ok.Render("✓"), userID)
	return nil
}

// DBMigrate applies pending migrations to the sqlite cache.
func (r *Runner) DBMigrate(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.writePlain("%s Migrations applied to %s\n", styles.ok.Render("✓"), r.config.Store.Path)
	return nil
}

// DBRollback rolls back the latest migration of the sqlite cache.
func (r *Runner) DBRollback(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := shared.RollbackMigration(ctx, db); err != nil {
		return fmt.Errorf("failed to roll back: %w", err)
	}
	r.writePlain("%s Rolled back latest migration of %s\n", styles.ok.Render("✓"), r.config.Store.Path)
	return nil
}

func (r *Runner) openDatabase(ctx context.Context) (*sql.DB, error) {
	if r.config.Store.Backend != shared.StoreSQLite {
		return nil, fmt.Errorf("%w: store backend is %q, not sqlite", shared.ErrInvalidConfig, r.config.Store.Backend)
	}
	return shared.NewDatabase(ctx, r.config.Store.Path)
}

// Keygen prints a random base64 key.
func (r *Runner) Keygen(ctx context.Context, cmd *cli.Command) error {
	n := int(cmd.Int("bytes"))
	if n < 32 {
		return fmt.Errorf("%w: --bytes must be at least 32", shared.ErrInvalidArgument)
	}

	key, err := shared.GenerateKey(n)
	if err != nil {
		return err
	}
	return r.writePlain("%s\n", key)
}
