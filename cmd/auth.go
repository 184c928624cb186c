package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/tunebox/internal/models"
	"github.com/desertthunder/tunebox/internal/shared"
	"github.com/urfave/cli/v3"
)

// passwordSignIn is the optional capability of identity backends that
// support the password grant.
type passwordSignIn interface {
	SignIn(ctx context.Context, email, password string) (*models.Session, error)
}

// AuthLogin signs in with email/password credentials and persists the session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	backend, ok := r.identity.(passwordSignIn)
	if !ok {
		return fmt.Errorf("%w: identity backend does not support password sign-in", shared.ErrNotImplemented)
	}

	email := cmd.String("email")
	r.logger.Info("signing in", "email", email)

	session, err := backend.SignIn(ctx, email, cmd.String("password"))
	if err != nil {
		return err
	}

	r.writePlain("✓ Signed in as %s\n", session.Email)
	if !session.ExpiresAt.IsZero() {
		r.writePlain("Session expires at %s\n", session.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// AuthStatus prints the current session state.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	session, err := r.identity.Current(ctx)
	if err != nil {
		return err
	}

	if session == nil {
		return r.writePlain("✗ Not signed in\n")
	}

	r.writePlain("✓ Signed in as %s\n", session.Email)
	r.writePlain("User ID: %s\n", session.UserID)
	if !session.ExpiresAt.IsZero() {
		r.writePlain("Session expires at %s\n", session.ExpiresAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

// AuthSignOut revokes the session. Local credentials are cleared even when
// the remote revoke fails.
func (r *Runner) AuthSignOut(ctx context.Context, cmd *cli.Command) error {
	if r.session != nil {
		r.session.Resolve(ctx)
		r.session.SignOut(ctx)
		return nil
	}

	if err := r.identity.SignOut(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Signed out\n")
}
