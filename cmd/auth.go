package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/spotitransfer/internal/server"
	"github.com/desertthunder/spotitransfer/internal/services"
	"github.com/desertthunder/spotitransfer/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// AuthLogin performs the OAuth2 authorization flow for one account role.
//
// Starts a local HTTP server, opens the browser for user authorization, and
// exchanges the auth code for tokens. The Spotify consent screen forces the
// account chooser, so the source and destination can be different accounts
// in the same browser session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	role := cmd.String("account")
	if _, err := r.accountFor(role); err != nil {
		return err
	}

	if r.configPath == "" {
		r.configPath = cmd.String("config")
	}

	if r.config.Credentials.Spotify.ClientID == "" || r.config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	scopes := services.SourceScopes
	if role == roleDest {
		scopes = services.DestScopes
	}

	svc, err := services.NewSpotifyService(r.config.Credentials.Spotify.Map(), scopes...)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, svc, role)
	if err != nil {
		return err
	}

	if err := r.saveTokens(role, token); err != nil {
		return err
	}

	svc.AuthenticateToken(ctx, token)
	if role == roleSource {
		r.source = svc
	} else {
		r.dest = svc
	}

	profile, err := svc.CurrentUser(ctx)
	if err != nil {
		r.logger.Warnf("could not look up profile after authorization %v", err)
		r.writePlainln("✓ %s account authorized", role)
	} else {
		r.writePlainln("✓ %s account authorized as %s", role, profile.DisplayName)
	}
	r.writePlain("✓ Tokens saved to %s\n", r.configPath)

	if role == roleSource {
		r.writePlain("\nNext: spotitransfer auth login --account dest\n")
	} else {
		r.writePlain("\nNext: spotitransfer transfer\n")
	}

	return nil
}

// AuthStatus reports the connection state of both accounts.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	r.writePlainHeader("Account Status")

	for _, role := range []string{roleSource, roleDest} {
		svc, err := r.serviceFor(role)
		if err != nil {
			r.writePlain("%s: ✗ not connected\n", role)
			continue
		}

		profile, err := svc.CurrentUser(ctx)
		if err != nil {
			r.writePlain("%s: ✗ token invalid or expired (%v)\n", role, err)
			continue
		}

		r.writePlain("%s: ✓ connected as %s\n", role, profile.DisplayName)
	}

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthSrv services.OAuthService, role string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthSrv.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(oauthSrv.GetOAuthConfig(), state, role)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s account at %v", role, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser to authorize the %s account...\n", role)
	r.writePlain("→ Make sure you log in with the right account; Spotify will show an account chooser.\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
