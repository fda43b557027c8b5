package main

import (
	"context"
	"os"

	"github.com/desertthunder/spotitransfer/internal/services"
	"github.com/desertthunder/spotitransfer/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	ctx := context.Background()

	configPath := "config.toml"
	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		}
	}

	var sourceService, destService services.LibraryService

	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), services.SourceScopes...); err == nil {
			if token := config.Accounts.Source.Token(); token != nil {
				svc.AuthenticateToken(ctx, token)
			}
			sourceService = svc
		}

		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map(), services.DestScopes...); err == nil {
			if token := config.Accounts.Dest.Token(); token != nil {
				svc.AuthenticateToken(ctx, token)
			}
			destService = svc
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Source:     sourceService,
		Dest:       destService,
		Logger:     logger,
	})

	app := &cli.Command{
		Name:     "spotitransfer",
		Usage:    "Transfer liked songs between Spotify accounts, preserving order",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
