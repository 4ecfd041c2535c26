package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

type check struct {
	name string
	run  func(context.Context) (string, error)
}

// Doctor runs each configuration and connectivity check and reports all of them, failing if any did.
func (r *Runner) Doctor(ctx context.Context, cmd *cli.Command) error {
	checks := []check{
		{"Spotify credentials", func(context.Context) (string, error) {
			if err := r.config.ValidateCredentials(); err != nil {
				return "", err
			}
			return "client id and secret set", nil
		}},
		{"Server config", func(context.Context) (string, error) {
			if err := r.config.Validate(); err != nil {
				return "", err
			}
			return r.config.Addr(), nil
		}},
		{"YouTube Music proxy", func(ctx context.Context) (string, error) {
			if err := r.youtubeService().Health(ctx); err != nil {
				return "", err
			}
			return r.config.Credentials.YouTube.ProxyURL, nil
		}},
		{"Spotify token", func(ctx context.Context) (string, error) {
			svc, err := r.source(ctx)
			if err != nil {
				return "", err
			}
			user, err := svc.CurrentUser(ctx)
			if err != nil {
				return "", err
			}
			return "signed in as " + user.DisplayName, nil
		}},
	}

	r.writePlainHeader("ytexport doctor")

	var failed int
	for _, c := range checks {
		detail, err := c.run(ctx)
		if err != nil {
			failed++
			r.writePlain("✗ %s: %v\n", c.name, err)
			continue
		}
		r.writePlain("✓ %s (%s)\n", c.name, detail)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d checks failed", failed, len(checks))
	}
	return nil
}
