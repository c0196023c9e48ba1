package cmd

import (
	"context"
	"fmt"
	"log/slog"
)

// PlatformsCmd lists the platforms experiments can be held on
type PlatformsCmd struct{}

func (p *PlatformsCmd) Run(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close application", "error", err)
		}
	}()

	platforms, source := a.site.DiscoverPlatforms(ctx)
	slog.Debug("Discovered platforms", "source", source, "count", len(platforms))
	for _, platform := range platforms {
		fmt.Fprintln(stdout, platform.Name)
	}
	return nil
}
