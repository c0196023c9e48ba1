package cmd

import (
	"context"
	"log/slog"

	"github.com/lepinkainen/bmn/internal/api"
)

// ServeCmd runs the HTTP API
type ServeCmd struct {
	Addr string `help:"Listen address (defaults to server.addr)"`
}

func (s *ServeCmd) Run(ctx context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("Failed to close application", "error", err)
		}
	}()

	addr := s.Addr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	server := api.NewServer(a.catalog, a.prefetch, a.experiments, a.site,
		api.WithAllowOrigins(a.cfg.Server.AllowOrigins))

	slog.Info("Starting API server", "addr", addr, "wordpress", a.site.SiteURL(), "dedupe", a.cfg.WordPress.Dedupe)
	return server.Run(ctx, addr)
}
