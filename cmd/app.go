package cmd

import (
	"fmt"

	"github.com/lepinkainen/bmn/internal/affiliate"
	"github.com/lepinkainen/bmn/internal/config"
	"github.com/lepinkainen/bmn/internal/datastore"
	"github.com/lepinkainen/bmn/internal/enrichment"
	"github.com/lepinkainen/bmn/internal/experiment"
	"github.com/lepinkainen/bmn/internal/materialize"
	"github.com/lepinkainen/bmn/internal/prefetch"
	"github.com/lepinkainen/bmn/internal/processor"
	"github.com/lepinkainen/bmn/internal/tmdb"
	"github.com/lepinkainen/bmn/internal/wordpress"
)

// app holds the collaborators every command is built from. It is created
// once per process and passed down.
type app struct {
	cfg         *config.Config
	catalog     *tmdb.CachedClient
	site        *wordpress.Client
	prefetch    *prefetch.Cache
	coordinator *processor.Coordinator
	experiments *experiment.Service
	ledger      *datastore.SQLiteStore
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newApp(cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	tmdbOpts := []tmdb.Option{}
	if cfg.TMDB.BaseURL != "" {
		tmdbOpts = append(tmdbOpts, tmdb.WithBaseURL(cfg.TMDB.BaseURL))
	}
	if cfg.TMDB.ImageBaseURL != "" {
		tmdbOpts = append(tmdbOpts, tmdb.WithImageBaseURL(cfg.TMDB.ImageBaseURL))
	}
	a.catalog = tmdb.NewClient(cfg.TMDB.APIKey, tmdbOpts...).Cached()

	wpOpts := []wordpress.Option{}
	if cfg.MaxImageWidth > 0 {
		wpOpts = append(wpOpts, wordpress.WithMaxImageWidth(cfg.MaxImageWidth))
	}
	a.site = wordpress.NewClient(cfg.WordPress, wpOpts...)

	enricher := enrichment.NewEngine(a.catalog, enrichment.PolicyFromConfig(cfg.Enrichment))
	finder := materialize.NewFinder(cfg.WordPress.Dedupe, a.site)
	materializer := materialize.NewEngine(a.site, a.catalog,
		materialize.WithFinder(finder),
		materialize.WithAffiliateLinker(affiliate.New(cfg.AmazonAffiliateID)),
	)
	a.prefetch = prefetch.New(enricher)

	coordOpts := []processor.Option{
		processor.WithFinder(finder),
		processor.WithSnapshots(a.prefetch),
	}
	if cfg.Ledger.Enabled {
		ledger, err := datastore.Open(cfg.Ledger.DBFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		a.ledger = ledger
		coordOpts = append(coordOpts, processor.WithLedger(ledger))
	}
	a.coordinator = processor.New(enricher, materializer, a.site, coordOpts...)
	a.experiments = experiment.NewService(a.site, a.coordinator)

	return a, nil
}

// Close releases the ledger and logs out of WordPress.
func (a *app) Close() error {
	a.site.Logout()
	if a.ledger != nil {
		return a.ledger.Close()
	}
	return nil
}

// buildApp is replaced in tests.
var buildApp = func() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return newApp(cfg)
}
