package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/lepinkainen/bmn/internal/cache"
	"github.com/lepinkainen/bmn/internal/config"
	bmnerrors "github.com/lepinkainen/bmn/internal/errors"
)

// stdout receives command output. Logs go to stderr.
var stdout io.Writer = os.Stdout

// CLI represents the complete command structure for the bmn application
type CLI struct {
	// Global flags
	Verbose bool   `short:"v" help:"Enable debug logging"`
	Config  string `help:"Path to config file (defaults to ./config.yaml)" type:"path"`

	// WordPress flags
	Dedupe bool `help:"Reuse existing WordPress entities matched by TMDB ID instead of always creating new ones"`

	// Ledger flags
	Ledger   bool   `help:"Record materialized movies in the local ledger"`
	LedgerDB string `help:"Path to ledger SQLite database file"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)"`

	Serve      ServeCmd      `cmd:"" help:"Run the HTTP API for the portal"`
	Search     SearchCmd     `cmd:"" help:"Search TMDB, pick movies and prefetch them"`
	Experiment ExperimentCmd `cmd:"" help:"Create and manage experiments"`
	Platforms  PlatformsCmd  `cmd:"" help:"Discover the platforms experiments can be held on"`
	Cache      CacheCmd      `cmd:"" help:"Manage the TMDB response cache"`
}

// CacheCmd groups cache maintenance commands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Clear every cached response of a source"`
}

func Execute() {
	var cli CLI

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kctx := kong.Parse(&cli,
		kong.Name("bmn"),
		kong.Description("Curate bad movie night experiments: search TMDB, enrich movies and publish them to WordPress."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)

	initLogging(cli.Verbose)
	if err := initConfig(cli.Config); err != nil {
		slog.Error("Failed to read config", "error", err)
		os.Exit(1)
	}
	updateGlobalConfig(&cli)

	if err := run(kctx); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// run executes the selected command. A deliberate stop is not a failure.
func run(kctx *kong.Context) error {
	err := kctx.Run()
	if bmnerrors.IsStopProcessingError(err) {
		slog.Info("Stopped", "reason", err.Error())
		return nil
	}
	return err
}

// updateGlobalConfig lets flags override config file and environment values.
func updateGlobalConfig(cli *CLI) {
	if cli.Dedupe {
		viper.Set("wordpress.dedupe", true)
	}
	if cli.Ledger {
		viper.Set("ledger.enabled", true)
	}
	if cli.LedgerDB != "" {
		viper.Set("ledger.dbfile", cli.LedgerDB)
	}
	if cli.CacheDBFile != "" {
		viper.Set("cache.dbfile", cli.CacheDBFile)
	}
	if cli.CacheTTL != "" {
		viper.Set("cache.ttl", cli.CacheTTL)
	}
}

// initConfig loads defaults, environment and the optional config file.
func initConfig(path string) error {
	config.SetDefaults()
	config.BindEnv()

	if path != "" {
		viper.SetConfigFile(path)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			slog.Debug("No config file found, using defaults and environment")
			return nil
		}
		return err
	}
	slog.Debug("Loaded config", "file", viper.ConfigFileUsed())
	return nil
}

func initLogging(verbose bool) {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := humanlog.NewHandler(os.Stderr, &humanlog.Options{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}
