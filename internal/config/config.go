// Package config loads runtime settings for the catalog, the content system
// and the enrichment policy from viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Config holds everything the application needs to talk to TMDb and WordPress.
type Config struct {
	TMDB       TMDBConfig
	WordPress  WordPressConfig
	Enrichment EnrichmentConfig
	Server     ServerConfig
	Cache      CacheConfig
	Ledger     LedgerConfig

	AmazonAffiliateID string
	MaxImageWidth     int
}

// TMDBConfig configures the catalog client.
type TMDBConfig struct {
	APIKey       string
	BaseURL      string
	ImageBaseURL string
}

// WordPressConfig configures the content-system client.
type WordPressConfig struct {
	BaseURL  string
	APIURL   string
	Username string
	Password string
	// Dedupe switches entity lookups from always-miss to a custom field search.
	Dedupe bool
}

// EnrichmentConfig holds the enrichment policy constants.
type EnrichmentConfig struct {
	CastLimit    int
	WriterJobs   []string
	DirectorJobs []string
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string
	AllowOrigins []string
}

// CacheConfig configures the persistent TMDb response cache.
type CacheConfig struct {
	DBFile string
	TTL    string
}

// LedgerConfig configures the local record of materialized movies.
type LedgerConfig struct {
	Enabled bool
	DBFile  string
}

const (
	DefaultTMDBBaseURL      = "https://api.themoviedb.org/3"
	DefaultTMDBImageBaseURL = "https://image.tmdb.org/t/p"
	DefaultWordPressURL     = "http://localhost:8080"
	DefaultCastLimit        = 10
)

// DefaultWriterJobs is the crew job set treated as writing credits.
var DefaultWriterJobs = []string{"Writer", "Screenplay", "Story"}

// DefaultDirectorJobs is the crew job set treated as directing credits.
var DefaultDirectorJobs = []string{"Director"}

var envBindings = map[string]string{
	"tmdb.apikey":          "TMDB_API_KEY",
	"tmdb.baseurl":         "TMDB_BASE_URL",
	"tmdb.imagebaseurl":    "TMDB_IMAGE_BASE_URL",
	"wordpress.url":        "WP_URL",
	"wordpress.apiurl":     "WP_API_URL",
	"wordpress.username":   "WP_USERNAME",
	"wordpress.password":   "WP_PASSWORD",
	"amazon.affiliateid":   "AMAZON_AFFILIATE_ID",
	"server.addr":          "BMN_ADDR",
	"enrichment.castlimit": "BMN_CAST_LIMIT",
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	viper.SetDefault("tmdb.baseurl", DefaultTMDBBaseURL)
	viper.SetDefault("tmdb.imagebaseurl", DefaultTMDBImageBaseURL)
	viper.SetDefault("wordpress.url", DefaultWordPressURL)
	viper.SetDefault("wordpress.dedupe", false)

	viper.SetDefault("enrichment.castlimit", DefaultCastLimit)
	viper.SetDefault("enrichment.writerjobs", DefaultWriterJobs)
	viper.SetDefault("enrichment.directorjobs", DefaultDirectorJobs)

	viper.SetDefault("images.maxwidth", 1000)

	viper.SetDefault("server.addr", ":8081")
	viper.SetDefault("server.alloworigins", []string{"http://localhost:5173"})

	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	viper.SetDefault("ledger.enabled", false)
	viper.SetDefault("ledger.dbfile", "./bmn.db")
}

// BindEnv binds the well-known environment variables to their config keys.
func BindEnv() {
	viper.AutomaticEnv()
	for key, env := range envBindings {
		if err := viper.BindEnv(key, env); err != nil {
			slog.Error("Failed to bind environment variable", "key", key, "env", env, "error", err)
		}
	}
}

// Load builds a Config from the current viper state.
func Load() *Config {
	baseURL := strings.TrimSuffix(viper.GetString("wordpress.url"), "/")
	apiURL := strings.TrimSuffix(viper.GetString("wordpress.apiurl"), "/")
	if apiURL == "" && baseURL != "" {
		apiURL = baseURL + "/wp-json/wp/v2"
	}

	castLimit := viper.GetInt("enrichment.castlimit")
	if castLimit <= 0 {
		castLimit = DefaultCastLimit
	}

	return &Config{
		TMDB: TMDBConfig{
			APIKey:       viper.GetString("tmdb.apikey"),
			BaseURL:      viper.GetString("tmdb.baseurl"),
			ImageBaseURL: viper.GetString("tmdb.imagebaseurl"),
		},
		WordPress: WordPressConfig{
			BaseURL:  baseURL,
			APIURL:   apiURL,
			Username: viper.GetString("wordpress.username"),
			Password: viper.GetString("wordpress.password"),
			Dedupe:   viper.GetBool("wordpress.dedupe"),
		},
		Enrichment: EnrichmentConfig{
			CastLimit:    castLimit,
			WriterJobs:   stringsOrDefault(viper.GetStringSlice("enrichment.writerjobs"), DefaultWriterJobs),
			DirectorJobs: stringsOrDefault(viper.GetStringSlice("enrichment.directorjobs"), DefaultDirectorJobs),
		},
		Server: ServerConfig{
			Addr:         viper.GetString("server.addr"),
			AllowOrigins: viper.GetStringSlice("server.alloworigins"),
		},
		Cache: CacheConfig{
			DBFile: viper.GetString("cache.dbfile"),
			TTL:    viper.GetString("cache.ttl"),
		},
		Ledger: LedgerConfig{
			Enabled: viper.GetBool("ledger.enabled"),
			DBFile:  viper.GetString("ledger.dbfile"),
		},
		AmazonAffiliateID: viper.GetString("amazon.affiliateid"),
		MaxImageWidth:     viper.GetInt("images.maxwidth"),
	}
}

// Validate reports every missing required setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.TMDB.APIKey == "" {
		errs = append(errs, fmt.Errorf("TMDb API key is required (set tmdb.apikey or TMDB_API_KEY)"))
	}
	if c.WordPress.BaseURL == "" {
		errs = append(errs, fmt.Errorf("WordPress URL is required (set wordpress.url or WP_URL)"))
	}
	if c.WordPress.APIURL == "" {
		errs = append(errs, fmt.Errorf("WordPress API URL is required (set wordpress.apiurl or WP_API_URL)"))
	}
	return errors.Join(errs...)
}

func stringsOrDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return append([]string(nil), fallback...)
	}
	return values
}
