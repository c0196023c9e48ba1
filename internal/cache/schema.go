package cache

// TMDBCacheSchema stores raw catalog responses keyed by request (movie_550, person_287, ...)
const TMDBCacheSchema = `
CREATE TABLE IF NOT EXISTS tmdb_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tmdb_cached_at ON tmdb_cache(cached_at);
`

// AllCacheSchemas is applied when the cache database is opened
var AllCacheSchemas = []string{
	TMDBCacheSchema,
}

// ValidCacheTableNames whitelists table names that may be interpolated into queries
var ValidCacheTableNames = map[string]bool{
	"tmdb_cache": true,
}

// Sources maps user-facing source names to their cache tables
var Sources = map[string]string{
	"tmdb": "tmdb_cache",
}
