package configs

import "time"

// HTTP defines configuration for the analytics read API server. The Port
// specifies which port the server will bind to. Responses are cached in
// memory; CacheTTL and CacheSize bound that cache.
type HTTP struct {
	// Port is the TCP port the HTTP server will listen on. Defaults to 8080.
	Port uint16 `env:"PORT" envDefault:"8080"`

	// CacheTTL is how long a cached projection response stays valid.
	CacheTTL time.Duration `env:"CACHE_TTL" envDefault:"60s"`

	// CacheSize is the maximum number of cached responses.
	CacheSize int `env:"CACHE_SIZE" envDefault:"1024"`
}
