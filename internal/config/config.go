// Package config reads server settings from flags, falling back to environment
// variables and then to defaults.
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

type Config struct {
	Addr           string
	AllowedOrigins []string
	// AllowCredentials is false when any origin is the "*" wildcard; the cors
	// middleware refuses credentials with a wildcard origin.
	AllowCredentials bool
	DataDir          string // empty keeps games in memory
	LogLevel         log.Level
}

var logLevels = map[string]log.Level{
	"trace": log.LevelTrace,
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load parses args (without the program name).
func Load(args []string) (Config, error) {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)

	addr := fs.String("addr", envOr("MOVEGEN_ADDR", ":3000"), "listen address")
	origins := fs.String("origins", envOr("MOVEGEN_ORIGINS", "http://localhost:5173"), "comma separated allowed origins")
	dataDir := fs.String("data-dir", envOr("MOVEGEN_DATA_DIR", ""), "badger directory, empty for in-memory")
	level := fs.String("log-level", envOr("MOVEGEN_LOG_LEVEL", "info"), "trace, debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	lvl, ok := logLevels[strings.ToLower(*level)]
	if !ok {
		return Config{}, fmt.Errorf("unknown log level %q", *level)
	}

	cfg := Config{
		Addr:     *addr,
		DataDir:  *dataDir,
		LogLevel: lvl,
	}
	cfg.AllowCredentials = true
	for _, origin := range strings.Split(*origins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, origin)
			if origin == "*" {
				cfg.AllowCredentials = false
			}
		}
	}
	if len(cfg.AllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("no allowed origins configured")
	}
	return cfg, nil
}
