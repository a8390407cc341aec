// Package atlas wires configuration and startup for the atlas service.
package atlas

import (
	"context"
	"flag"
	"fmt"
	"strings"

	platformcmd "github.com/westmarch/atlas/internal/platform/cmd"
	server "github.com/westmarch/atlas/internal/services/atlas/app"
)

// Config holds the atlas service configuration.
type Config struct {
	// HTTPAddr is the listen address for the JSON API and websocket feed.
	HTTPAddr string `env:"ATLAS_HTTP_ADDR" envDefault:":8080"`
	// DBPath is the sqlite database file path.
	DBPath string `env:"ATLAS_DB_PATH" envDefault:"atlas.db"`
}

// ParseConfig loads the service configuration from environment variables
// and command-line flags. Flags win over the environment.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := platformcmd.ParseConfig(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "sqlite database path")
	if err := platformcmd.ParseArgs(fs, args); err != nil {
		return Config{}, err
	}

	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return Config{}, fmt.Errorf("http listen address is required")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return Config{}, fmt.Errorf("database path is required")
	}
	return cfg, nil
}

// Run starts the atlas service and blocks until ctx is done or the server
// fails.
func Run(ctx context.Context, cfg Config) error {
	return platformcmd.RunWithTelemetry(ctx, platformcmd.ServiceAtlas, func(ctx context.Context) error {
		return server.Run(ctx, server.Config{
			HTTPAddr: cfg.HTTPAddr,
			DBPath:   cfg.DBPath,
		})
	})
}
