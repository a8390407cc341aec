package atlas

import (
	"flag"
	"io"
	"testing"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("expected default listen address, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "atlas.db" {
		t.Fatalf("expected default database path, got %q", cfg.DBPath)
	}
}

func TestParseConfigEnvOverrides(t *testing.T) {
	t.Setenv("ATLAS_HTTP_ADDR", ":9999")
	t.Setenv("ATLAS_DB_PATH", "/tmp/atlas-test.db")

	cfg, err := ParseConfig(newFlagSet(), nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("expected env listen address, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "/tmp/atlas-test.db" {
		t.Fatalf("expected env database path, got %q", cfg.DBPath)
	}
}

func TestParseConfigFlagsWinOverEnv(t *testing.T) {
	t.Setenv("ATLAS_HTTP_ADDR", ":9999")

	cfg, err := ParseConfig(newFlagSet(), []string{"-http-addr", ":7777", "-db-path", "world.db"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.HTTPAddr != ":7777" {
		t.Fatalf("expected flag listen address, got %q", cfg.HTTPAddr)
	}
	if cfg.DBPath != "world.db" {
		t.Fatalf("expected flag database path, got %q", cfg.DBPath)
	}
}

func TestParseConfigRejectsBlankAddr(t *testing.T) {
	if _, err := ParseConfig(newFlagSet(), []string{"-http-addr", "  "}); err == nil {
		t.Fatal("expected an error for a blank listen address")
	}
}

func TestParseConfigRejectsUnknownFlag(t *testing.T) {
	if _, err := ParseConfig(newFlagSet(), []string{"-bogus"}); err == nil {
		t.Fatal("expected an error for an unknown flag")
	}
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("atlas", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}
