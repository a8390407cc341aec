package config

import "testing"

type envConfig struct {
	Addr   string `env:"ATLAS_TEST_ADDR" envDefault:":8080"`
	DBPath string `env:"ATLAS_TEST_DB_PATH" envDefault:"atlas.db"`
}

func TestParseEnvDefaults(t *testing.T) {
	var cfg envConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr :8080, got %q", cfg.Addr)
	}
	if cfg.DBPath != "atlas.db" {
		t.Fatalf("expected default db path atlas.db, got %q", cfg.DBPath)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("ATLAS_TEST_ADDR", ":9999")

	var cfg envConfig
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.Addr != ":9999" {
		t.Fatalf("expected env override :9999, got %q", cfg.Addr)
	}
}
