package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATA_PATH", "")
	t.Setenv("ROW_LIMIT", "")
	t.Setenv("POSTGRES_ENABLED", "")

	cfg := Load()
	if cfg.DataPath != "./data/kc_house_data.csv" {
		t.Errorf("DataPath: got %q", cfg.DataPath)
	}
	if cfg.RowLimit != 0 {
		t.Errorf("RowLimit: got %d, want 0", cfg.RowLimit)
	}
	if cfg.MapSampleSize != 500 {
		t.Errorf("MapSampleSize: got %d, want 500", cfg.MapSampleSize)
	}
	if cfg.PostgresEnabled {
		t.Error("PostgresEnabled should default to false")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATA_PATH", "https://example.com/kc.csv")
	t.Setenv("ROW_LIMIT", "8000")
	t.Setenv("POSTGRES_ENABLED", "true")
	t.Setenv("WATCH_SOURCE", "nope")

	cfg := Load()
	if cfg.RowLimit != 8000 {
		t.Errorf("RowLimit: got %d, want 8000", cfg.RowLimit)
	}
	if !cfg.PostgresEnabled {
		t.Error("PostgresEnabled should be true")
	}
	if !cfg.WatchSource {
		t.Error("invalid bool should fall back to the default")
	}
	if !cfg.IsRemoteSource() {
		t.Error("https path should be a remote source")
	}
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "d", PostgresSSLMode: "disable",
	}
	want := "host=db port=5433 user=u password=p dbname=d sslmode=disable"
	if got := cfg.DSN(); got != want {
		t.Errorf("DSN() = %q; want %q", got, want)
	}
}
