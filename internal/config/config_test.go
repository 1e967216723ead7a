package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backtest.Strategy != "adaptive" {
		t.Errorf("default strategy = %q, want adaptive", cfg.Backtest.Strategy)
	}
	if cfg.Backtest.InitialCapital != 1_000_000 || cfg.Backtest.Commission != 0.0005 {
		t.Errorf("default backtest config = %+v", cfg.Backtest)
	}
	if cfg.Backtest.ChopThreshold != 38.2 {
		t.Errorf("default chop threshold = %v", cfg.Backtest.ChopThreshold)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
storage:
  sqlite_path: /tmp/other.db
backtest:
  strategy: weighted
  market: KRW-ETH
  commission: 0.001
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backtest.Strategy != "weighted" || cfg.Backtest.Market != "KRW-ETH" {
		t.Errorf("backtest config = %+v", cfg.Backtest)
	}
	if cfg.Backtest.Commission != 0.001 {
		t.Errorf("commission = %v", cfg.Backtest.Commission)
	}
	if cfg.Storage.SQLitePath != "/tmp/other.db" {
		t.Errorf("sqlite_path = %q", cfg.Storage.SQLitePath)
	}
	// Untouched fields keep their defaults.
	if cfg.Backtest.InitialCapital != 1_000_000 {
		t.Errorf("initial_capital = %v, want default", cfg.Backtest.InitialCapital)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SQLITE_PATH", "/tmp/env.db")
	t.Setenv("UPBIT_BASE_URL", "http://localhost:9999")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.SQLitePath != "/tmp/env.db" {
		t.Errorf("sqlite_path = %q", cfg.Storage.SQLitePath)
	}
	if cfg.Upbit.BaseURL != "http://localhost:9999" {
		t.Errorf("upbit base_url = %q", cfg.Upbit.BaseURL)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Logging.Level)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := []struct {
		name string
		yaml string
	}{
		{"position size above 1", "backtest:\n  position_size: 1.5\n"},
		{"zero position size", "backtest:\n  position_size: 0\n"},
		{"negative commission", "backtest:\n  commission: -0.001\n"},
		{"zero capital", "backtest:\n  initial_capital: 0\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, tc.yaml)); err == nil {
				t.Errorf("config accepted: %s", tc.yaml)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/no/such/config.yaml"); err == nil {
		t.Error("missing file did not fail")
	}
}
