package config

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func envMap(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := load("", envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(cfg, Default()) {
		t.Errorf("load without inputs = %+v, want defaults", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "financescrapper.yaml", `
tickers: [AAPL, MSFT]
locale: de-DE
timeouts:
  element: 45s
browser:
  headless: false
sinks:
  enabled: [sqlite, sheets]
  sheets:
    spreadsheetId: sheet-from-file
`)

	cfg, err := load(path, envMap(nil))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !reflect.DeepEqual(cfg.Tickers, []string{"AAPL", "MSFT"}) {
		t.Errorf("tickers = %v", cfg.Tickers)
	}
	if cfg.Locale != "de-DE" {
		t.Errorf("locale = %q", cfg.Locale)
	}
	if cfg.Timeouts.Element != 45*time.Second {
		t.Errorf("element timeout = %s", cfg.Timeouts.Element)
	}
	if cfg.Timeouts.Navigation != 30*time.Second {
		t.Errorf("unset navigation timeout lost its default: %s", cfg.Timeouts.Navigation)
	}
	if cfg.Browser.Headless {
		t.Error("headless should be false")
	}
	if cfg.Sinks.Sheets.Worksheet != "Sheet1" {
		t.Errorf("worksheet default lost: %q", cfg.Sinks.Sheets.Worksheet)
	}
	if !cfg.Sinks.IsEnabled(SinkSQLite) || cfg.Sinks.IsEnabled(SinkJSONL) {
		t.Errorf("enabled sinks = %v", cfg.Sinks.Enabled)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "financescrapper.yaml", "tickers: [AAPL]\n")
	dotenv := writeFile(t, ".env", "REDIS_ADDR=localhost:6379\nREDIS_PASSWORD=from-dotenv\nLOG_LEVEL=debug\n")

	cfg, err := load(path, envMap(map[string]string{
		"FINANCESCRAPPER_TICKERS":         "ACME, XYZ",
		"FINANCESCRAPPER_ELEMENT_TIMEOUT": "5s",
		"FINANCESCRAPPER_SINKS":           "jsonl,redis",
		"REDIS_PASSWORD":                  "from-env",
		"PORT":                            "9090",
	}), dotenv)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if !reflect.DeepEqual(cfg.Tickers, []string{"ACME", "XYZ"}) {
		t.Errorf("tickers = %v", cfg.Tickers)
	}
	if cfg.Timeouts.Element != 5*time.Second {
		t.Errorf("element timeout = %s", cfg.Timeouts.Element)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("redis addr from .env = %q", cfg.Redis.Addr)
	}
	if cfg.Redis.Password != "from-env" {
		t.Errorf("environment should win over .env, got %q", cfg.Redis.Password)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("server addr = %q", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := load(filepath.Join(t.TempDir(), "nope.yaml"), envMap(nil))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("err = %v, want ErrConfigNotFound", err)
		}
	})

	t.Run("bad yaml", func(t *testing.T) {
		t.Parallel()
		path := writeFile(t, "bad.yaml", "tickers: [AAPL\n")
		if _, err := load(path, envMap(nil)); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("bad env duration", func(t *testing.T) {
		t.Parallel()
		_, err := load("", envMap(map[string]string{"FINANCESCRAPPER_ELEMENT_TIMEOUT": "soon"}))
		if err == nil {
			t.Error("expected duration error")
		}
	})

	t.Run("missing dotenv is ignored", func(t *testing.T) {
		t.Parallel()
		if _, err := load("", envMap(nil), filepath.Join(t.TempDir(), ".env")); err != nil {
			t.Errorf("load: %v", err)
		}
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   error
	}{
		{name: "relative base url", mutate: func(c *Config) { c.BaseURL = "finance.yahoo.com" }, want: ErrInvalidBaseURL},
		{name: "ftp base url", mutate: func(c *Config) { c.BaseURL = "ftp://finance.yahoo.com" }, want: ErrInvalidBaseURL},
		{name: "zero element timeout", mutate: func(c *Config) { c.Timeouts.Element = 0 }, want: ErrInvalidTimeout},
		{name: "negative toggle timeout", mutate: func(c *Config) { c.Timeouts.Toggle = -time.Second }, want: ErrInvalidTimeout},
		{name: "bad locale", mutate: func(c *Config) { c.Locale = "not a tag!" }, want: ErrInvalidLocale},
		{name: "no sinks", mutate: func(c *Config) { c.Sinks.Enabled = nil }, want: ErrNoSink},
		{name: "unknown sink", mutate: func(c *Config) { c.Sinks.Enabled = []string{"kafka"} }, want: ErrUnknownSink},
		{name: "sheets without id", mutate: func(c *Config) { c.Sinks.Enabled = []string{SinkSheets} }, want: ErrMissingSpreadsheet},
		{name: "redis without addr", mutate: func(c *Config) { c.Sinks.Enabled = []string{SinkRedis} }, want: ErrMissingRedis},
		{name: "sqlite without path", mutate: func(c *Config) {
			c.Sinks.Enabled = []string{SinkSQLite}
			c.Sinks.SQLite.Path = ""
		}, want: ErrMissingSQLitePath},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestSplitList(t *testing.T) {
	t.Parallel()

	got := SplitList(" AAPL,MSFT  GOOG,,\tTSLA\n")
	want := []string{"AAPL", "MSFT", "GOOG", "TSLA"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitList = %v, want %v", got, want)
	}
}
