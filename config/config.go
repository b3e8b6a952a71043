// Package config loads crawler settings from a YAML file, an optional .env
// file and the environment, in that order of increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"time"

	"financescrapper/normalize"
)

// Sink names accepted in Sinks.Enabled.
const (
	SinkJSONL  = "jsonl"
	SinkSheets = "sheets"
	SinkSQLite = "sqlite"
	SinkRedis  = "redis"
)

// Config holds every setting used by the commands.
type Config struct {
	BaseURL     string            `yaml:"baseUrl"`
	Tickers     []string          `yaml:"tickers"`
	Locale      string            `yaml:"locale"`
	HolderName  string            `yaml:"holderName"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
	Browser     BrowserConfig     `yaml:"browser"`
	Diagnostics DiagnosticsConfig `yaml:"diagnostics"`
	Sinks       SinkConfig        `yaml:"sinks"`
	Redis       RedisConfig       `yaml:"redis"`
	Server      ServerConfig      `yaml:"server"`
	Log         LogConfig         `yaml:"log"`
}

// TimeoutConfig bounds every browser suspension point.
type TimeoutConfig struct {
	Navigation time.Duration `yaml:"navigation"`
	Action     time.Duration `yaml:"action"`
	Element    time.Duration `yaml:"element"`
	Toggle     time.Duration `yaml:"toggle"`
	ForwardPE  time.Duration `yaml:"forwardPe"`
}

// BrowserConfig describes the Chrome instance.
type BrowserConfig struct {
	Headless     bool   `yaml:"headless"`
	UserAgent    string `yaml:"userAgent"`
	WindowWidth  int    `yaml:"windowWidth"`
	WindowHeight int    `yaml:"windowHeight"`
}

// DiagnosticsConfig controls failure screenshots and page snapshots.
type DiagnosticsConfig struct {
	Dir                 string `yaml:"dir"`
	ScreenshotOnFailure bool   `yaml:"screenshotOnFailure"`
	PageSnapshots       bool   `yaml:"pageSnapshots"`
}

// SinkConfig selects the record destinations.
type SinkConfig struct {
	Enabled []string     `yaml:"enabled"`
	JSONL   JSONLConfig  `yaml:"jsonl"`
	Sheets  SheetsConfig `yaml:"sheets"`
	SQLite  SQLiteConfig `yaml:"sqlite"`
	Redis   RedisSink    `yaml:"redis"`
}

// JSONLConfig writes one record per line; "-" is standard output.
type JSONLConfig struct {
	Path string `yaml:"path"`
}

// SheetsConfig appends rows to a Google spreadsheet.
type SheetsConfig struct {
	SpreadsheetID   string `yaml:"spreadsheetId"`
	Worksheet       string `yaml:"worksheet"`
	CredentialsFile string `yaml:"credentialsFile"`
}

// SQLiteConfig stores records in a local database.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// RedisSink pushes records onto a list.
type RedisSink struct {
	Key string `yaml:"key"`
}

// RedisConfig is the connection shared by the redis sink and the cache.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr     string        `yaml:"addr"`
	CacheTTL time.Duration `yaml:"cacheTtl"`
}

// LogConfig configures the logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		BaseURL:    "https://finance.yahoo.com",
		Locale:     "en-US",
		HolderName: "Vanguard",
		Timeouts: TimeoutConfig{
			Navigation: 30 * time.Second,
			Action:     10 * time.Second,
			Element:    20 * time.Second,
			Toggle:     10 * time.Second,
			ForwardPE:  20 * time.Second,
		},
		Browser: BrowserConfig{
			Headless:     true,
			UserAgent:    "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/135.0.0.0 Safari/537.36",
			WindowWidth:  1920,
			WindowHeight: 1080,
		},
		Diagnostics: DiagnosticsConfig{
			Dir:                 "screenshots",
			ScreenshotOnFailure: true,
		},
		Sinks: SinkConfig{
			Enabled: []string{SinkJSONL},
			JSONL:   JSONLConfig{Path: "-"},
			Sheets:  SheetsConfig{Worksheet: "Sheet1"},
			SQLite:  SQLiteConfig{Path: "financescrapper.db"},
			Redis:   RedisSink{Key: "financescrapper:records"},
		},
		Server: ServerConfig{
			Addr:     ":8000",
			CacheTTL: 15 * time.Minute,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// IsEnabled reports whether the named sink is selected.
func (s SinkConfig) IsEnabled(name string) bool {
	for _, n := range s.Enabled {
		if n == name {
			return true
		}
	}
	return false
}

// Validate checks the settings shared by every command. Tickers are checked
// by the crawl command once its arguments are known.
func (c Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %q", ErrInvalidBaseURL, c.BaseURL)
	}

	timeouts := []struct {
		name string
		d    time.Duration
	}{
		{"navigation", c.Timeouts.Navigation},
		{"action", c.Timeouts.Action},
		{"element", c.Timeouts.Element},
		{"toggle", c.Timeouts.Toggle},
		{"forwardPe", c.Timeouts.ForwardPE},
	}
	for _, t := range timeouts {
		if t.d <= 0 {
			return fmt.Errorf("%w: %s is %s", ErrInvalidTimeout, t.name, t.d)
		}
	}

	if _, err := normalize.NewPolicy(c.Locale); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidLocale, c.Locale)
	}

	if len(c.Sinks.Enabled) == 0 {
		return ErrNoSink
	}
	for _, name := range c.Sinks.Enabled {
		switch name {
		case SinkJSONL:
		case SinkSheets:
			if c.Sinks.Sheets.SpreadsheetID == "" {
				return ErrMissingSpreadsheet
			}
		case SinkSQLite:
			if c.Sinks.SQLite.Path == "" {
				return ErrMissingSQLitePath
			}
		case SinkRedis:
			if c.Redis.Addr == "" {
				return ErrMissingRedis
			}
		default:
			return fmt.Errorf("%w: %q", ErrUnknownSink, name)
		}
	}

	return nil
}
