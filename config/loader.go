package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	envTickers         = "FINANCESCRAPPER_TICKERS"
	envBaseURL         = "FINANCESCRAPPER_BASE_URL"
	envLocale          = "FINANCESCRAPPER_LOCALE"
	envSinks           = "FINANCESCRAPPER_SINKS"
	envHeadless        = "FINANCESCRAPPER_HEADLESS"
	envElementTimeout  = "FINANCESCRAPPER_ELEMENT_TIMEOUT"
	envDiagnosticsDir  = "FINANCESCRAPPER_DIAGNOSTICS_DIR"
	envSpreadsheetID   = "SPREADSHEET_ID"
	envCredentialsFile = "GOOGLE_APPLICATION_CREDENTIALS"
	envRedisAddr       = "REDIS_ADDR"
	envRedisPassword   = "REDIS_PASSWORD"
	envPort            = "PORT"
	envLogLevel        = "LOG_LEVEL"
	envLogFormat       = "LOG_FORMAT"
)

// DefaultDotEnv is read when present; a missing file is not an error.
const DefaultDotEnv = ".env"

// Load builds the configuration from defaults, the YAML file at path (when
// path is not empty), .env and the process environment.
func Load(path string) (Config, error) {
	return load(path, os.LookupEnv, DefaultDotEnv)
}

func load(path string, lookup func(string) (string, bool), dotenvFiles ...string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) //nolint:gosec // user supplied config path
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
			}
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	dotenv := map[string]string{}
	for _, f := range dotenvFiles {
		vals, err := godotenv.Read(f)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return cfg, fmt.Errorf("read %s: %w", f, err)
		}
		for k, v := range vals {
			if _, ok := dotenv[k]; !ok {
				dotenv[k] = v
			}
		}
	}

	// The process environment wins over .env.
	env := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := dotenv[key]
		return v, ok && v != ""
	}

	if err := cfg.applyEnv(env); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(env func(string) (string, bool)) error {
	if v, ok := env(envTickers); ok {
		c.Tickers = SplitList(v)
	}
	if v, ok := env(envBaseURL); ok {
		c.BaseURL = v
	}
	if v, ok := env(envLocale); ok {
		c.Locale = v
	}
	if v, ok := env(envSinks); ok {
		c.Sinks.Enabled = SplitList(v)
	}
	if v, ok := env(envHeadless); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envHeadless, err)
		}
		c.Browser.Headless = b
	}
	if v, ok := env(envElementTimeout); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", envElementTimeout, err)
		}
		c.Timeouts.Element = d
	}
	if v, ok := env(envDiagnosticsDir); ok {
		c.Diagnostics.Dir = v
	}
	if v, ok := env(envSpreadsheetID); ok {
		c.Sinks.Sheets.SpreadsheetID = v
	}
	if v, ok := env(envCredentialsFile); ok {
		c.Sinks.Sheets.CredentialsFile = v
	}
	if v, ok := env(envRedisAddr); ok {
		c.Redis.Addr = v
	}
	if v, ok := env(envRedisPassword); ok {
		c.Redis.Password = v
	}
	if v, ok := env(envPort); ok {
		c.Server.Addr = ":" + strings.TrimPrefix(v, ":")
	}
	if v, ok := env(envLogLevel); ok {
		c.Log.Level = v
	}
	if v, ok := env(envLogFormat); ok {
		c.Log.Format = v
	}
	return nil
}

// SplitList splits a comma or whitespace separated list, dropping empties.
func SplitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
