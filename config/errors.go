package config

import "errors"

// Validation errors returned by Config.Validate. Callers match them with
// errors.Is.
var (
	// ErrConfigNotFound is returned when an explicitly named file is missing.
	ErrConfigNotFound = errors.New("configuration file not found")

	// ErrNoTickers is returned when a crawl has nothing to visit.
	ErrNoTickers = errors.New("no tickers specified: list them in the config file, FINANCESCRAPPER_TICKERS or as arguments")

	// ErrInvalidBaseURL is returned when the site root is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base url: must be an absolute http or https url")

	// ErrInvalidTimeout is returned when any timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidLocale is returned when the locale tag cannot be parsed.
	ErrInvalidLocale = errors.New("invalid locale tag")

	// ErrUnknownSink is returned for a sink name that has no adapter.
	ErrUnknownSink = errors.New("unknown sink")

	// ErrNoSink is returned when no sink is enabled.
	ErrNoSink = errors.New("no sink enabled")

	// ErrMissingSpreadsheet is returned when the sheets sink has no spreadsheet id.
	ErrMissingSpreadsheet = errors.New("sheets sink enabled without a spreadsheet id")

	// ErrMissingRedis is returned when a redis feature is enabled without an address.
	ErrMissingRedis = errors.New("redis enabled without an address")

	// ErrMissingSQLitePath is returned when the sqlite sink has no database path.
	ErrMissingSQLitePath = errors.New("sqlite sink enabled without a path")
)
