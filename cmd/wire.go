package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"financescrapper/browser"
	"financescrapper/cache"
	"financescrapper/config"
	"financescrapper/crawler"
	"financescrapper/finance"
	"financescrapper/logging"
	"financescrapper/normalize"
	"financescrapper/sink"
)

// app holds what a command builds from the configuration and releases on exit.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	redis   *redis.Client
	closers []func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logging.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format)
	logger.Debug("configuration loaded", "path", path, "sinks", cfg.Sinks.Enabled, "redis_addr", cfg.Redis.Addr)
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	return errors.Join(errs...)
}

func (a *app) redisClient() *redis.Client {
	if a.redis == nil {
		a.redis = cache.NewRedisClient(a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
		a.closers = append(a.closers, a.redis.Close)
	}
	return a.redis
}

func financeOptions(cfg config.Config) (finance.Options, error) {
	policy, err := normalize.NewPolicy(cfg.Locale)
	if err != nil {
		return finance.Options{}, err
	}
	opts := finance.DefaultOptions()
	opts.Policy = policy
	opts.HolderName = cfg.HolderName
	opts.ForwardPETimeout = cfg.Timeouts.ForwardPE
	opts.ToggleTimeout = cfg.Timeouts.Toggle
	return opts, nil
}

func browserOptions(cfg config.Config) browser.Options {
	return browser.Options{
		Headless:          cfg.Browser.Headless,
		UserAgent:         cfg.Browser.UserAgent,
		WindowWidth:       cfg.Browser.WindowWidth,
		WindowHeight:      cfg.Browser.WindowHeight,
		NavigationTimeout: cfg.Timeouts.Navigation,
		ActionTimeout:     cfg.Timeouts.Action,
	}
}

// buildSink opens every enabled sink. jsonl with path "-" writes to stdout.
func (a *app) buildSink(ctx context.Context, stdout io.Writer) (*sink.Multi, error) {
	multi := sink.NewMulti()
	sc := a.cfg.Sinks

	for _, name := range sc.Enabled {
		switch name {
		case config.SinkJSONL:
			if sc.JSONL.Path == "-" || sc.JSONL.Path == "" {
				multi.Add(sink.NewJSONLines(stdout))
				continue
			}
			if err := os.MkdirAll(filepath.Dir(sc.JSONL.Path), 0o750); err != nil {
				return nil, err
			}
			f, err := os.OpenFile(sc.JSONL.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600) //nolint:gosec // configured output path
			if err != nil {
				return nil, fmt.Errorf("open %s: %w", sc.JSONL.Path, err)
			}
			a.closers = append(a.closers, f.Close)
			multi.Add(sink.NewJSONLines(f))

		case config.SinkSheets:
			opts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
			if sc.Sheets.CredentialsFile != "" {
				opts = append(opts, option.WithCredentialsFile(sc.Sheets.CredentialsFile))
			}
			s, err := sink.NewSheetsSink(ctx, sc.Sheets.SpreadsheetID, sc.Sheets.Worksheet, opts...)
			if err != nil {
				return nil, err
			}
			multi.Add(s)

		case config.SinkSQLite:
			s, err := sink.OpenSQLite(sc.SQLite.Path)
			if err != nil {
				return nil, err
			}
			a.closers = append(a.closers, s.Close)
			multi.Add(s)

		case config.SinkRedis:
			multi.Add(sink.NewRedisSink(a.redisClient(), sc.Redis.Key))

		default:
			return nil, fmt.Errorf("%w: %q", config.ErrUnknownSink, name)
		}
	}

	a.logger.Debug("sinks ready", "count", multi.Len())
	return multi, nil
}

func (a *app) orchestrator(s sink.Sink) (*crawler.Orchestrator, error) {
	fopts, err := financeOptions(a.cfg)
	if err != nil {
		return nil, err
	}

	launcher := browser.NewChromeLauncher(browserOptions(a.cfg), a.logger)
	d := a.cfg.Diagnostics
	return crawler.New(launcher, finance.NewDefaultRegistry(fopts), s,
		crawler.WithLogger(a.logger),
		crawler.WithBaseURL(a.cfg.BaseURL),
		crawler.WithWaitTimeout(a.cfg.Timeouts.Element),
		crawler.WithDiagnostics(d.Dir, d.ScreenshotOnFailure, d.PageSnapshots),
	), nil
}
