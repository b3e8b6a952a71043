package cmd

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"financescrapper/config"
	"financescrapper/crawler"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [TICKER...]",
		Short: "Crawl tickers and store one record per ticker",
		Long: `Crawl visits every page of each ticker in order, one browser session per
ticker. Tickers given as arguments replace those from the configuration.
A ticker that fails is reported and skipped; the command exits non-zero when
any ticker failed.`,
		RunE: runCrawl,
	}
	cmd.Flags().StringSlice("sink", nil, "Override the enabled sinks (jsonl, sheets, sqlite, redis)")
	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("failed to release resources", "error", err)
		}
	}()

	if sinks, _ := cmd.Flags().GetStringSlice("sink"); len(sinks) > 0 {
		a.cfg.Sinks.Enabled = sinks
		if err := a.cfg.Validate(); err != nil {
			return err
		}
	}

	tickers := normalizeTickers(a.cfg.Tickers)
	if len(args) > 0 {
		tickers = normalizeTickers(args)
	}
	if len(tickers) == 0 {
		return config.ErrNoTickers
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	out, err := a.buildSink(ctx, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	o, err := a.orchestrator(out)
	if err != nil {
		return err
	}

	summary := o.Run(ctx, tickers)
	return summaryError(summary)
}

func normalizeTickers(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, raw := range in {
		for _, t := range config.SplitList(raw) {
			t = strings.ToUpper(t)
			if seen[t] {
				continue
			}
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

func summaryError(s crawler.Summary) error {
	if len(s.Failed) == 0 && len(s.Skipped) == 0 {
		return nil
	}
	failed := make([]string, len(s.Failed))
	for i, f := range s.Failed {
		failed[i] = f.Ticker
	}
	return fmt.Errorf("run %s: %d succeeded, %d failed %v, %d skipped",
		s.RunID, len(s.Succeeded), len(s.Failed), failed, len(s.Skipped))
}
