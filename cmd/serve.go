package cmd

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"financescrapper/cache"
	"financescrapper/server"
)

// NewServeCmd creates the serve command.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve on-demand crawls over HTTP",
		Long: `Serve exposes GET /records/{ticker} and GET /healthz. Records are cached
in Redis for server.cacheTtl when redis.addr is set, and appended to the
enabled sinks whenever a fresh crawl completes.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().String("addr", "", "Listen address, overrides server.addr and PORT")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			a.logger.Warn("failed to release resources", "error", err)
		}
	}()

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

	opts := []server.Option{server.WithSink(out), server.WithLogger(a.logger)}
	if a.cfg.Redis.Addr != "" {
		store := cache.NewRedisStore(a.redisClient(), "financescrapper:")
		opts = append(opts, server.WithCache(store, a.cfg.Server.CacheTTL), server.WithHealthCheck(store))
	}

	addr := a.cfg.Server.Addr
	if flag, _ := cmd.Flags().GetString("addr"); flag != "" {
		addr = flag
	}
	return server.New(o, opts...).ListenAndServe(ctx, addr)
}
