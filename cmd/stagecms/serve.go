package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goliatone/go-stagecms/internal/di"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return opts.withContainer(ctx, func(c *di.Container) error {
				if addr != "" {
					c.Config.Server.Addr = addr
				}
				return serve(ctx, c)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

// serve runs the API listener and the schema watcher until ctx ends or one
// of them fails.
func serve(ctx context.Context, c *di.Container) error {
	logger := c.Logger()
	server := &http.Server{
		Addr:         c.Config.Server.Addr,
		Handler:      c.HTTPHandler().Handler(),
		ReadTimeout:  c.Config.Server.ReadTimeout,
		WriteTimeout: c.Config.Server.WriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("stagecms.serve.listening", "addr", server.Addr, "writes_enabled", c.Config.Storage.WritesEnabled)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return c.WatchSchemas(ctx)
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		logger.Info("stagecms.serve.shutdown")
		return server.Shutdown(shutdownCtx)
	})
	return group.Wait()
}
