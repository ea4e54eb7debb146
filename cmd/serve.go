package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hurou927/text2sql/internal/config"
	"github.com/hurou927/text2sql/internal/server"
	"github.com/hurou927/text2sql/internal/watch"
)

var (
	serveAddr  string
	serveWatch bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion HTTP API",
	Long:  `Starts the JSON API. With --watch the schema document is reloaded when it changes; requests in flight finish on the previous schema.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		cacheSize := cfg.Cache.Size
		if cacheSize == 0 {
			cacheSize = config.DefaultCacheSize
		}
		conv, err := newConverter(ctx, cacheSize)
		if err != nil {
			return err
		}
		src := server.NewHolder(conv)

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.Addr
		}
		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		srv := server.New(addr, server.NewRouter(src, logger))

		var w *watch.Watcher
		if serveWatch {
			w, err = watch.NewWatcher(cfg.Schema, func() error {
				next, err := newConverter(ctx, cacheSize)
				if err != nil {
					return err
				}
				src.Store(next)
				return nil
			}, logger)
			if err != nil {
				return fmt.Errorf("watching schema: %w", err)
			}
			logger.Info("watching schema", zap.String("file", cfg.Schema))
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return server.Run(gctx, srv, logger) })
		if w != nil {
			g.Go(func() error { return w.Run(gctx) })
		}

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveWatch, "watch", false, "reload the schema document when it changes")
	rootCmd.AddCommand(serveCmd)
}
