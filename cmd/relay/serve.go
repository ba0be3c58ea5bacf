package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dphaener/relay/discovery"
	"github.com/dphaener/relay/internal/cli/config"
	"github.com/dphaener/relay/internal/web/server"
)

func newServeCommand() *cobra.Command {
	var dir string
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the discovered procedures over HTTP",
		Long: `Serve mounts every discovered collection as REST routes plus the
single-path RPC endpoint. Manifest procedures without handlers bound in this
process answer with an error, which makes serve useful for exercising routing
and contracts during development.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if dir == "" {
				dir = cfg.Procedures.Dir
			}

			logger, err := zap.NewDevelopment()
			if err != nil {
				return err
			}
			defer logger.Sync()

			result, err := loadCollections(dir)
			if err != nil {
				return err
			}

			serverConfig := server.DefaultConfig()
			serverConfig.Address = cfg.Address()
			serverConfig.Logger = logger
			serverConfig.RPCBasePath = cfg.RPC.BasePath
			if cfg.Auth.Secret != "" {
				serverConfig.AuthSecret = []byte(cfg.Auth.Secret)
			}

			srv := server.New(serverConfig)
			if err := srv.MountAll(result.Collections); err != nil {
				return err
			}
			srv.MountRPC()

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if watch {
				watcher, err := discovery.NewWatcher(dir, discovery.Options{
					Recursive:            cfg.Procedures.Recursive,
					Extensions:           cfg.Procedures.Extensions,
					Exclude:              cfg.Procedures.Exclude,
					OnInvalidExport:      discovery.PolicyWarn,
					AllowMissingHandlers: true,
					Logger:               logger,
				}, func(r *discovery.Result, err error) {
					if err != nil {
						logger.Warn("rescan failed", zap.Error(err))
						return
					}
					logger.Info("procedures changed; restart to remount",
						zap.Int("collections", len(r.Collections)))
				})
				if err != nil {
					return err
				}
				if err := watcher.Start(); err != nil {
					return err
				}
				defer watcher.Stop()
			}

			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", "", "procedures directory (default from relay.yml)")
	cmd.Flags().BoolVar(&watch, "watch", false, "rescan manifests on change")
	return cmd
}
