package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/KilimcininKorOglu/dnidx/internal/cache"
	"github.com/KilimcininKorOglu/dnidx/internal/config"
	"github.com/KilimcininKorOglu/dnidx/internal/dn"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex/flat"
	"github.com/KilimcininKorOglu/dnidx/internal/dnindex/hier"
	"github.com/KilimcininKorOglu/dnidx/internal/kv"
	"github.com/KilimcininKorOglu/dnidx/internal/logging"
)

func newServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Load a config file, open the configured index, and idle until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.DefaultConfig()
			if configFile != "" {
				loaded, err := config.LoadConfig(configFile)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if errs := config.ValidateConfig(cfg); len(errs) > 0 {
				return errs[0]
			}

			log := logging.New(logging.Config{
				Level:  cfg.Logging.Level,
				Format: cfg.Logging.Format,
				Output: cfg.Logging.Output,
			})
			defer log.Sync()

			db, err := kv.Open(kv.Options{SnapshotPath: cfg.Index.SnapshotPath})
			if err != nil {
				return err
			}
			defer db.Close()

			ctx := cmd.Context()
			suffix := dn.NewSuffix(dn.Normalize(cfg.Directory.BaseDN))

			var ix dnindex.Index
			switch cfg.Index.Variant {
			case "flat":
				ix = flat.New(db, suffix, log)
			case "hier":
				ix, err = hier.New(ctx, db, suffix, log)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown index variant %q (want flat or hier)", cfg.Index.Variant)
			}

			if cfg.Cache.Enabled {
				cached, err := cache.Wrap(ix, cfg.Cache.Size)
				if err != nil {
					return err
				}
				ix = cached
			}
			_ = ix // the index is built and held open for the process lifetime; serve exposes no transport through which callers reach it

			log.Info("index ready", "variant", cfg.Index.Variant, "suffix", suffix.String())

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-sigCh:
				log.Info("received signal, shutting down", "signal", sig.String())
			case <-ctx.Done():
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "YAML config file path (defaults applied if empty)")
	return cmd
}
