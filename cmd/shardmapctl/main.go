package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pg-sharding/shardmapctl/pkg"
	"github.com/pg-sharding/shardmapctl/pkg/config"
	"github.com/pg-sharding/shardmapctl/pkg/console"
	"github.com/pg-sharding/shardmapctl/pkg/directory"
	"github.com/pg-sharding/shardmapctl/pkg/models/shardmaps"
	"github.com/pg-sharding/shardmapctl/pkg/models/shards"
	"github.com/pg-sharding/shardmapctl/pkg/spqrlog"
	"github.com/pg-sharding/shardmapctl/qdb"
)

var (
	cfgPath   string
	logLevel  string
	storeType string
)

var rootCmd = &cobra.Command{
	Use:   "shardmapctl --config `path-to-config`",
	Short: "Interactive shard directory manager",
	Long:  "shardmapctl lists, creates and deletes shard maps and the shards they contain.",
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadDirectoryCfg(cfgPath)
		if err != nil {
			return err
		}
		if logLevel != "" {
			cfg.LogLevel = logLevel
		}
		if storeType != "" {
			cfg.StoreType = storeType
		}

		spqrlog.ReloadLogger(cfg.LogFile, cfg.PrettyLogging || cfg.LogFile == "")
		if err := spqrlog.UpdateZeroLogLevel(cfg.LogLevel); err != nil {
			return err
		}
		spqrlog.Zero.Debug().Str("config", cfg.String()).Msg("loaded config")

		if err := cfg.Validate(); err != nil {
			return err
		}
		keyType, err := shardmaps.ParseKeyType(cfg.KeyType)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		connectCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
		db, err := qdb.NewQDB(connectCtx, cfg.Options())
		cancel()
		if err != nil {
			return err
		}
		defer func() {
			if err := db.Close(); err != nil {
				spqrlog.Zero.Error().Err(err).Msg("failed to close shard directory store")
			}
		}()

		spqrlog.Zero.Info().
			Str("store", cfg.StoreType).
			Str("directory", cfg.DirectoryName()).
			Str("server", cfg.Server).
			Msg("connected to shard directory")

		ctl := console.NewController(
			console.Config{
				HomeServer:        cfg.Server,
				DirectoryDatabase: cfg.DirectoryName(),
			},
			directory.NewShardMapRegistry(db, keyType),
			func(sm *shardmaps.ShardMap) shards.ShardMgr {
				return directory.NewShardRegistry(db, sm)
			},
		)

		err = console.NewSession(ctl, os.Stdin, os.Stdout).Run(ctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of shardmapctl",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("shardmapctl %s\n", pkg.ShardMapCtlRevision)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (.toml, .yaml or .json)")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "l", "", "log level, overrides the config file")
	rootCmd.PersistentFlags().StringVarP(&storeType, "store", "s", "", "store type: mem, etcd, sql or zk")
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "shardmapctl: %s\n", err)
		os.Exit(1)
	}
}
