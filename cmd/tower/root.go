package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/tower/internal/cli"
)

var (
	settings cli.Settings
	logger   *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tower",
	Short: "Tower converges multistage distillation columns",
	Long: `Tower solves steady-state distillation columns described in YAML, JSON or TOML
definitions, compares solver strategies and serves results over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		v := cli.NewViper()
		flags := cmd.Root().PersistentFlags()
		for key, flag := range map[string]string{
			"dir":         "dir",
			"log_level":   "log-level",
			"log_json":    "log-json",
			"store":       "store",
			"redis.addr":  "redis-addr",
			"timeout":     "timeout",
			"concurrency": "concurrency",
		} {
			if err := v.BindPFlag(key, flags.Lookup(flag)); err != nil {
				return err
			}
		}

		configFile, _ := flags.GetString("config")
		dir, _ := flags.GetString("dir")
		var err error
		if settings, err = cli.LoadSettings(v, configFile, dir); err != nil {
			return err
		}
		logger, err = cli.NewLogger(settings)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing column definitions")
	flags.String("config", "", "Config file (default: tower.{yaml,toml,json} in --dir)")
	flags.String("log-level", "warn", "Log level: debug, info, warn or error")
	flags.Bool("log-json", false, "Write logs as JSON")
	flags.String("store", "memory", "Result store: memory, file or redis")
	flags.String("redis-addr", "localhost:6379", "Redis address for the redis store")
	flags.Duration("timeout", 0, "Abandon a solve after this long (0 disables)")
	flags.Int("concurrency", 0, "Concurrent solves (0 means one per CPU)")
}
