package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/reschema/internal/cli"
	"github.com/aretw0/reschema/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "reschema",
	Short: "reschema compiles declarative schemas into reducers, actions and selectors",
	Long: `reschema turns named operation specs into a state container: a reducer keyed by
action type, sync and async action creators, and selectors over a namespaced tree.
This command serves and inspects the bundled demo schemas.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML config file (env RESCHEMA_* overrides it)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

// loadConfig resolves the config file and flag overrides shared by every command.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level, _ = cmd.Flags().GetString("log-level")
	}
	logger, err := cli.NewLogger(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
