// Package main is the entry point for dbchat.
// The serve command exposes the chat over WebSocket and the event bus; the
// console command talks to a single local operator on stdin/stdout.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kandev/dbchat/internal/common/config"
	"github.com/kandev/dbchat/internal/common/logger"
)

const serviceName = "dbchat"

var (
	cfgFile string
	v       = config.New()
)

var rootCmd = &cobra.Command{
	Use:   "dbchat",
	Short: "Chat bot that runs database operations one question at a time",
	Long: `dbchat walks operators through connecting to a database, creating and
altering tables, and inserting, selecting and updating rows as a guided
conversation.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file or directory (default ./config.yaml or /etc/dbchat/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(serveCmd, consoleCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadRuntime loads configuration and installs the default logger. With
// stdoutReserved, logs that would go to stdout go to stderr instead.
func loadRuntime(vp *viper.Viper, path string, stdoutReserved bool) (*config.Config, *logger.Logger, error) {
	cfg, err := config.LoadFrom(vp, path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logCfg := cfg.Logging
	if stdoutReserved && (logCfg.OutputPath == "" || logCfg.OutputPath == "stdout") {
		logCfg.OutputPath = "stderr"
	}
	log, err := logger.NewLogger(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.SetDefault(log)
	return cfg, log, nil
}
