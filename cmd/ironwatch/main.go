package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/xoelrdgz/ironwatch/internal/app"
)

var (
	cfgFile  string
	logLevel string
	jsonOut  bool

	// cfg is loaded by the root PersistentPreRunE for every command except version.
	cfg *app.Config

	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "ironwatch",
	Short: "Access-log suspect detection and blocking",
	Long: `IronWatch scans web server access logs for abusive clients, using
request-rate rules and abuse-confidence reputation lookups, and maintains
a monthly deny list for the web server.

Rule Types:
  - rate_limit_rule:   N hits on a route within W seconds
  - abuse_report_rule: AbuseIPDB confidence at or above a threshold

Blocked addresses are stored locally and double as a verdict cache, so an
address is looked up at most once.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

var versionCmd = &cobra.Command{
	Use:               "version",
	Short:             "Print version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("IronWatch %s\n", Version)
		fmt.Printf("Commit:    %s\n", Commit)
		fmt.Printf("Built:     %s\n", BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.json", "path to configuration file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print results as JSON")

	rootCmd.AddCommand(scanCmd, scanBlockCmd, blockCmd, unblockCmd, showCmd, versionCmd)
}

func loadConfig(cmd *cobra.Command, args []string) error {
	setupConsoleLogging()

	c, err := app.ReadConfig(cfgFile)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.Logging.Level = logLevel
	}
	cfg = c

	return setupLogging(cfg.Logging)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	closeLogging()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
