package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/xoelrdgz/ironwatch/internal/adapters/output"
	"github.com/xoelrdgz/ironwatch/internal/adapters/storage"
	"github.com/xoelrdgz/ironwatch/internal/app"
	"github.com/xoelrdgz/ironwatch/internal/ports"
)

var (
	blockIP     string
	blockReason string
	unblockIP   string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan access logs and list suspects",
	Long: `Evaluate every configured rule against the access logs and print the
deduplicated suspect list. Nothing is written to the block store.

Examples:
  ironwatch scan -c /etc/ironwatch/config.json
  ironwatch scan --json | jq '.suspects[].address'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *runtimeEnv) error {
			result, err := env.scan(ctx)
			if err != nil {
				return err
			}
			return env.reporter().Report(ctx, result.RunID, result.Suspects)
		})
	},
}

var scanBlockCmd = &cobra.Command{
	Use:   "scan-block",
	Short: "Scan access logs and block every suspect",
	Long: `Scan, store every new suspect, republish the current month's deny
configuration and reload the web server.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *runtimeEnv) error {
			result, err := env.scan(ctx)
			if err != nil {
				return err
			}
			if err := env.reporter().Report(ctx, result.RunID, result.Suspects); err != nil {
				return err
			}

			inserted, err := env.blocker.BlockAll(ctx, result.Suspects)
			if err != nil {
				return err
			}
			log.Info().Str("run_id", result.RunID).Int("blocked", inserted).Msg("Suspects blocked")

			return env.publishAndReload(ctx)
		})
	},
}

var blockCmd = &cobra.Command{
	Use:     "block",
	Short:   "Block an address",
	Example: `  ironwatch block --ip 203.0.113.7 --reason "credential stuffing"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *runtimeEnv) error {
			if _, err := env.blocker.Block(ctx, blockIP, blockReason); err != nil {
				return err
			}
			return env.publishAndReload(ctx)
		})
	},
}

var unblockCmd = &cobra.Command{
	Use:     "unblock",
	Short:   "Unblock an address",
	Example: `  ironwatch unblock --ip 203.0.113.7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *runtimeEnv) error {
			if _, err := env.blocker.Unblock(ctx, unblockIP); err != nil {
				return fmt.Errorf("unblock %s: %w", unblockIP, err)
			}
			return env.blocker.Reload(ctx)
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List blocked addresses",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withEnv(cmd.Context(), func(ctx context.Context, env *runtimeEnv) error {
			records, err := env.blocker.List(ctx)
			if err != nil {
				return err
			}
			if jsonOut {
				return output.NewJSONReporter(os.Stdout, true).Records(records)
			}
			return output.NewTableRenderer(os.Stdout).RenderRecords(records)
		})
	},
}

func init() {
	blockCmd.Flags().StringVarP(&blockIP, "ip", "i", "", "address to block")
	blockCmd.Flags().StringVarP(&blockReason, "reason", "r", "", "reason stored with the record")
	_ = blockCmd.MarkFlagRequired("ip")

	unblockCmd.Flags().StringVarP(&unblockIP, "ip", "i", "", "address to unblock")
	_ = unblockCmd.MarkFlagRequired("ip")
}

// runtimeEnv holds the components one command invocation needs.
type runtimeEnv struct {
	store   ports.BlockStore
	metrics *output.PrometheusMetrics
	blocker *app.Blocker
}

func withEnv(ctx context.Context, fn func(context.Context, *runtimeEnv) error) error {
	store, err := storage.Open(cfg.DatabaseDriver, cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	env := &runtimeEnv{
		store:   store,
		metrics: output.NewPrometheusMetrics("ironwatch"),
		blocker: app.NewBlocker(store, output.NewFilePublisher(output.PublisherConfig{
			Name:          cfg.Name,
			TemplatePath:  cfg.Server.Conf.Template,
			Location:      cfg.Server.Conf.Location,
			ReloadCommand: cfg.Server.Conf.Reload,
		}), cfg.Whitelist),
	}
	env.blocker.SetObserver(env.metrics)

	runErr := fn(ctx, env)

	if err := env.metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
		log.Warn().Err(err).Msg("Failed to write metrics")
	}
	return runErr
}

func (e *runtimeEnv) scan(ctx context.Context) (app.ScanResult, error) {
	scanner, err := app.NewScanner(cfg, app.ScannerDeps{
		History:  e.store,
		Observer: e.metrics,
	})
	if err != nil {
		return app.ScanResult{}, err
	}

	result, err := scanner.Scan(ctx)
	if err != nil {
		return result, err
	}
	e.metrics.ObserveScan(result.Duration, time.Now())
	return result, nil
}

func (e *runtimeEnv) reporter() ports.SuspectReporter {
	if jsonOut {
		return output.NewJSONReporter(os.Stdout, true)
	}
	return output.NewTableRenderer(os.Stdout)
}

func (e *runtimeEnv) publishAndReload(ctx context.Context) error {
	if _, err := e.blocker.SyncLatest(ctx); err != nil {
		return err
	}
	return e.blocker.Reload(ctx)
}
