package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/crimson-sun/vigil/internal/config"
	"github.com/crimson-sun/vigil/internal/logging"
	"github.com/crimson-sun/vigil/internal/metrics"
	"github.com/crimson-sun/vigil/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	defer a.close()
	if err := newRootCmd(a).ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

// app carries what the persistent pre-run resolves to the subcommands.
type app struct {
	cfg     config.Config
	logs    io.Closer
	metrics *metrics.Recorder
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "vigil",
		Short: "Batch anomaly detection and remediation planning for metric snapshots",
		Long: `vigil evaluates a metrics snapshot for spikes, budget overrun risk,
failure bursts and latency regressions, then maps each anomaly to remediation
actions from a playbook and writes a JSON plan plus a Markdown audit.`,
		Version:       config.Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.String(config.KeyLogLevel, "info", "log level: debug, info, warn, error")
	pf.String(config.KeyLogFormat, "text", "log format: text or json")
	pf.String(config.KeyLogFile, "", "write logs to a rotated file instead of stderr")
	pf.Bool(config.KeyPretty, false, "indent JSON written to stdout")
	pf.String(config.KeyMetricsFile, "", "write Prometheus metrics to this textfile after each run")

	root.AddCommand(newDetectCmd(a), newActCmd(a), newRunCmd(a))
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	a.cfg = cfg
	a.logs = logging.Init(logging.Options{
		Level: logging.ParseLevel(cfg.Log.Level),
		JSON:  strings.EqualFold(cfg.Log.Format, "json"),
		File:  cfg.Log.File,
	})
	if cfg.Metrics.TextfilePath != "" {
		a.metrics = metrics.New()
	}
	return nil
}

// pipeline builds a Pipeline for cmd from the resolved configuration.
func (a *app) pipeline(cmd *cobra.Command) *pipeline.Pipeline {
	opts := []pipeline.Option{
		pipeline.WithStdout(cmd.OutOrStdout()),
		pipeline.WithPretty(a.cfg.Output.Pretty),
	}
	if a.metrics != nil {
		opts = append(opts, pipeline.WithMetrics(a.metrics))
	}
	return pipeline.New(opts...)
}

// finish exports metrics when a textfile is configured.
func (a *app) finish() error {
	if a.metrics == nil {
		return nil
	}
	if err := a.metrics.WriteTextfile(a.cfg.Metrics.TextfilePath); err != nil {
		return err
	}
	slog.Debug("metrics written", "path", a.cfg.Metrics.TextfilePath)
	return nil
}

func (a *app) close() {
	if a.logs != nil {
		a.logs.Close()
	}
}
