package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"gitlab.com/slon/asynclock/lockbench"
	"gitlab.com/slon/asynclock/lockmetrics"
	"gitlab.com/slon/asynclock/lockopt"
)

type options struct {
	configPath  string
	metricsAddr string
	logLevel    string
	dev         bool
	workload    lockbench.Config
}

func bindFlags(fs *pflag.FlagSet, o *options) {
	def := lockbench.DefaultConfig()
	fs.StringVar(&o.configPath, "config", "", "path to a .yaml workload file")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while running")
	fs.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	fs.BoolVar(&o.dev, "dev", false, "human-readable development logging")
	fs.IntVar(&o.workload.Readers, "readers", def.Readers, "number of concurrent reader clients")
	fs.IntVar(&o.workload.Writers, "writers", def.Writers, "number of concurrent writer clients")
	fs.IntVar(&o.workload.OpsPerClient, "ops", def.OpsPerClient, "operations per client")
	fs.DurationVar(&o.workload.ReadDuration, "read-duration", def.ReadDuration, "simulated work inside a read")
	fs.DurationVar(&o.workload.WriteDuration, "write-duration", def.WriteDuration, "simulated work inside a write")
}

// resolveWorkload merges the workload file with flags; explicitly set flags win.
func resolveWorkload(fs *pflag.FlagSet, o *options) (lockbench.Config, error) {
	if o.configPath == "" {
		return o.workload, o.workload.Validate()
	}

	cfg, err := lockbench.LoadConfig(o.configPath)
	if err != nil {
		return lockbench.Config{}, err
	}
	if fs.Changed("readers") {
		cfg.Readers = o.workload.Readers
	}
	if fs.Changed("writers") {
		cfg.Writers = o.workload.Writers
	}
	if fs.Changed("ops") {
		cfg.OpsPerClient = o.workload.OpsPerClient
	}
	if fs.Changed("read-duration") {
		cfg.ReadDuration = o.workload.ReadDuration
	}
	if fs.Changed("write-duration") {
		cfg.WriteDuration = o.workload.WriteDuration
	}
	return cfg, cfg.Validate()
}

func newLogger(o *options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	if o.dev {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

func serveMetrics(addr string, reg *prometheus.Registry, logger *zap.Logger) func() {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("metrics server shutdown error", zap.Error(err))
		}
	}
}

func newRootCmd() *cobra.Command {
	var o options

	cmd := &cobra.Command{
		Use:           "lockbench",
		Short:         "Run a read/write workload against an asynchronous shared lock",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			workload, err := resolveWorkload(cmd.Flags(), &o)
			if err != nil {
				return err
			}

			logger, err := newLogger(&o)
			if err != nil {
				return fmt.Errorf("logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector())
			lockOpts := []lockopt.Option{
				lockopt.WithLogger(logger),
				lockopt.WithObserver(lockmetrics.New("lockbench", reg)),
			}
			if o.metricsAddr != "" {
				stop := serveMetrics(o.metricsAddr, reg, logger)
				defer stop()
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			report, err := lockbench.Run(ctx, workload, lockOpts...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "run:         %s\n", report.RunID)
			fmt.Fprintf(out, "reads:       %d\n", report.Reads)
			fmt.Fprintf(out, "writes:      %d\n", report.Writes)
			fmt.Fprintf(out, "max readers: %d\n", report.MaxReaders)
			fmt.Fprintf(out, "final value: %d\n", report.FinalValue)
			fmt.Fprintf(out, "violations:  %d\n", report.Violations)
			fmt.Fprintf(out, "elapsed:     %s\n", report.Elapsed)

			if report.Violations != 0 {
				return fmt.Errorf("lock violated exclusion %d times", report.Violations)
			}
			return nil
		},
	}
	bindFlags(cmd.Flags(), &o)
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "lockbench:", err)
		os.Exit(1)
	}
}
