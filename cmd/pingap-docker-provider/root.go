package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/melih/pingap-docker-provider/internal/adapters/docker"
	"github.com/melih/pingap-docker-provider/internal/adapters/http"
	"github.com/melih/pingap-docker-provider/internal/adapters/pingap"
	"github.com/melih/pingap-docker-provider/internal/config"
	"github.com/melih/pingap-docker-provider/internal/core/applier"
	"github.com/melih/pingap-docker-provider/internal/core/reconciler"
	"github.com/melih/pingap-docker-provider/internal/logging"
	"github.com/melih/pingap-docker-provider/internal/metrics"
)

// options holds the command-line flags. Flags that were set take precedence
// over the environment and the config file.
type options struct {
	configPath     string
	pingapAdminURL string
	dockerHost     string
	logLevel       string
	logFormat      string
	statusAddr     string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "pingap-docker-provider",
		Short: "Configure pingap from Docker container labels",
		Long: `pingap-docker-provider watches the local Docker daemon and keeps the
upstreams and locations of a pingap reverse proxy in step with the
containers that opt in through pingap.* labels.`,
		Args: cobra.NoArgs,
		// SilenceUsage keeps runtime errors from printing the usage text.
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config(cmd.Flags(), os.Getenv)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, cmd.ErrOrStderr())
		},
	}
	opts.bind(cmd.Flags())
	return cmd
}

func (o *options) bind(flags *pflag.FlagSet) {
	flags.StringVar(&o.configPath, "config", "", "path to a YAML configuration file")
	flags.StringVar(&o.pingapAdminURL, "pingap-admin-url", "", "base URL of the pingap admin API (env "+config.EnvPingapAdminURL+")")
	flags.StringVar(&o.dockerHost, "docker-host", "", "Docker daemon address (env "+config.EnvDockerHost+")")
	flags.StringVar(&o.logLevel, "log-level", "", "log level: trace, debug, info, warn, error (env "+config.EnvLogLevel+")")
	flags.StringVar(&o.logFormat, "log-format", "", "log format: text or json (env "+config.EnvLogFormat+")")
	flags.StringVar(&o.statusAddr, "status-addr", "", "listen address of the status server, disabled when empty (env "+config.EnvStatusAddr+")")
}

// config loads and validates the configuration with the changed flags applied
// last.
func (o *options) config(flags *pflag.FlagSet, getenv func(string) string) (config.Config, error) {
	cfg, err := config.Load(o.configPath, getenv)
	if err != nil {
		return config.Config{}, err
	}

	override := func(name string, field *string, value string) {
		if flags.Changed(name) {
			*field = value
		}
	}
	override("pingap-admin-url", &cfg.PingapAdminURL, o.pingapAdminURL)
	override("docker-host", &cfg.DockerHost, o.dockerHost)
	override("log-level", &cfg.LogLevel, o.logLevel)
	override("log-format", &cfg.LogFormat, o.logFormat)
	override("status-addr", &cfg.StatusAddr, o.statusAddr)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, out)
	if err != nil {
		return err
	}
	log := logging.Component(logger, "main")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	// 1. Docker runtime
	runtime, err := docker.NewAdapter(cfg.DockerHost, logging.Component(logger, "docker"))
	if err != nil {
		return err
	}
	defer runtime.Close()
	if err := runtime.Ping(ctx); err != nil {
		return err
	}

	// 2. pingap admin API
	transport := pingap.NewClient(cfg.PingapAdminURL, nil)
	configApplier := applier.New(transport,
		applier.WithApplyPolicy(applier.DefaultPolicy(cfg.ApplyMaxElapsed)),
		applier.WithDeletePolicy(applier.DefaultPolicy(cfg.DeleteMaxElapsed)),
		applier.WithLogger(logging.Component(logger, "applier")),
		applier.WithMetrics(m),
	)

	// 3. Reconciliation loop
	rec := reconciler.New(runtime, configApplier,
		reconciler.WithLogger(logging.Component(logger, "reconciler")),
		reconciler.WithMetrics(m),
	)

	log.WithFields(logrus.Fields{
		"version":   version,
		"admin_url": cfg.PingapAdminURL,
	}).Info("Starting pingap docker provider")

	g, gctx := errgroup.WithContext(ctx)
	loopCtx, cancel := context.WithCancel(gctx)
	defer cancel()

	g.Go(func() error {
		// The status server follows the loop down.
		defer cancel()
		return rec.Run(loopCtx)
	})

	if cfg.StatusAddr != "" {
		server := http.NewServer(cfg.StatusAddr, rec, reg, logging.Component(logger, "status"))
		g.Go(func() error {
			return server.Run(loopCtx)
		})
	}

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("Provider stopped with error")
		return err
	}
	log.Info("Provider stopped")
	return nil
}
