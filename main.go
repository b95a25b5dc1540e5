package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"sinkhole/pkg/adlist"
	"sinkhole/pkg/config"
	"sinkhole/pkg/logger"
	"sinkhole/pkg/metrics"
	"sinkhole/pkg/progress"
	"sinkhole/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	logLevel    string
	metricsFile string
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:          version.Name,
		Short:        "Build resolver blocklists from adlists",
		Version:      version.Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.configPath, "config", "c", "",
		"configuration file (default $"+config.EnvVar+" or "+config.DefaultPath+")")
	flags.StringVar(&opts.logLevel, "log-level", "", "log level overriding the configuration")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "metrics textfile overriding the configuration")

	cmd.AddCommand(newCatalogCmd())

	return cmd
}

func newCatalogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "catalog",
		Short: "List the built-in adlists",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			ids := make([]string, 0, len(adlist.Catalog))
			for id := range adlist.Catalog {
				ids = append(ids, id)
			}
			slices.Sort(ids)

			for _, id := range ids {
				e := adlist.Catalog[id]
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-28s %-8s %s\n", e.ID, e.Format, e.Description)
			}
		},
	}
}

func run(ctx context.Context, opts *options) (err error) {
	cfg, err := config.Setup(config.Path(opts.configPath))
	if err != nil {
		return err
	}

	if opts.logLevel != "" {
		if err = config.ValidateLogLevel(opts.logLevel); err != nil {
			return err
		}
		cfg.Logging.Level = opts.logLevel
	}
	if opts.metricsFile != "" {
		cfg.Metrics.Textfile = opts.metricsFile
	}

	log := logger.Setup(cfg.Logging.Level, cfg.Logging.File)

	b, err := cfg.Builder(log)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return err
	}
	p := b.Build()

	log.Info("starting run",
		"version", version.Version,
		"adlists", len(p.Adlists()),
		"outputs", len(p.Outputs()),
		"whitelist", p.Whitelist().Len())

	stats := metrics.NewObserver()
	start := time.Now()

	err = p.Run(ctx, progress.Multi(progress.NewLogObserver(log), stats))

	if cfg.Metrics.Textfile != "" {
		err = multierr.Append(err, stats.WriteTextfile(cfg.Metrics.Textfile))
	}

	if err != nil {
		log.Error("run failed", "error", err, "duration", time.Since(start))
		return err
	}

	log.Info("run finished", "duration", time.Since(start))
	return nil
}
