package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"almgetl/internal/core/version"
	"almgetl/internal/modkit"
	"almgetl/internal/modkit/repokit"
	"almgetl/internal/platform/config"
	perr "almgetl/internal/platform/errors"
	"almgetl/internal/platform/logger"
	"almgetl/internal/platform/schedule"
	"almgetl/internal/platform/store"
	"almgetl/internal/platform/store/pg"
	"almgetl/internal/services/harvest/domain"
	harvestmod "almgetl/internal/services/harvest/module"
	"almgetl/internal/services/harvest/repo"
	"almgetl/internal/services/harvest/service"
)

func main() {
	var (
		fOnce = flag.Bool("once", false, "run a single harvest and exit")
		fEnv  = flag.String("env", ".env", "dotenv file loaded before reading config")
	)
	flag.Parse()

	if err := config.LoadDotEnv(*fEnv); err != nil {
		fmt.Fprintf(os.Stderr, "load %s: %v\n", *fEnv, err)
		os.Exit(1)
	}
	logger.Init(logger.FromEnv())
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bi := version.Info()
	l.Info().Str("version", bi.Version).Str("commit", bi.Commit).Bool("once", *fOnce).Msg("almgetl starting")

	if err := run(ctx, config.New(), *fOnce); err != nil {
		l.Fatal().Err(err).Str("code", perr.CodeOf(err).String()).Msg("almgetl stopped")
	}
	l.Info().Msg("almgetl stopped")
}

// run wires the store, the harvest module and the triggers, then blocks until ctx is done
func run(ctx context.Context, root config.Conf, once bool) error {
	l := logger.Get()
	etl := root.Prefix("ETL_")
	pgCfg := etl.Prefix("PG_")

	opts := harvestmod.FromConfig(root)
	if err := opts.Validate(); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeConfig, "invalid ETL_%s", envName(perr.FieldOf(err)))
	}
	if err := schedule.Validate(opts.Schedule); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeConfig, "invalid ETL_SCHEDULE %q", opts.Schedule)
	}
	dbURL, err := databaseURL(root)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	mt, err := pg.NewMetricsTracer(reg, harvestmod.MetricsNamespace)
	if err != nil {
		return err
	}

	st, err := store.Open(ctx, store.Config{
		AppName: "almgetl",
		PG: store.PGConfig{
			Enabled:     true,
			URL:         dbURL,
			MaxConns:    int32(pgCfg.MayInt("MAX_CONNS", 10)),
			SlowQueryMs: pgCfg.MayInt("SLOW_MS", 500),
			LogSQL:      pgCfg.MayBool("LOG_SQL", false),
		},
	}, store.WithLogger(*l), store.WithTracer(mt))
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeUnavailable, "store open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	repokit.MustGuard(ctx, st)

	if opts.EnsureSchema {
		if err := repo.EnsureSchema(ctx, st.PG); err != nil {
			return err
		}
		l.Info().Msg("schema ensured")
	}

	deps := modkit.Deps{
		Log:     *l,
		Cfg:     root,
		PG:      st.PG,
		Metrics: reg,
	}
	hm := harvestmod.NewWithOptions(deps, opts)
	runner := hm.Ports().(harvestmod.Ports).Runner

	if once {
		_, err := harvest(ctx, runner)
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	if etl.Has("OPS_ADDR") {
		srv := newOpsServer(etl, st, reg, hm)
		g.Go(func() error { return srv.Run(gctx) })
	}

	sched := schedule.New(gctx)
	if err := sched.Add(opts.Schedule, func(jctx context.Context) { _, _ = harvest(jctx, runner) }); err != nil {
		return err
	}
	l.Info().Str("schedule", opts.Schedule).Int("workers", opts.Workers).Int("year", opts.Year).Msg("scheduler armed")

	if opts.RunOnStart {
		g.Go(func() error {
			_, _ = harvest(gctx, runner)
			return nil
		})
	}
	g.Go(func() error { return sched.Run(gctx) })

	return g.Wait()
}

// harvest runs one pass and logs the outcome. Run failures never stop the daemon
func harvest(ctx context.Context, r domain.RunnerPort) (domain.RunSummary, error) {
	sum, err := r.Run(ctx)
	switch {
	case errors.Is(err, service.ErrAlreadyRunning):
		logger.Named("harvest").Info().Msg("previous run still in progress; skipping")
		return sum, nil
	case err != nil && ctx.Err() != nil:
		return sum, nil
	case err != nil:
		logger.Named("harvest").Error().Err(err).Msg("harvest run failed")
	}
	return sum, err
}
