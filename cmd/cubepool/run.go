package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"code.cubepool.io/cube/api"
	"code.cubepool.io/cube/broker"
	"code.cubepool.io/cube/config"
	"code.cubepool.io/cube/feeds"
	"code.cubepool.io/cube/logging"
	"code.cubepool.io/cube/metrics"
	"code.cubepool.io/cube/pool"
	"code.cubepool.io/cube/pricing"

	"github.com/jessevdk/go-flags"
)

type RunCmd struct {
	config.RootPathFlag
}

var runCmd RunCmd

func Run(_ context.Context, parser *flags.Parser) error {
	runCmd = RunCmd{
		RootPathFlag: config.NewRootPathFlag(),
	}
	_, err := parser.AddCommand("run", "Run the node", "Run a cube pool node as defined by the config files", &runCmd)
	return err
}

func (opts *RunCmd) Execute(_ []string) error {
	log := logging.NewLoggerFromConfig(logging.NewDefaultConfig())
	defer log.AtExit()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	confWatcher, err := config.NewFromFile(ctx, log, opts.RootPath)
	if err != nil {
		return err
	}
	cfg := confWatcher.Get()

	bkr := broker.New(ctx, log, cfg.Broker)
	reg := feeds.NewRegistry(log, cfg.Feeds)
	pricer, err := pricing.New(log, cfg.Pricing, reg)
	if err != nil {
		return err
	}
	eng := pool.New(log, cfg.Pool, bkr, pricer, time.Now())
	srv := api.NewServer(log, cfg.API, eng, reg)

	confWatcher.OnConfigUpdate(
		func(c config.Config) { reg.ReloadConf(c.Feeds) },
		func(c config.Config) { pricer.ReloadConf(c.Pricing) },
		func(c config.Config) { eng.ReloadConf(c.Pool) },
	)

	metrics.Start(cfg.Metrics)

	go func() {
		defer cancel()
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("api server failed", logging.Error(err))
		}
	}()

	go opts.loop(ctx, log, confWatcher, eng, cfg.Pool.UpdateInterval.Get())

	waitSig(ctx, log)

	if err := srv.Stop(); err != nil {
		log.Error("error stopping api server", logging.Error(err))
	} else {
		log.Info("api server stopped with success")
	}
	return nil
}

// loop drives time into the engine and the config watcher, and reprices all
// cube tokens at the configured interval.
func (opts *RunCmd) loop(ctx context.Context, log *logging.Logger, confWatcher *config.Watcher, eng *pool.Engine, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case now := <-ticker.C:
			eng.OnTimeUpdate(ctx, now)
			confWatcher.OnTimeUpdate(ctx, now)
			if err := eng.UpdateAllPrices(ctx); err != nil {
				log.Debug("price update skipped", logging.Error(err))
			}
			st := eng.State()
			metrics.PoolBalanceSet(st.PoolBalance.Float64())
			metrics.TotalEquitySet(st.TotalEquity.Float64())
		case <-ctx.Done():
			return
		}
	}
}
