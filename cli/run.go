package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"sensorqc.evalgo.org/config"
	"sensorqc.evalgo.org/engine"
	"sensorqc.evalgo.org/ingest"
	"sensorqc.evalgo.org/obslog"
	"sensorqc.evalgo.org/registry"
	"sensorqc.evalgo.org/sink"
)

func runEngine(cmd *cobra.Command, args []string) error {
	prefix := viper.GetString("config_prefix")

	cfg, err := config.NewConfigLoader(prefix).LoadAll()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	if backend := viper.GetString("registry_backend"); backend != "" {
		cfg.Registry.Backend = config.RegistryBackend(backend)
	}

	log := newLogger(cfg.Service)
	printBanner(cfg)

	reg, err := openRegistry(cfg.Registry, cfg.Cache, log)
	if err != nil {
		return fmt.Errorf("opening registry: %w", err)
	}
	defer reg.Close()

	snk, err := sink.NewAMQPSink(cfg.Bus.URL, cfg.Bus.OutcomeQueue, cfg.Bus.EventQueue)
	if err != nil {
		return fmt.Errorf("opening sink: %w", err)
	}
	defer snk.Close()

	consumer, err := ingest.NewConsumer(cfg.Bus.URL, cfg.Bus.IngestQueue, log)
	if err != nil {
		return fmt.Errorf("opening ingestion consumer: %w", err)
	}
	defer consumer.Close()

	pool := engine.NewPool(engine.NewChecksFactory(reg, cfg.Window.DeltaBuffer), snk, log, engine.DefaultIdleTimeout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- consumer.Run(ctx, pool.Submit)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	log.Info("engine started, waiting for observations...")

	select {
	case <-sigCh:
		log.Info("received shutdown signal")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error(err, "ingestion consumer stopped unexpectedly")
		}
	}

	cancel()
	pool.Stop()

	return nil
}

func newLogger(svc config.ServiceConfig) *obslog.Logger {
	if svc.LogFormat == "console" {
		return obslog.NewConsole(svc.Name)
	}
	return obslog.New(os.Stdout, svc.Name)
}

func printBanner(cfg *config.AllConfig) {
	fmt.Printf("%s v%s (%s)\n", cfg.Service.Name, cfg.Service.Version, cfg.Service.Environment)
	fmt.Printf("  registry backend : %s\n", cfg.Registry.Backend)
	fmt.Printf("  cache            : enabled=%v ttl=%s max_keys=%s\n",
		cfg.Cache.Enabled, cfg.Cache.TTL, humanize.Comma(int64(cfg.Cache.MaxKeys)))
	fmt.Printf("  windows          : %v\n", cfg.Window.Durations)
	fmt.Printf("  started          : %s\n", humanize.Time(time.Now()))
}

func openRegistry(regCfg config.RegistryConfig, cacheCfg config.CacheConfig, log *obslog.Logger) (registry.Registry, error) {
	var (
		reg registry.Registry
		err error
	)

	switch regCfg.Backend {
	case config.RegistryBackendRedis:
		reg, err = registry.NewRedisRegistry(regCfg.RedisURL)
	default:
		reg, err = registry.OpenBoltRegistry(regCfg.BoltPath, regCfg.BoltBucket)
	}
	if err != nil {
		return nil, err
	}

	if cacheCfg.Enabled {
		reg = registry.NewCachingRegistry(reg, cacheCfg.TTL, regCfg.Timeout, cacheCfg.MaxKeys, log)
	}
	return reg, nil
}
