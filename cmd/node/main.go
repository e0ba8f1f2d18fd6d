package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/uhyunpark/homebroker/params"
	"github.com/uhyunpark/homebroker/pkg/api"
	"github.com/uhyunpark/homebroker/pkg/app/core/outbox"
	"github.com/uhyunpark/homebroker/pkg/app/matching"
	"github.com/uhyunpark/homebroker/pkg/feed"
	"github.com/uhyunpark/homebroker/pkg/publish"
	"github.com/uhyunpark/homebroker/pkg/storage"
	"github.com/uhyunpark/homebroker/pkg/util"
)

const outboxBatch = 500

func main() {
	// Load config from .env file and environment variables
	cfg := params.LoadFromEnv("")

	logger, err := util.NewLoggerWithFile(cfg.LogFile, cfg.Verbose)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()
	sugar.Infow("logger_initialized", "log_file", cfg.LogFile, "verbose", cfg.Verbose)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Engine ----
	registry := matching.NewRegistry()
	engine := matching.New(cfg.Engine.Symbol,
		matching.WithLogger(sugar.With("symbol", cfg.Engine.Symbol)),
		matching.WithBookDepth(cfg.Engine.BookDepth),
	)
	if err := registry.Register(engine); err != nil {
		sugar.Fatalw("engine_register_failed", "err", err)
	}

	// ---- Downstream sinks (optional) ----
	ob := outbox.New()
	var sinks []outbox.Sink
	apiOpts := []api.Option{
		api.WithLogger(sugar),
		api.WithAllowedOrigins(cfg.API.AllowedOrigins),
		api.WithOutbox(ob),
	}

	if cfg.Journal.Path != "" {
		journal, err := storage.OpenJournal(cfg.Journal.Path)
		if err != nil {
			sugar.Fatalw("journal_open_failed", "path", cfg.Journal.Path, "err", err)
		}
		defer journal.Close()
		sinks = append(sinks, journal)
		apiOpts = append(apiOpts, api.WithHistory(journal))
		sugar.Infow("journal_enabled", "path", cfg.Journal.Path)
	}

	if len(cfg.Kafka.Brokers) > 0 {
		producer := publish.NewKafkaProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		sinks = append(sinks, producer)
		sugar.Infow("fill_stream_enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	outboxDone := make(chan struct{})
	go func() {
		defer close(outboxDone)
		ob.Run(ctx, sugar, outboxBatch, sinks...)
	}()

	// ---- API Server ----
	apiServer := api.NewServer(registry, cfg.Engine.Symbol, apiOpts...)
	go func() {
		if err := apiServer.Start(cfg.API.Addr); err != nil {
			sugar.Fatalw("api_server_failed", "err", err)
		}
	}()

	// ---- Market data feed (optional) ----
	if cfg.Feed.Enabled {
		gen := feed.NewGenerator(feed.Config{
			BasePrice: cfg.Feed.BasePrice,
			TickSize:  cfg.Feed.TickSize,
			Levels:    cfg.Feed.Levels,
		}, time.Now().UnixNano())
		feeder := feed.NewFeeder(engine, gen, cfg.Feed.Interval,
			feed.WithLogger(sugar),
			feed.WithTickHandler(apiServer.OnTick),
		)
		go feeder.Run(ctx)
	} else {
		sugar.Info("feed_disabled")
	}

	sugar.Infow("node_started",
		"symbol", cfg.Engine.Symbol,
		"api_addr", cfg.API.Addr,
		"feed", cfg.Feed.Enabled,
		"sinks", len(sinks))

	<-ctx.Done()
	shutdown(sugar, apiServer, outboxDone)
}

func shutdown(log *zap.SugaredLogger, srv *api.Server, outboxDone <-chan struct{}) {
	log.Info("shutting_down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Warnw("api_shutdown_failed", "err", err)
	}
	select {
	case <-outboxDone:
	case <-ctx.Done():
		log.Warn("outbox_flush_timeout")
	}
}
