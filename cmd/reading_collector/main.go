// Reading collector stores readings from the live feed and the MQTT broker.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/collector"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/config"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/livefeed"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/logging"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/metrics"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/mqttfeed"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/pathing"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/readingdb"
)

func main() {
	if err := pathing.EnsureDirs(); err != nil {
		log.Fatalf("Failed to create directories: %v", err)
	}
	cfg, err := config.LoadReadingCollectorConfig(os.Getenv("READING_COLLECTOR_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load reading collector config: %v", err)
	}
	logger, err := logging.NewLogger(cfg.LogLevel, cfg.LogFormat, "reading_collector")
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	db, err := readingdb.Open(pathing.GetReadingDbPath(), readingdb.DefaultOptions())
	if err != nil {
		logger.Fatal("Failed to open reading store", zap.Error(err))
	}
	defer db.Close()

	m := metrics.New()
	hub := livefeed.NewHub(logger)
	c := collector.New(db, m, logger).WithBroadcaster(hub)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	if cfg.FeedHost != "" {
		listener := livefeed.NewListener(livefeed.Options{
			Host: cfg.FeedHost,
			TLS:  cfg.TLSEnabled,
		}, logger, c.Handler(collector.SourceWebsocket))
		g.Go(func() error { return listener.Run(gctx) })
	}

	if cfg.MQTT.Enabled {
		sub := mqttfeed.NewSubscriber(mqttfeed.Options{
			Broker:   cfg.MQTT.Broker,
			Topic:    cfg.MQTT.Topic,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      cfg.MQTT.QoS,
		}, logger, c.Handler(collector.SourceMQTT))
		g.Go(func() error { return sub.Run(gctx) })
	}

	if cfg.ListenAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", m.Handler())
		mux.Handle("/ws", hub)
		srv := &http.Server{Addr: cfg.ListenAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("Serving metrics and live readings", zap.String("address", cfg.ListenAddress))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Fatal("Reading collector stopped", zap.Error(err))
	}
	logger.Info("Reading collector stopped")
}
