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

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/NotCoffee418/home_energy_dashboard/pkg/accounts"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/config"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/metrics"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/notify"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/sampledata"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/session"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/usage"
	"github.com/NotCoffee418/home_energy_dashboard/pkg/webapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStores()
	if err != nil {
		return err
	}
	defer st.Close()

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("Redis is not reachable, logins will fail until it is", zap.Error(err))
	}
	sessions := session.NewStore(redisClient, cfg.SessionTTL())

	accountSvc := accounts.NewService(st.accounts, st.readings, sessions, dispatcher(cfg, logger), logger, accounts.Options{})
	if cfg.SeedOnVerify {
		accountSvc.OnVerified = sampledata.New(st.accounts, st.readings, logger).OnVerified
	}
	usageSvc := usage.NewService(st.readings, st.accounts, logger, usage.Options{
		MaxRangeDays: cfg.MaxRangeDays,
		TariffPerKWh: cfg.TariffPerKWh,
	})

	server := webapi.NewServer(usageSvc, accountSvc, metrics.New(), logger, webapi.Options{
		RequestTimeout: cfg.RequestTimeout(),
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  cfg.SecureCookies,
		SessionTTL:     cfg.SessionTTL(),
	}, map[string]webapi.Pinger{
		"readings": st.readings,
		"accounts": st.accounts,
		"sessions": sessions,
	})

	listener := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)
	httpServer := &http.Server{
		Addr:              listener,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("Dashboard API listening", zap.String("address", listener))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("serving http: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func dispatcher(cfg *config.DashboardAPIConfig, logger *zap.Logger) notify.Dispatcher {
	if !cfg.SMS.Enabled {
		logger.Info("SMS delivery disabled, verification codes are logged")
		return notify.LogDispatcher{Logger: logger}
	}
	return notify.NewSMSGateway(notify.SMSConfig{
		BaseURL:             cfg.SMS.BaseURL,
		AccountSID:          cfg.SMS.AccountSID,
		AuthToken:           cfg.SMS.AuthToken,
		MessagingServiceSID: cfg.SMS.MessagingServiceSID,
		Timeout:             time.Duration(cfg.SMS.TimeoutSeconds) * time.Second,
	}, logger)
}
