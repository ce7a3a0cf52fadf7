package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"gdash/internal/app"
	"gdash/internal/ingest"
	"gdash/internal/metrics"
	"gdash/internal/normalize"
	"gdash/internal/server"
	"gdash/internal/state"
)

func main() {
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := app.NewLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatalw("dashboard failed", "err", err)
	}
}

func run(cfg app.Config, logger *zap.SugaredLogger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st := state.NewStore()
	mreg := metrics.NewRegistry()
	pipeline := ingest.NewPipeline(st, normalize.New(logger), mreg, logger)

	streams := []struct {
		stream ingest.Stream
		topic  string
	}{
		{ingest.StreamCustomers, cfg.TopicCustomers},
		{ingest.StreamOrders, cfg.TopicOrders},
		{ingest.StreamLineItems, cfg.TopicLineItems},
	}

	var wg sync.WaitGroup
	for _, s := range streams {
		consumer, err := ingest.NewConsumer(cfg.KafkaBootstrap, cfg.GroupID, s.topic, s.stream, pipeline, logger)
		if err != nil {
			stop()
			wg.Wait()
			return err
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorw("consumer exited", "err", err)
			}
		}()
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: server.New(st, mreg, logger).Router(),
	}
	go func() {
		logger.Infow("http server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("http server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorw("http shutdown", "err", err)
	}
	wg.Wait()
	return nil
}
