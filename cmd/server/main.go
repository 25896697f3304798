package main

import (
	"context"
	"errors"
	"flag"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/rl1809/material-scanner/internal/adapter/decoder"
	"github.com/rl1809/material-scanner/internal/adapter/export"
	"github.com/rl1809/material-scanner/internal/adapter/handler"
	"github.com/rl1809/material-scanner/internal/config"
	"github.com/rl1809/material-scanner/internal/core/service"
	"github.com/rl1809/material-scanner/internal/logger"
	"github.com/rl1809/material-scanner/internal/metrics"
	"github.com/rl1809/material-scanner/internal/port"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("failed to load config")
	}

	log := logger.New(cfg.App.Env, cfg.App.LogLevel)

	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatal("invalid timezone")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize decoder
	var (
		dec  port.Decoder
		push *decoder.PushDecoder
		rdb  *redis.Client
	)
	switch cfg.Decoder.Source {
	case config.DecoderRedis:
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.WithError(err).Fatal("failed to connect redis")
		}
		log.WithField("addr", cfg.Redis.Addr).Info("connected to redis")
		dec = decoder.NewRedisDecoder(rdb, cfg.Redis.Channel, logger.Module(log, "redis_decoder")).
			WithHealthInterval(cfg.Redis.HealthInterval)
	default:
		push = decoder.NewPushDecoder()
		dec = push
	}

	// Initialize metrics
	var recorder port.MetricsRecorder = port.NopMetrics{}
	if cfg.Metrics.Enabled {
		recorder = metrics.New(prometheus.DefaultRegisterer)
	}

	health := handler.NewGRPCHealthHandler()

	controller := service.NewController(dec, service.NewInventory(), service.ControllerOptions{
		Capture:     cfg.Capture(),
		EventBuffer: cfg.Scan.EventBuffer,
		Session: service.SessionOptions{
			Debounce: cfg.Scan.Debounce,
			Namer:    cfg.Namer(),
			Metrics:  recorder,
			Log:      logger.Module(log, "scan_session"),
		},
		Listener: health,
		Log:      logger.Module(log, "controller"),
	})

	// Initialize HTTP server
	httpHandler := handler.NewHTTPHandler(controller, push, export.NewXLSXExporter(loc), cfg.Capture(), logger.Module(log, "http"))
	router := mux.NewRouter()
	httpHandler.Routes(router)
	if cfg.Metrics.Enabled {
		router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Initialize gRPC server
	grpcServer := grpc.NewServer()
	health.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.GRPC.Addr)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.WithField("addr", cfg.GRPC.Addr).Info("gRPC server listening")
		return grpcServer.Serve(lis)
	})

	g.Go(func() error {
		log.WithField("addr", cfg.HTTP.Addr).Info("HTTP server listening")
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("HTTP shutdown")
		}
		log.Info("HTTP server stopped")

		health.Shutdown()
		grpcServer.GracefulStop()
		log.Info("gRPC server stopped")

		controller.Close()
		log.Info("scanner released")

		if rdb != nil {
			rdb.Close()
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.WithError(err).Error("server error")
		os.Exit(1)
	}
	log.Info("graceful shutdown complete")
}
