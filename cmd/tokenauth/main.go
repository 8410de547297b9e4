package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pribylovaa/tokenauth/internal/cache"
	"github.com/pribylovaa/tokenauth/internal/config"
	"github.com/pribylovaa/tokenauth/internal/hasher"
	"github.com/pribylovaa/tokenauth/internal/metrics"
	"github.com/pribylovaa/tokenauth/internal/refresh"
	"github.com/pribylovaa/tokenauth/internal/service"
	"github.com/pribylovaa/tokenauth/internal/storage/postgres"
	"github.com/pribylovaa/tokenauth/internal/token"
	grpctransport "github.com/pribylovaa/tokenauth/internal/transport/grpc"
	httptransport "github.com/pribylovaa/tokenauth/internal/transport/http"
	"github.com/pribylovaa/tokenauth/internal/transport/http/handlers"

	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

// Константы для определения окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

// readinessPeriod — период опроса Postgres/Redis для health.
const readinessPeriod = 10 * time.Second

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file")
	flag.Parse()

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Info("starting application", "env", cfg.Env)

	// Корневой контекст по сигналам.
	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	// Кодек access-токенов: без секрета сервис не стартует.
	codec, err := token.NewCodec(cfg.Auth)
	if err != nil {
		log.Error("token_codec_init_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}

	// Миграции и подключение к БД c таймаутом.
	dbCtx, dbCancel := context.WithTimeout(rootCtx, 10*time.Second)
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(dbCtx, cfg.DB.DatabaseURL); err != nil {
			log.Error("postgres_migrate_failed", slog.String("err", err.Error()))
			dbCancel()
			rootCancel()
			os.Exit(1)
		}
		log.Info("postgres_migrated")
	}
	str, err := postgres.New(dbCtx, cfg.DB.DatabaseURL, postgres.WithMaxConns(cfg.DB.MaxConns))
	dbCancel()
	if err != nil {
		log.Error("postgres_connect_failed", slog.String("err", err.Error()))
		rootCancel()
		os.Exit(1)
	}
	log.Info("postgres_connected")

	// Redis: хранилище refresh-токенов.
	redisCtx, redisCancel := context.WithTimeout(rootCtx, 5*time.Second)
	kv, err := cache.NewRedisCache(redisCtx, cfg.Redis.RedisURL)
	redisCancel()
	if err != nil {
		log.Error("redis_connect_failed", slog.String("err", err.Error()))
		rootCancel()
		str.Close()
		os.Exit(1)
	}
	log.Info("redis_connected")

	// Сервис.
	refreshStore := refresh.NewStore(kv, cfg.Redis.KeyPrefix, cfg.Auth.RefreshTokenTTL)
	srvc, err := service.New(str, hasher.FromConfig(cfg.Password), codec, refreshStore)
	if err != nil {
		log.Error("service_init_failed", slog.String("err", err.Error()))
		rootCancel()
		_ = kv.Close()
		str.Close()
		os.Exit(1)
	}
	log.Info("service_initialized")

	m := metrics.New(prometheus.DefaultRegisterer)

	// Readiness: health-статусы по пингу зависимостей.
	hs := grpctransport.NewHealth(log, map[string]grpctransport.Pinger{
		"postgres": str,
		"redis":    kv,
	})
	go hs.Run(rootCtx, readinessPeriod)

	// HTTP: API + /livez, /healthz, /metrics.
	api := httptransport.NewRouter(
		handlers.New(srvc, cfg.Auth.Cookie, refreshStore.TTL(), m),
		srvc,
		httptransport.Options{
			Logger:   log,
			Timeout:  cfg.Timeouts.Service,
			Metrics:  m,
			BasePath: cfg.HTTP.BasePath,
		},
	)

	mux := chi.NewRouter()
	mux.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		if hs.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ok"))
			return
		}
		http.Error(w, "not ready", http.StatusServiceUnavailable)
	})
	mux.Handle("/metrics", promhttp.Handler())
	mux.Mount("/", api)

	httpAddr := cfg.HTTP.Addr()
	httpSrv := &http.Server{
		Addr:              httpAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info("http_listen_start", "addr", httpAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_serve_failed", slog.String("err", err.Error()))
			rootCancel()
		}
	}()

	grpc_prometheus.EnableHandlingTimeHistogram()

	// gRPC: health + метрики.
	grpcServer := grpctransport.NewServer(log, cfg.Timeouts.Service, hs)

	// Рефлексия — только в local/dev.
	if cfg.Env == envLocal || cfg.Env == envDev {
		reflection.Register(grpcServer)
	}

	addr := cfg.GRPC.Addr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Error("grpc_listen_failed",
			slog.String("addr", addr),
			slog.String("err", err.Error()),
		)
		rootCancel()
		_ = httpSrv.Shutdown(context.Background())
		_ = kv.Close()
		str.Close()
		os.Exit(1)
	}
	log.Info("grpc_listen_start", slog.String("addr", addr))

	serveErrCh := make(chan error, 1)
	go func() {
		if err := grpcServer.Serve(listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			serveErrCh <- err
		}
		close(serveErrCh)
	}()

	// Ожидание сигнала завершения или фатальной ошибки сервера.
	select {
	case <-rootCtx.Done():
		log.Info("shutdown_requested")
	case err := <-serveErrCh:
		if err != nil {
			log.Error("grpc_serve_failed", slog.String("err", err.Error()))
		}
	}

	// Переводим health в NOT_SERVING.
	hs.Shutdown()

	// Graceful stop с таймаутом.
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)

	done := make(chan struct{})
	go func() {
		grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		log.Info("grpc_stopped")
	case <-shutdownCtx.Done():
		log.Warn("grpc_force_stop")
		grpcServer.Stop()
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http_shutdown_failed", slog.String("err", err.Error()))
	}

	// Явная очистка перед выходом.
	shutdownCancel()
	rootCancel()
	if err := kv.Close(); err != nil {
		log.Warn("redis_close_failed", slog.String("err", err.Error()))
	}
	str.Close()

	log.Info("service_stopped")
}

// setupLogger настраивает slog по окружению.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
