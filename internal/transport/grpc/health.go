// transport/grpc содержит операционный gRPC-сервер: grpc.health.v1 и метрики
// go-grpc-prometheus. Прикладного API по gRPC сервис не отдаёт, граница
// аутентификации это HTTP (transport/http).
//
// Готовность определяется пингом зависимостей (Postgres, Redis):
//   - все зависимости отвечают -> SERVING для "" и для каждой зависимости;
//   - хотя бы одна не отвечает -> NOT_SERVING для "" и для упавшей.
package grpc

import (
	"context"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/pribylovaa/tokenauth/internal/interceptors"

	grpc_prometheus "github.com/grpc-ecosystem/go-grpc-prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// defaultPingTimeout ограничивает один пинг зависимости.
const defaultPingTimeout = 2 * time.Second

// Pinger — зависимость, готовность которой проверяется (postgres.Storage, cache.RedisCache).
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health хранит статусы grpc.health.v1 и флаг готовности для HTTP /healthz.
type Health struct {
	srv     *health.Server
	deps    map[string]Pinger
	names   []string
	log     *slog.Logger
	ready   atomic.Bool
	stopped atomic.Bool
	pingTO  time.Duration
}

// NewHealth создаёт Health в состоянии NOT_SERVING.
func NewHealth(log *slog.Logger, deps map[string]Pinger) *Health {
	if log == nil {
		log = slog.Default()
	}

	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	sort.Strings(names)

	h := &Health{
		srv:    health.NewServer(),
		deps:   deps,
		names:  names,
		log:    log,
		pingTO: defaultPingTimeout,
	}

	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for _, name := range names {
		h.srv.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}

	return h
}

// Ready сообщает результат последней проверки.
func (h *Health) Ready() bool {
	return h.ready.Load()
}

// Check пингует все зависимости и обновляет статусы. Возвращает итоговую готовность.
func (h *Health) Check(ctx context.Context) bool {
	if h.stopped.Load() {
		return false
	}

	ok := true

	for _, name := range h.names {
		pctx, cancel := context.WithTimeout(ctx, h.pingTO)
		err := h.deps[name].Ping(pctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			ok = false
			status = healthpb.HealthCheckResponse_NOT_SERVING
			h.log.Warn("dependency_unavailable",
				slog.String("dependency", name),
				slog.String("err", err.Error()),
			)
		}
		h.srv.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_NOT_SERVING
	if ok {
		overall = healthpb.HealthCheckResponse_SERVING
	}
	h.srv.SetServingStatus("", overall)

	if prev := h.ready.Swap(ok); prev != ok {
		h.log.Info("readiness_changed", slog.Bool("ready", ok))
	}

	return ok
}

// Run выполняет Check сразу и затем каждые period до отмены ctx.
func (h *Health) Run(ctx context.Context, period time.Duration) {
	h.Check(ctx)
	if period <= 0 {
		return
	}

	t := time.NewTicker(period)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			h.Check(ctx)
		}
	}
}

// Shutdown переводит все статусы в NOT_SERVING навсегда (graceful stop).
func (h *Health) Shutdown() {
	h.stopped.Store(true)
	h.ready.Store(false)
	h.srv.Shutdown()
}

// NewServer собирает gRPC-сервер с цепочкой интерсепторов и регистрирует
// в нём health-сервис и метрики go-grpc-prometheus.
func NewServer(log *slog.Logger, timeout time.Duration, h *Health) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			interceptors.Recover(log),
			interceptors.UnaryLoggingInterceptor(log),
			interceptors.WithTimeout(timeout),
			grpc_prometheus.UnaryServerInterceptor,
		),
		grpc.ChainStreamInterceptor(
			interceptors.RecoverStream(log),
			grpc_prometheus.StreamServerInterceptor,
		),
	)

	healthpb.RegisterHealthServer(s, h.srv)
	grpc_prometheus.Register(s)

	return s
}
