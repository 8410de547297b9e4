package interceptors

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/pribylovaa/tokenauth/internal/pkg/log"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

const (
	mdRequestID  = "x-request-id"
	healthPrefix = "/grpc.health.v1.Health/"
)

// UnaryLoggingInterceptor логирует unary-вызовы и кладёт обогащённый
// логгер в context (pkg/log).
//
// Поведение:
//   - x-request-id берётся из входящего metadata, иначе генерируется UUID,
//     и возвращается клиенту в заголовке ответа;
//   - после handler пишется одна запись msg="grpc" с code и dur;
//   - проверки health (оркестратор дёргает их постоянно) пишутся на Debug.
func UnaryLoggingInterceptor(base *slog.Logger) grpc.UnaryServerInterceptor {
	if base == nil {
		base = slog.Default()
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()

		rid := requestID(ctx)
		_ = grpc.SetHeader(ctx, metadata.Pairs(mdRequestID, rid))

		l := base.With(
			slog.String("request_id", rid),
			slog.String("method", info.FullMethod),
			slog.String("peer", peerAddr(ctx)),
		)
		ctx = log.Into(ctx, l)

		resp, err := handler(ctx, req)

		level := slog.LevelInfo
		if strings.HasPrefix(info.FullMethod, healthPrefix) {
			level = slog.LevelDebug
		}

		l.Log(ctx, level, "grpc",
			slog.String("code", status.Code(err).String()),
			slog.Duration("dur", time.Since(start)),
		)

		return resp, err
	}
}

// requestID — x-request-id из metadata или новый UUID.
func requestID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if v := md.Get(mdRequestID); len(v) > 0 && v[0] != "" {
			return v[0]
		}
	}
	return uuid.NewString()
}

// peerAddr — IP:port клиента или "-".
func peerAddr(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p != nil && p.Addr != nil {
		return p.Addr.String()
	}
	return "-"
}
