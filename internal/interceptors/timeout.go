package interceptors

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/pribylovaa/tokenauth/internal/pkg/log"

	"google.golang.org/grpc"
)

// WithTimeout ограничивает вызов без дедлайна бюджетом d (timeouts.service,
// тот же, что у HTTP). d <= 0 отключает интерсептор; дедлайн клиента
// не трогается. Исчерпание бюджета пишется в лог из контекста.
func WithTimeout(d time.Duration) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if d <= 0 {
			return handler(ctx, req)
		}

		if _, ok := ctx.Deadline(); ok {
			return handler(ctx, req)
		}

		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		resp, err := handler(ctx, req)
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.From(ctx).Warn("rpc_deadline_exceeded",
				slog.String("method", info.FullMethod),
				slog.Duration("budget", d),
			)
		}

		return resp, err
	}
}
