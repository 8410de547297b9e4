package middleware

import (
	"net/http"
	"time"

	"github.com/pribylovaa/tokenauth/internal/metrics"

	"github.com/go-chi/chi/v5"
)

// Metrics считает запросы и их длительность. Метка route — шаблон chi,
// чтобы кардинальность не росла от сырых путей.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next http.Handler) http.Handler {
		if m == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m.RequestStarted()
			sw := newStatusWriter(w)
			start := time.Now()

			defer func() {
				rec := recover()
				status := sw.code()
				if rec != nil {
					status = http.StatusInternalServerError
				}
				m.ObserveRequest(r.Method, routePattern(r), status, time.Since(start))
				if rec != nil {
					panic(rec)
				}
			}()

			next.ServeHTTP(sw, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
