package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/pribylovaa/tokenauth/internal/metrics"
	"github.com/pribylovaa/tokenauth/internal/transport/http/handlers"
	"github.com/pribylovaa/tokenauth/internal/transport/http/middleware"

	"github.com/go-chi/chi/v5"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	Metrics  *metrics.Metrics
	BasePath string // например, "/api"; если пустой — роуты регистрируются на корне.
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
// auth используется для проверки Bearer-токена на защищённых маршрутах.
func NewRouter(h *handlers.Handlers, auth middleware.Authenticator, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),             // безопасно ловим паники
		middleware.RequestID(),           // X-Request-Id (до логирования!)
		middleware.Logging(opts.Logger),  // request-scoped логгер в контексте
		middleware.Metrics(opts.Metrics), // счётчики и латентность по шаблону маршрута
		middleware.Timeout(opts.Timeout), // общий дедлайн запроса
	)

	h.SetBasePath(opts.BasePath)

	if opts.BasePath != "" {
		sub := chi.NewRouter()
		registerRoutes(sub, h, auth)
		root.Mount(opts.BasePath, sub)
		return root
	}

	registerRoutes(root, h, auth)
	return root
}

// registerRoutes — единая точка регистрации всех REST-эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, auth middleware.Authenticator) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/logout", h.Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccessToken(auth))
		r.Get("/me", h.Me)
	})
}
