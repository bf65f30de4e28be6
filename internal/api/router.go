package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"snowfight/internal/arena"
	"snowfight/internal/config"
)

// RouterConfig holds the dependencies the HTTP router needs. NewRouter
// opens no listeners, so it is safe to exercise with httptest.NewServer;
// it starts a goroutine only when RateLimiter is nil and it builds its
// own IPRateLimiter.
type RouterConfig struct {
	Arena       *arena.Arena
	World       config.WorldConfig
	RateLimiter *IPRateLimiter
	Gateway     *WebSocketGateway
}

// NewRouter builds the chi router: rate limiting and CORS first, then
// the operational routes, then the WebSocket upgrade endpoint.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimiter = NewIPRateLimiter(DefaultRateLimitConfig)
	}
	r.Use(rateLimiter.Middleware)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", handleHealthz)
	r.Get("/api/state", handleGetState(cfg.Arena))
	r.Get("/debug/arena.png", handleArenaMinimap(cfg.Arena, cfg.World))
	r.Get("/ws", cfg.Gateway.ServeHTTP)

	return r
}
