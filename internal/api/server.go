package api

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"snowfight/internal/arena"
	"snowfight/internal/config"
)

// Server is the HTTP/WebSocket front door over an Arena.
type Server struct {
	arena       *arena.Arena
	router      *chi.Mux
	rateLimiter *IPRateLimiter
	gateway     *WebSocketGateway
}

// NewServer builds the API server. No listener opens until Start() is
// called, so the router can be exercised directly with httptest without
// opening a socket; the rate limiter's cleanup goroutine does start here.
func NewServer(a *arena.Arena, cfg config.AppConfig) *Server {
	s := &Server{arena: a}

	s.rateLimiter = NewIPRateLimiter(RateLimitConfig{
		RequestsPerSecond: cfg.Limits.RequestsPerSecond,
		Burst:             cfg.Limits.RequestBurst,
		CleanupInterval:   DefaultRateLimitConfig.CleanupInterval,
	})
	s.gateway = NewWebSocketGateway(a, cfg.Limits.MaxConnectionsPerIP)

	s.router = NewRouter(RouterConfig{
		Arena:       a,
		World:       cfg.World,
		RateLimiter: s.rateLimiter,
		Gateway:     s.gateway,
	})

	return s
}

// Start begins serving HTTP. This is the only method that opens a
// network listener; call it once.
func (s *Server) Start(addr string) error {
	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("🎮 WebSocket endpoint: ws://localhost%s/ws", addr)
	return http.ListenAndServe(addr, s.router)
}

// Router returns the HTTP handler, for use with httptest.NewServer.
func (s *Server) Router() http.Handler { return s.router }

// Stop performs graceful shutdown of background workers owned by the
// server itself (the arena's workers are stopped separately by the
// caller via arena.Stop()).
func (s *Server) Stop() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
