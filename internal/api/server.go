package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"quiz-show/internal/game"

	"github.com/go-chi/chi/v5"
)

// ServerConfig configures NewServer
type ServerConfig struct {
	CORSOrigins         []string // nil means DefaultAllowedOrigins
	DefaultTimerSeconds int
	RateLimit           RateLimitConfig
}

// Server is the HTTP API server with WebSocket support.
// It combines the HTTP router with the WebSocket hub for live overlays.
type Server struct {
	engine      *game.Engine
	router      *chi.Mux
	wsHub       *WebSocketHub
	rateLimiter *IPRateLimiter
	httpServer  *http.Server

	mu          sync.Mutex
	unsubscribe func()
}

// NewServer creates the API server. saves may be nil when persistence is
// disabled.
//
// Background workers do NOT start until Start() is called, so tests can
// construct the server and use Router() without goroutines or listeners.
func NewServer(engine *game.Engine, saves SaveStore, cfg ServerConfig) *Server {
	if cfg.RateLimit.RequestsPerSecond <= 0 {
		cfg.RateLimit = DefaultRateLimitConfig
	}

	s := &Server{
		engine:      engine,
		wsHub:       NewWebSocketHub(engine, cfg.CORSOrigins),
		rateLimiter: NewIPRateLimiter(cfg.RateLimit),
	}

	s.router = NewRouter(RouterConfig{
		Engine:              engine,
		Saves:               saves,
		RateLimiter:         s.rateLimiter,
		CORSOrigins:         cfg.CORSOrigins,
		DefaultTimerSeconds: cfg.DefaultTimerSeconds,
	})

	// The hub instance is owned by the server, not the router factory
	s.router.Get("/ws", s.wsHub.HandleWebSocket)

	return s
}

// Start begins the HTTP server AND starts background workers. It blocks until
// the server stops; a graceful Stop returns nil here.
func (s *Server) Start(addr string) error {
	go s.wsHub.Run()

	s.mu.Lock()
	s.unsubscribe = s.engine.Subscribe(s.onEvent)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.httpServer
	s.mu.Unlock()

	UpdateGameMetrics(s.engine.Snapshot())

	log.Printf("🌐 API server starting on %s", addr)
	log.Printf("📡 Overlay socket: ws://localhost%s/ws", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) onEvent(ev game.Event) {
	RecordEvent(ev)
	// Ticks change only the timer
	if ev.Type != game.EventTypeTimerTick {
		UpdateGameMetrics(s.engine.Snapshot())
	} else {
		timerRemaining.Set(float64(s.engine.TimerState().Remaining))
	}
	stats := s.engine.GetEventLogStats()
	total, _ := stats["total"].(uint64)
	dropped, _ := stats["dropped"].(uint64)
	UpdateEventLogStats(total, dropped)

	s.wsHub.Broadcast(ev)
}

// Router returns the HTTP handler for use with httptest.
//
// Example:
//
//	server := api.NewServer(engine, nil, api.ServerConfig{})
//	ts := httptest.NewServer(server.Router())
//	defer ts.Close()
//	resp, _ := http.Get(ts.URL + "/api/state")
func (s *Server) Router() http.Handler {
	return s.router
}

// Hub exposes the WebSocket hub
func (s *Server) Hub() *WebSocketHub {
	return s.wsHub
}

// Stop shuts the listener down gracefully and stops background workers
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.httpServer
	unsubscribe := s.unsubscribe
	s.unsubscribe = nil
	s.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}

	var err error
	if srv != nil {
		err = srv.Shutdown(ctx)
	}
	s.wsHub.Stop()
	s.rateLimiter.Stop()
	return err
}
