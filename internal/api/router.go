package api

import (
	"context"
	"net/http"

	"quiz-show/internal/config"
	"quiz-show/internal/game"
	"quiz-show/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// EngineInterface defines the game engine methods used by the API.
// This interface enables mocking for tests without a real engine.
type EngineInterface interface {
	// Views
	Snapshot() game.GameSnapshot
	PlayerView(id string) (game.PlayerView, error)
	CurrentSettings() config.RoundSettings
	History() []game.HistoryEntry
	IsQuestionUsed(questionID string) bool

	// Roster
	AddPlayer(name string) (game.Player, error)
	RemovePlayer(id string) (game.Outcome, error)
	SetActivePlayer(id string) (game.Outcome, error)

	// Scoring
	AwardPoints(id string, amount int) (game.Outcome, error)
	DeductHealth(id string, percent int) (game.Outcome, error)
	DeductLife(id string) (game.Outcome, error)
	EliminatePlayer(id string) (game.Outcome, error)
	ForceEliminatePlayer(id string) (game.Outcome, error)
	AddManualPoints(id string, delta int) (game.Outcome, error)
	AdjustHealthManually(id string, delta int) (game.Outcome, error)
	UndoLastAction() (game.Outcome, error)

	// Rounds
	StartGame() (game.Outcome, error)
	AdvanceToRoundTwo() (game.Outcome, error)
	AdvanceToRoundThree() (game.Outcome, error)
	CheckRoundThreeEnd() (game.Outcome, error)
	FinishGame(winnerIDs []string) (game.Outcome, error)
	ResetGame() (game.Outcome, error)

	// Timer and questions
	StartTimer(seconds int) (game.Outcome, error)
	StopTimer() (game.Outcome, error)
	MarkQuestionAsUsed(questionID string) (game.Outcome, error)
	ResetUsedQuestions() (game.Outcome, error)

	// Save slots
	Export() ([]byte, error)
	Import(blob []byte) error
}

// SaveStore defines the save slot storage used by the API.
// *storage.SaveRepository satisfies it.
type SaveStore interface {
	Put(ctx context.Context, save storage.Save) error
	Get(ctx context.Context, name string) (storage.Save, error)
	List(ctx context.Context) ([]storage.SaveInfo, error)
	Delete(ctx context.Context, name string) error
}

// RouterConfig contains all dependencies needed to construct the HTTP router.
//
// Example usage in tests:
//
//	cfg := api.RouterConfig{
//	    Engine: game.NewEngine(game.EngineConfig{}),
//	    RateLimitConfig: &api.RateLimitConfig{
//	        RequestsPerSecond: 1000, // High limit for tests
//	        Burst:             1000,
//	    },
//	    DisableLogging: true,
//	}
//	router := api.NewRouter(cfg)
//	ts := httptest.NewServer(router)
type RouterConfig struct {
	// Engine is the game engine (required)
	Engine EngineInterface

	// Saves is the save slot store. If nil, save routes answer 503.
	Saves SaveStore

	// RateLimiter is an optional pre-configured rate limiter.
	// If nil, a new one will be created using RateLimitConfig.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is optional configuration for the rate limiter.
	// Only used if RateLimiter is nil. If both are nil, uses DefaultRateLimitConfig.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins is an optional list of allowed CORS origins.
	// If nil, uses DefaultAllowedOrigins.
	CORSOrigins []string

	// DefaultTimerSeconds is used when the host starts a timer without a duration
	DefaultTimerSeconds int

	// DisableLogging disables the request logger middleware (useful for benchmarks).
	DisableLogging bool
}

// routerHandlers holds the dependencies of the handler functions.
type routerHandlers struct {
	engine       EngineInterface
	saves        SaveStore
	timerSeconds int
}

// NewRouter constructs the HTTP router with all middleware and routes.
//
// The function has no side effects apart from the rate limiter cleanup
// goroutine when no RateLimiter is given, so it is safe to use in tests with
// httptest.NewServer.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware - Order matters!
	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	// Rate limiting (BEFORE CORS to reject early and save CPU)
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = DefaultAllowedOrigins
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	timerSeconds := cfg.DefaultTimerSeconds
	if timerSeconds <= 0 {
		timerSeconds = config.DefaultTimer().DefaultSeconds
	}

	h := &routerHandlers{
		engine:       cfg.Engine,
		saves:        cfg.Saves,
		timerSeconds: timerSeconds,
	}

	r.Route("/api", func(r chi.Router) {
		// Views
		r.Get("/state", h.handleGetState)
		r.Get("/standings", h.handleGetStandings)

		// Roster and scoring
		r.Route("/players", func(r chi.Router) {
			r.Post("/", h.handleAddPlayer)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.handleGetPlayer)
				r.Delete("/", h.handleRemovePlayer)
				r.Post("/award", h.handleAward)
				r.Post("/health/deduct", h.handleDeductHealth)
				r.Post("/lives/deduct", h.handlePlayerAction(EngineInterface.DeductLife))
				r.Post("/eliminate", h.handlePlayerAction(EngineInterface.EliminatePlayer))
				r.Post("/force-eliminate", h.handlePlayerAction(EngineInterface.ForceEliminatePlayer))
				r.Post("/points/adjust", h.handleAdjust(EngineInterface.AddManualPoints))
				r.Post("/health/adjust", h.handleAdjust(EngineInterface.AdjustHealthManually))
				r.Post("/active", h.handlePlayerAction(EngineInterface.SetActivePlayer))
			})
		})
		r.Delete("/active", h.handleClearActive)

		// Round flow
		r.Route("/game", func(r chi.Router) {
			r.Post("/start", h.handleGameAction(EngineInterface.StartGame))
			r.Post("/advance/round-two", h.handleGameAction(EngineInterface.AdvanceToRoundTwo))
			r.Post("/advance/round-three", h.handleGameAction(EngineInterface.AdvanceToRoundThree))
			r.Post("/check-round-three", h.handleGameAction(EngineInterface.CheckRoundThreeEnd))
			r.Post("/finish", h.handleFinish)
			r.Post("/reset", h.handleGameAction(EngineInterface.ResetGame))
			r.Post("/undo", h.handleGameAction(EngineInterface.UndoLastAction))
			r.Get("/undo", h.handleGetUndo)
		})

		// Timer
		r.Post("/timer/start", h.handleTimerStart)
		r.Post("/timer/stop", h.handleGameAction(EngineInterface.StopTimer))

		// Used questions
		r.Get("/questions/{id}", h.handleGetQuestion)
		r.Post("/questions/{id}/used", h.handleMarkQuestion)
		r.Delete("/questions/used", h.handleGameAction(EngineInterface.ResetUsedQuestions))

		// Save slots
		r.Route("/saves", func(r chi.Router) {
			r.Use(h.requireSaves)
			r.Get("/", h.handleListSaves)
			r.Put("/{name}", h.handlePutSave)
			r.Post("/{name}/load", h.handleLoadSave)
			r.Delete("/{name}", h.handleDeleteSave)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})

	return r
}
