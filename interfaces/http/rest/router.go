package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"webtrail/application/commands/bus"
	querybus "webtrail/application/queries/bus"
	"webtrail/infrastructure/config"
	"webtrail/interfaces/http/rest/handlers"
	"webtrail/interfaces/http/rest/middleware"
	"webtrail/pkg/auth"
)

// Router creates and configures the HTTP router
type Router struct {
	cfg        *config.Config
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewRouter creates a new router instance
func NewRouter(
	cfg *config.Config,
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *Router {
	return &Router{
		cfg:        cfg,
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Logger(rt.logger))

	if rt.cfg.EnableCORS {
		// Extension pages have chrome-extension:// origins
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   []string{"chrome-extension://*", "moz-extension://*", "http://localhost:*"},
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	// Health check
	router.Get("/health", rt.healthCheck)
	router.Get("/ready", rt.readinessCheck)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		r.Use(rt.authenticate())

		// Signal ingestion endpoints
		r.Route("/signals", func(r chi.Router) {
			signalHandler := handlers.NewSignalHandler(rt.commandBus, rt.logger)
			r.Post("/navigations", signalHandler.RecordNavigation)
			r.Post("/intents", signalHandler.RecordIntent)
			r.Post("/metadata", signalHandler.UpdateMetadata)
		})

		// Session endpoints
		r.Route("/sessions", func(r chi.Router) {
			sessionHandler := handlers.NewSessionHandler(rt.commandBus, rt.queryBus, rt.logger)
			r.Get("/", sessionHandler.ListSessions)
			r.Get("/active", sessionHandler.GetActiveSession)
			r.Get("/{sessionID}", sessionHandler.GetSession)
			r.Put("/{sessionID}", sessionHandler.RenameSession)
			r.Post("/{sessionID}/end", sessionHandler.EndSession)
			r.Delete("/{sessionID}", sessionHandler.DeleteSession)
		})

		// Graph endpoints for visualization
		r.Route("/graph", func(r chi.Router) {
			graphHandler := handlers.NewGraphHandler(rt.queryBus, rt.logger)
			r.Get("/", graphHandler.GetGraph)
			r.Get("/nodes/{nodeID}", graphHandler.GetNode)
		})
	})

	return router
}

// authenticate builds the auth middleware from configuration. In
// development with no secret configured requests pass through
// unauthenticated.
func (rt *Router) authenticate() func(next http.Handler) http.Handler {
	if rt.cfg.JWTSecret == "" && rt.cfg.IsDevelopment() {
		rt.logger.Warn("no JWT secret configured, authentication disabled")
		return func(next http.Handler) http.Handler { return next }
	}

	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     rt.cfg.JWTSecret,
		Issuer:        rt.cfg.JWTIssuer,
	})
	if err != nil {
		rt.logger.Error("failed to build token validator", zap.Error(err))
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "authentication unavailable", http.StatusServiceUnavailable)
			})
		}
	}

	return middleware.Authenticate(validator, rt.logger)
}

// healthCheck handles health check requests
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}

// readinessCheck handles readiness check requests
func (rt *Router) readinessCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}
