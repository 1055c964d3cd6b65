package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/hermes/internal/health"
	"github.com/fortuna/hermes/internal/service"
)

// Server represents the REST API server
type Server struct {
	port    string
	server  *http.Server
	handler *Handler
}

// NewServer creates a new REST API server
func NewServer(port string, players *service.PlayerService, reporter *health.Reporter, logger *logrus.Logger) *Server {
	handler := NewHandler(players, reporter)

	router := mux.NewRouter()

	// Apply middleware
	router.Use(RecoveryMiddleware(logger))
	router.Use(LoggingMiddleware(logger))
	router.Use(CORSMiddleware)

	// Data contract consumed by the three frontends
	router.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	router.HandleFunc("/players", handler.GetPlayers).Methods("GET")
	router.HandleFunc("/players/{playerID}", handler.GetPlayerStats).Methods("GET")

	// Admin / support routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/teams", handler.GetTeams).Methods("GET")
	api.HandleFunc("/cache/clear", handler.ClearCache).Methods("POST")

	return &Server{
		port:    port,
		handler: handler,
		server: &http.Server{
			Addr:              fmt.Sprintf(":%s", port),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Start starts the REST API server
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
