// Package api exposes the classification service over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	service "github.com/dzhang123/DynaCard/internal/app"
	"github.com/dzhang123/DynaCard/internal/adapters/http/swagger"
	"github.com/dzhang123/DynaCard/internal/domain/model"
	"github.com/dzhang123/DynaCard/pkg/logger"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to the service implementation.
type Dependencies interface {
	// Classify labels a card synchronously.
	Classify(ctx context.Context, j model.Job) (model.Result, error)

	// Submit queues a card. Returns service.ErrQueueFull on backpressure.
	Submit(ctx context.Context, j model.Job) (service.Ack, error)

	// Read operations expose stored results.
	Result(ctx context.Context, id string) (model.Result, error)
	History(ctx context.Context, wellID string, limit int) ([]model.Result, error)
	MaxHistoryLimit() int
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler *HealthHandler
	statsHandler  *StatsHandler
	cardsHandler  *CardsHandler
	logger        logger.Logger
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler: NewHealthHandler(),
		statsHandler:  NewStatsHandler(statsProvider),
		cardsHandler:  NewCardsHandler(deps),
		logger:        logger.Get().Named("http"),
	}
}

// Router builds the route table.
func (s *Server) Router(ctx context.Context) *mux.Router {
	router := mux.NewRouter()
	router.Use(MetricsMiddleware)

	router.HandleFunc("/classify", s.cardsHandler.HandleClassify).Methods(http.MethodPost)
	router.HandleFunc("/cards", s.cardsHandler.HandleSubmit).Methods(http.MethodPost)
	router.HandleFunc("/cards/{id}", s.cardsHandler.HandleGet).Methods(http.MethodGet)
	router.HandleFunc("/wells/{well_id}/cards", s.cardsHandler.HandleHistory).Methods(http.MethodGet)
	router.HandleFunc("/stats", s.statsHandler.HandleStats).Methods(http.MethodGet)
	router.HandleFunc("/healthz", s.healthHandler.HandleHealth).Methods(http.MethodGet)
	swagger.Register(ctx, router)

	return router
}

// Handler returns the route table wrapped in panic recovery.
func (s *Server) Handler(ctx context.Context) http.Handler {
	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{log: s.logger}),
		handlers.PrintRecoveryStack(false),
	)
	return recovery(s.Router(ctx))
}
