package server

import (
	"log/slog"
	"net/http"

	"github.com/leonalhidayah/e-commerce-dashboard/internal/handlers"
	"github.com/leonalhidayah/e-commerce-dashboard/internal/services"
)

type Server struct {
	reports     *services.Reports
	mux         *http.ServeMux
	logger      *slog.Logger
	apiHandlers *handlers.APIHandlers
	sseHandlers *handlers.SSEHandlers
}

type TemplateHandlers struct {
	Dashboard http.HandlerFunc
}

func NewServer(reports *services.Reports, logger *slog.Logger, templateHandlers *TemplateHandlers) *Server {
	s := &Server{
		reports:     reports,
		mux:         http.NewServeMux(),
		logger:      logger,
		apiHandlers: handlers.NewAPIHandlers(reports, logger),
		sseHandlers: handlers.NewSSEHandlers(reports, logger),
	}
	s.setupRoutes(templateHandlers)
	return s
}

func (s *Server) setupRoutes(templateHandlers *TemplateHandlers) {
	// Dashboard routes
	s.mux.HandleFunc("GET /{$}", templateHandlers.Dashboard)
	s.mux.HandleFunc("GET /health", s.apiHandlers.HandleHealth)
	s.mux.HandleFunc("GET /admin/stats", s.apiHandlers.HandleStats)

	// REST API endpoints; all accept optional start/end date filters
	s.mux.HandleFunc("GET /api/summary", s.apiHandlers.HandleSummary)
	s.mux.HandleFunc("GET /api/daily-orders", s.apiHandlers.HandleDailyOrders)
	s.mux.HandleFunc("GET /api/customer-cities", s.apiHandlers.HandleCustomerCities)
	s.mux.HandleFunc("GET /api/category-sales", s.apiHandlers.HandleCategorySales)
	s.mux.HandleFunc("GET /api/rfm", s.apiHandlers.HandleRFM)
	s.mux.HandleFunc("GET /api/export", s.apiHandlers.HandleExport)

	// Datastar SSE endpoints
	s.mux.HandleFunc("GET /sse/daily-orders", s.sseHandlers.HandleDailyOrders)
	s.mux.HandleFunc("GET /sse/category-sales", s.sseHandlers.HandleCategorySales)
	s.mux.HandleFunc("GET /sse/customer-cities", s.sseHandlers.HandleCustomerCities)
	s.mux.HandleFunc("GET /sse/rfm", s.sseHandlers.HandleRFM)
	s.mux.HandleFunc("GET /sse/refresh-all", s.sseHandlers.HandleRefreshAll)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
