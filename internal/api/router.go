package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api/handlers"
	custommiddleware "github.com/tkorkmaz/portfolio-tracker-backend/internal/api/middleware"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/config"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	systemService *service.SystemService,
	portfolioService *service.PortfolioService,
	calculationService *service.CalculationService,
	historyService *service.HistoryService,
	guard *custommiddleware.APIKeyGuard,
	cfg *config.Config,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(systemService)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/portfolio", func(r chi.Router) {
			portfolioHandler := handlers.NewPortfolioHandler(portfolioService, historyService)
			r.Get("/", portfolioHandler.Portfolios)
			r.Get("/{name}", portfolioHandler.Portfolio)
			r.Get("/{name}/history", portfolioHandler.History)
			r.Get("/{name}/compare", portfolioHandler.Compare)
			r.Get("/{name}/historical", portfolioHandler.Historical)

			// Mutations sit behind the API-key guard.
			r.Group(func(r chi.Router) {
				r.Use(guard.Handler)
				r.Post("/", portfolioHandler.Save)
				r.Delete("/{name}", portfolioHandler.Delete)
				r.Post("/{name}/revert", portfolioHandler.Revert)
			})
		})

		r.Route("/calculate", func(r chi.Router) {
			calculationHandler := handlers.NewCalculationHandler(calculationService)
			r.Post("/", calculationHandler.Calculate)
			r.Post("/dynamic", calculationHandler.CalculateDynamic)
		})
	})

	return r
}
