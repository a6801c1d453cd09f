package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/api"
	custommiddleware "github.com/tkorkmaz/portfolio-tracker-backend/internal/api/middleware"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/config"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/database"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/jobs"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/marketdata/tefas"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/marketdata/yahoo"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/pricing"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/repository"
	"github.com/tkorkmaz/portfolio-tracker-backend/internal/service"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Open database connection and run migrations
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	defer db.Close()

	log.Info().Str("path", cfg.Database.Path).Msg("connected to database")

	// Price sources behind the lookup adapter
	equityClient := yahoo.NewFinanceClient(cfg.Market.RequestTimeout)
	fundClient := tefas.NewFundClient(cfg.Market.RequestTimeout)
	priceSource := pricing.NewSource(equityClient, fundClient, cfg.Market.EquitySuffix, nil)

	// Repositories and services
	portfolioRepo := repository.NewPortfolioRepository(db)

	systemService := service.NewSystemService(db)
	portfolioService := service.NewPortfolioService(portfolioRepo)
	calculationService := service.NewCalculationService(priceSource)
	historyService := service.NewHistoryService(priceSource)

	guard, err := custommiddleware.NewAPIKeyGuard(cfg.Auth.APIKey, cfg.Auth.FernetKey, cfg.Auth.TokenTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure API key guard")
	}

	// Optional end-of-day snapshot job
	if cfg.Scheduler.Enabled {
		scheduler, err := jobs.NewScheduler(cfg.Scheduler.Spec, portfolioService, calculationService)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to configure scheduler")
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	// Create router
	router := api.NewRouter(systemService, portfolioService, calculationService, historyService, guard, cfg)

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited")
}
