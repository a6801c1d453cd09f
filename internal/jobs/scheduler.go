// Package jobs wires the scheduled background work: an end-of-day run that
// recomputes every stored portfolio's snapshot return and logs it, so the
// day's closing numbers are in the logs even if nobody opened the UI.
package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/tkorkmaz/portfolio-tracker-backend/internal/service"
)

// Scheduler owns the cron runner and the services the jobs need.
type Scheduler struct {
	cron               *cron.Cron
	portfolioService   *service.PortfolioService
	calculationService *service.CalculationService
}

// NewScheduler creates a Scheduler with the end-of-day snapshot job
// registered on the given cron spec.
func NewScheduler(spec string, portfolioService *service.PortfolioService, calculationService *service.CalculationService) (*Scheduler, error) {
	s := &Scheduler{
		cron:               cron.New(),
		portfolioService:   portfolioService,
		calculationService: calculationService,
	}

	if _, err := s.cron.AddFunc(spec, s.runDailySnapshot); err != nil {
		return nil, err
	}

	return s, nil
}

// Start launches the cron runner in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Msg("scheduler started")
}

// Stop stops the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Info().Msg("scheduler stopped")
}

// runDailySnapshot computes and logs the snapshot return of every stored
// portfolio. Failures are logged per portfolio and never stop the sweep.
func (s *Scheduler) runDailySnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	records, err := s.portfolioService.GetAll()
	if err != nil {
		log.Error().Err(err).Msg("daily snapshot: failed to list portfolios")
		return
	}

	for _, rec := range records {
		holdings, err := s.portfolioService.Get(rec.Name)
		if err != nil {
			log.Warn().Err(err).Str("portfolio", rec.Name).Msg("daily snapshot: load failed")
			continue
		}

		result, err := s.calculationService.Calculate(ctx, holdings)
		if err != nil {
			log.Warn().Err(err).Str("portfolio", rec.Name).Msg("daily snapshot: calculation failed")
			continue
		}

		log.Info().
			Str("portfolio", rec.Name).
			Float64("total_change", result.TotalChange).
			Int("assets", len(result.Details)).
			Msg("daily snapshot")
	}
}
