package service

import (
	"context"
	"fmt"

	"github.com/Dan9191/finance-tracker/internal/models"
	"golang.org/x/sync/errgroup"
)

// GetStats aggregates the user's transactions over the period window.
// An empty period means month.
func (s *Service) GetStats(ctx context.Context, userID int64, period models.Period) (*models.Stats, error) {
	if period == "" {
		period = models.PeriodMonth
	}
	since := period.WindowStart(s.now())

	stats := &models.Stats{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		overview, err := s.repo.TypeStats(gctx, userID, since)
		stats.Overview = overview
		return err
	})
	g.Go(func() error {
		breakdown, err := s.repo.CategoryStats(gctx, userID, since)
		stats.CategoryBreakdown = breakdown
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to compute stats: %w", err)
	}

	if stats.Overview == nil {
		stats.Overview = []models.TypeStats{}
	}
	if stats.CategoryBreakdown == nil {
		stats.CategoryBreakdown = []models.CategoryStats{}
	}
	return stats, nil
}
