package service

import (
	"context"

	"github.com/quocanhngo/sportcast/internal/model"
	"github.com/quocanhngo/sportcast/internal/repository"
)

// DashboardService aggregates the counters on the landing page
type DashboardService struct {
	matchRepo   *repository.MatchRepository
	catalogRepo *repository.CatalogRepository
}

func NewDashboardService(matchRepo *repository.MatchRepository, catalogRepo *repository.CatalogRepository) *DashboardService {
	return &DashboardService{matchRepo: matchRepo, catalogRepo: catalogRepo}
}

func (s *DashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	var stats model.DashboardStats
	var err error

	if stats.Matches, err = s.matchRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Categories, err = s.catalogRepo.CountCategories(ctx); err != nil {
		return nil, err
	}
	if stats.Channels, err = s.catalogRepo.CountChannels(ctx); err != nil {
		return nil, err
	}
	if stats.LiveMatches, err = s.matchRepo.CountByStatus(ctx, model.MatchStatusLive); err != nil {
		return nil, err
	}
	return &stats, nil
}
