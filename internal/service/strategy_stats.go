package service

import (
	"context"

	"github.com/webclinic017/sagetrader-api/internal/models"
	"github.com/webclinic017/sagetrader-api/internal/repository"
)

// ComputeStats derives the win/loss figures of one strategy. Zero trades yield a zero win rate.
func ComputeStats(total, won int64) models.StrategyStats {
	stats := models.StrategyStats{
		TotalTrades: total,
		WonTrades:   won,
		LostTrades:  total - won,
	}
	if total > 0 {
		stats.WinRate = float64(won) / float64(total) * 100
	}
	return stats
}

// StrategyStatsService decorates strategies with trade statistics at read time.
type StrategyStatsService struct {
	Strategies repository.StrategyRepository
}

func (s *StrategyStatsService) WithStats(ctx context.Context, items []models.Strategy) ([]models.StrategyPlusStats, error) {
	counts, err := s.counts(ctx, items)
	if err != nil {
		return nil, err
	}
	out := make([]models.StrategyPlusStats, 0, len(items))
	for _, it := range items {
		out = append(out, plusStats(it, counts))
	}
	return out, nil
}

// Get returns a strategy the caller owns or that is public.
func (s *StrategyStatsService) Get(ctx context.Context, uid, ownerUID uint64) (*models.StrategyPlusStats, error) {
	item, err := s.Strategies.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if item == nil || (item.OwnerUID != ownerUID && !item.Public) {
		return nil, &repository.NotFoundError{Resource: "strategy", UID: uid}
	}
	out, err := s.WithStats(ctx, []models.Strategy{*item})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *StrategyStatsService) ListPaginated(ctx context.Context, params repository.ListPageParams) (repository.Page[models.StrategyPlusStats], error) {
	page, err := s.Strategies.ListPaginated(ctx, params)
	if err != nil {
		return repository.Page[models.StrategyPlusStats]{}, err
	}
	counts, err := s.counts(ctx, page.Items)
	if err != nil {
		return repository.Page[models.StrategyPlusStats]{}, err
	}
	return repository.MapPage(page, func(it models.Strategy) models.StrategyPlusStats {
		return plusStats(it, counts)
	}), nil
}

func (s *StrategyStatsService) counts(ctx context.Context, items []models.Strategy) (map[uint64]repository.TradeCount, error) {
	if len(items) == 0 {
		return map[uint64]repository.TradeCount{}, nil
	}
	uids := make([]uint64, 0, len(items))
	for _, it := range items {
		uids = append(uids, it.UID)
	}
	return s.Strategies.CountTrades(ctx, uids)
}

func plusStats(it models.Strategy, counts map[uint64]repository.TradeCount) models.StrategyPlusStats {
	c := counts[it.UID]
	return models.StrategyPlusStats{Strategy: it, StrategyStats: ComputeStats(c.Total, c.Won)}
}
