package service

import (
	"context"
	"fmt"

	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/config"
	"github.com/OlegGarbuzov/JavaOffer-public-sub000/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RankingService maintains the global best-score leaderboard in a Redis
// sorted set. ZADD GT keeps only each user's personal best, so concurrent
// submissions can never lower a stored score.
type RankingService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRankingService creates a new RankingService.
func NewRankingService(rdb *redis.Client, log zerolog.Logger) *RankingService {
	return &RankingService{
		rdb: rdb,
		log: log.With().Str("component", "ranking_service").Logger(),
	}
}

// SubmitScore records the score if it beats the user's stored best.
func (s *RankingService) SubmitScore(ctx context.Context, userID string, score int64) error {
	err := s.rdb.ZAddGT(ctx, config.CacheKey.GlobalRankingKey(), redis.Z{
		Score:  float64(score),
		Member: userID,
	}).Err()
	if err != nil {
		return fmt.Errorf("submit ranking score: %w", err)
	}
	return nil
}

// Top returns the best-score leaderboard, highest first, ranks starting
// at 1.
func (s *RankingService) Top(ctx context.Context, limit int) ([]model.RankingEntry, error) {
	members, err := s.rdb.ZRevRangeWithScores(ctx, config.CacheKey.GlobalRankingKey(), 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read ranking: %w", err)
	}

	entries := make([]model.RankingEntry, 0, len(members))
	for i, m := range members {
		userID, ok := m.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, model.RankingEntry{
			Rank:   i + 1,
			UserID: userID,
			Score:  int64(m.Score),
		})
	}
	return entries, nil
}
