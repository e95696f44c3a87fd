package services

import (
	"context"
	"net/http"
	"time"

	"docshelf/logger"
	"docshelf/repositories"

	"go.uber.org/zap"
)

type StatsService interface {
	GetDocumentStats(ctx context.Context) (repositories.DocumentStats, error)
	// InvalidateCache drops cached stats after documents change. Failures are logged only.
	InvalidateCache(ctx context.Context)
}

type statsService struct {
	documents repositories.DocumentRepository
	cache     repositories.StatsCache
	now       func() time.Time
}

// NewStatsService accepts a nil cache; caching is also off while the TTL is 0.
func NewStatsService(documents repositories.DocumentRepository, cache repositories.StatsCache) StatsService {
	return &statsService{documents: documents, cache: cache, now: time.Now}
}

func (s *statsService) GetDocumentStats(ctx context.Context) (repositories.DocumentStats, error) {
	cfg := appConfig().Stats
	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	useCache := s.cache != nil && ttl > 0

	if useCache {
		stats, ok, err := s.cache.Get(ctx)
		if err != nil {
			logger.L().Warn("stats cache read failed", zap.Error(err))
		} else if ok {
			return stats, nil
		}
	}

	expiringBefore := s.now().AddDate(0, 0, cfg.ExpiringWithinDays)
	stats, err := s.documents.Stats(ctx, nil, expiringBefore)
	if err != nil {
		return repositories.DocumentStats{}, newAppError(http.StatusInternalServerError, "failed to compute statistics", err)
	}

	if useCache {
		if err := s.cache.Set(ctx, stats, ttl); err != nil {
			logger.L().Warn("stats cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

func (s *statsService) InvalidateCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.L().Warn("stats cache invalidation failed", zap.Error(err))
	}
}
