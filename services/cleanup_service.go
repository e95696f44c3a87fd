package services

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"docshelf/logger"
	"docshelf/metrics"
	"docshelf/repositories"

	"go.uber.org/zap"
)

type CleanupService interface {
	// SweepOrphanFiles removes stored files that no document references and
	// that are older than the retention window.
	SweepOrphanFiles(ctx context.Context) (int, error)
	PruneExpiredShares(ctx context.Context) (int64, error)
}

type cleanupService struct {
	documents repositories.DocumentRepository
	shares    repositories.ShareRepository
	store     FileStore
	now       func() time.Time
}

func NewCleanupService(documents repositories.DocumentRepository, shares repositories.ShareRepository, store FileStore) CleanupService {
	return &cleanupService{documents: documents, shares: shares, store: store, now: time.Now}
}

var defaultCleanupService CleanupService

func SetCleanupService(svc CleanupService) {
	defaultCleanupService = svc
}

// StartCleanupWorkers runs both sweeps on the configured interval until ctx ends.
func StartCleanupWorkers(ctx context.Context) {
	svc := defaultCleanupService
	if svc == nil {
		return
	}

	interval := time.Duration(appConfig().Cleanup.IntervalMinutes) * time.Minute
	if interval <= 0 {
		interval = time.Hour
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runCleanup(ctx, svc)
			}
		}
	}()
}

func runCleanup(ctx context.Context, svc CleanupService) {
	if removed, err := svc.SweepOrphanFiles(ctx); err != nil {
		logger.L().Warn("orphan file sweep failed", zap.Error(err))
	} else if removed > 0 {
		logger.Infof("removed %d orphan files", removed)
	}

	if pruned, err := svc.PruneExpiredShares(ctx); err != nil {
		logger.L().Warn("share pruning failed", zap.Error(err))
	} else if pruned > 0 {
		logger.Infof("pruned %d expired share links", pruned)
	}
}

func (s *cleanupService) SweepOrphanFiles(ctx context.Context) (int, error) {
	paths, err := s.documents.ListStoredPaths(ctx, nil)
	if err != nil {
		return 0, err
	}
	referenced := make(map[string]bool, len(paths))
	for _, p := range paths {
		referenced[filepath.Clean(p)] = true
	}

	cutoff := s.now().Add(-time.Duration(appConfig().Cleanup.OrphanRetentionHours) * time.Hour)
	var orphans []string
	for _, root := range []string{filesDir, thumbnailsDir} {
		err := s.store.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
			if walkErr != nil {
				if isNotExist(walkErr) {
					return nil
				}
				return walkErr
			}
			if info.IsDir() || referenced[filepath.Clean(path)] {
				return nil
			}
			if info.ModTime().After(cutoff) {
				return nil
			}
			orphans = append(orphans, path)
			return nil
		})
		if err != nil {
			return 0, err
		}
	}

	removed := 0
	for _, path := range orphans {
		if err := s.store.Remove(path); err != nil && !isNotExist(err) {
			logger.L().Warn("failed to remove orphan file", zap.String("path", path), zap.Error(err))
			continue
		}
		removed++
	}
	metrics.AddCleanupRemoved("orphan_file", removed)
	return removed, nil
}

func (s *cleanupService) PruneExpiredShares(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-time.Duration(appConfig().Cleanup.ShareRetentionHours) * time.Hour)
	pruned, err := s.shares.DeleteExpiredBefore(ctx, nil, cutoff)
	if err != nil {
		return 0, err
	}
	metrics.AddCleanupRemoved("expired_share", int(pruned))
	return pruned, nil
}
