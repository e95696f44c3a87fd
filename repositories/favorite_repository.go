package repositories

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// RedisFavoriteRepository keeps one set of lineage root ids per user.
type RedisFavoriteRepository struct {
	redis *redis.Client
}

func NewRedisFavoriteRepository(redisClient *redis.Client) *RedisFavoriteRepository {
	return &RedisFavoriteRepository{redis: redisClient}
}

func favoritesKey(userID uint) string {
	return fmt.Sprintf("favorites:user:%d", userID)
}

func (r *RedisFavoriteRepository) Add(ctx context.Context, userID uint, rootID uint) error {
	return r.redis.SAdd(ctx, favoritesKey(userID), rootID).Err()
}

func (r *RedisFavoriteRepository) Remove(ctx context.Context, userID uint, rootID uint) error {
	return r.redis.SRem(ctx, favoritesKey(userID), rootID).Err()
}

func (r *RedisFavoriteRepository) IsFavorite(ctx context.Context, userID uint, rootID uint) (bool, error) {
	return r.redis.SIsMember(ctx, favoritesKey(userID), rootID).Result()
}

func (r *RedisFavoriteRepository) List(ctx context.Context, userID uint) ([]uint, error) {
	members, err := r.redis.SMembers(ctx, favoritesKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	result := make([]uint, 0, len(members))
	for _, member := range members {
		id, convErr := strconv.ParseUint(member, 10, 64)
		if convErr != nil {
			continue
		}
		result = append(result, uint(id))
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result, nil
}
