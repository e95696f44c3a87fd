package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type GormTxManager struct {
	db *gorm.DB
}

func NewGormTxManager(db *gorm.DB) *GormTxManager {
	return &GormTxManager{db: db}
}

func (m *GormTxManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return m.db.WithContext(ctx).Transaction(fn)
}

type GormRepositories struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewGormRepositories(db *gorm.DB, redisClient *redis.Client) *GormRepositories {
	return &GormRepositories{db: db, redis: redisClient}
}

type databasePinger struct {
	db *gorm.DB
}

func (p databasePinger) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

func (r *GormRepositories) pingers() map[string]Pinger {
	pingers := map[string]Pinger{"database": databasePinger{db: r.db}}
	if r.redis != nil {
		pingers["redis"] = redisPinger{client: r.redis}
	}
	return pingers
}

func (r *GormRepositories) BuildContainer() Container {
	return Container{
		TxManager:   NewGormTxManager(r.db),
		Users:       NewGormUserRepository(r.db),
		Folders:     NewGormFolderRepository(r.db),
		Documents:   NewGormDocumentRepository(r.db),
		Permissions: NewGormPermissionRepository(r.db),
		Shares:      NewGormShareRepository(r.db),
		Activities:  NewGormActivityRepository(r.db),
		Favorites:   NewRedisFavoriteRepository(r.redis),
		StatsCache:  NewRedisStatsCache(r.redis),
		Pingers:     r.pingers(),
	}
}

func useTx(ctx context.Context, db *gorm.DB, tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// likeEscape is the escape character used by every LIKE pattern built here.
const likeEscape = "!"

// escapeLike makes s match literally inside a LIKE pattern using likeEscape.
func escapeLike(s string) string {
	r := strings.NewReplacer(likeEscape, likeEscape+likeEscape, "%", likeEscape+"%", "_", likeEscape+"_")
	return r.Replace(s)
}

// IsDuplicateKey reports a unique-index violation. Dialects without error translation are
// matched on their message.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry")
}
