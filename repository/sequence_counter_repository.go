package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/crud-project/models"
	"github.com/amirphl/crud-project/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// nextSequenceSQL creates the counter at 1 or increments it, in one statement.
// The row lock taken by ON CONFLICT DO UPDATE serializes concurrent callers.
const nextSequenceSQL = `INSERT INTO sequence_counters (name, last_value, created_at, updated_at)
VALUES (?, 1, ?, ?)
ON CONFLICT (name) DO UPDATE
SET last_value = sequence_counters.last_value + 1, updated_at = EXCLUDED.updated_at
RETURNING last_value`

// SequenceCounterRepositoryImpl is the PostgreSQL-backed allocator
type SequenceCounterRepositoryImpl struct {
	*BaseRepository[models.SequenceCounter, any]
}

// NewSequenceCounterRepository creates a PostgreSQL-backed sequence counter repository
func NewSequenceCounterRepository(db *gorm.DB) SequenceCounterRepository {
	return &SequenceCounterRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SequenceCounter, any](db),
	}
}

// Next atomically increments the named counter and returns the new value
func (r *SequenceCounterRepositoryImpl) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, errors.New("sequence name is required")
	}
	db, err := r.getDB(ctx)
	if err != nil {
		return 0, err
	}

	now := utils.UTCNow()
	var value int64
	if err := db.Raw(nextSequenceSQL, name, now, now).Scan(&value).Error; err != nil {
		return 0, classify(fmt.Sprintf("increment sequence %q", name), err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("sequence %q returned non-positive value %d", name, value)
	}
	return value, nil
}

// Current returns the last issued value of the named counter
func (r *SequenceCounterRepositoryImpl) Current(ctx context.Context, name string) (int64, error) {
	db, err := r.getDB(ctx)
	if err != nil {
		return 0, err
	}

	var counter models.SequenceCounter
	err = db.Where("name = ?", name).Take(&counter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, classify(fmt.Sprintf("read sequence %q", name), err)
	}
	return counter.LastValue, nil
}

// RedisSequenceCounterRepository is the Redis-backed allocator; INCR is atomic on the server
type RedisSequenceCounterRepository struct {
	rc     *redis.Client
	prefix string
}

// NewRedisSequenceCounterRepository creates a Redis-backed sequence counter repository
func NewRedisSequenceCounterRepository(rc *redis.Client, prefix string) SequenceCounterRepository {
	return &RedisSequenceCounterRepository{rc: rc, prefix: prefix}
}

func (r *RedisSequenceCounterRepository) key(name string) string {
	return r.prefix + "sequence:" + name
}

// Next atomically increments the named counter and returns the new value
func (r *RedisSequenceCounterRepository) Next(ctx context.Context, name string) (int64, error) {
	if name == "" {
		return 0, errors.New("sequence name is required")
	}
	if r.rc == nil {
		return 0, ErrStorageUnavailable
	}
	value, err := r.rc.Incr(ctx, r.key(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: increment sequence %q: %v", ErrStorageUnavailable, name, err)
	}
	return value, nil
}

// Current returns the last issued value of the named counter
func (r *RedisSequenceCounterRepository) Current(ctx context.Context, name string) (int64, error) {
	if r.rc == nil {
		return 0, ErrStorageUnavailable
	}
	value, err := r.rc.Get(ctx, r.key(name)).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("%w: read sequence %q: %v", ErrStorageUnavailable, name, err)
	}
	return value, nil
}
