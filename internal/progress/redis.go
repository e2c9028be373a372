package progress

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"social-insights-service/internal/entity"
)

const defaultSnapshotTTL = time.Hour

// RedisStore keeps snapshots in Redis so progress survives process
// restarts and can be read by more than one instance. Values carry a
// TTL as a safety net on top of the orchestrator's retention delete.
type RedisStore struct {
	rdb       *redis.Client
	keyPrefix string
	ttl       time.Duration
}

func NewRedisStore(rdb *redis.Client, keyPrefix string, ttl time.Duration) *RedisStore {
	if keyPrefix == "" {
		keyPrefix = "analysis:progress:"
	}
	if ttl <= 0 {
		ttl = defaultSnapshotTTL
	}
	return &RedisStore{rdb: rdb, keyPrefix: keyPrefix, ttl: ttl}
}

func (s *RedisStore) Set(ctx context.Context, job *entity.AnalysisJob) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, s.keyPrefix+job.ID, raw, s.ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, jobID string) (*entity.AnalysisJob, error) {
	raw, err := s.rdb.Get(ctx, s.keyPrefix+jobID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var job entity.AnalysisJob
	if err := json.Unmarshal(raw, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *RedisStore) Delete(ctx context.Context, jobID string) error {
	return s.rdb.Del(ctx, s.keyPrefix+jobID).Err()
}
