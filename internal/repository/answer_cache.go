package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/wiradata/cbt-backend/internal/config"
)

// AnswerCache mirrors a session's saved answers into a Redis hash so the
// exam-state endpoint can return them without hitting PostgreSQL. It is a
// best-effort cache; the user_answers table stays the source of truth.
type AnswerCache struct {
	rdb *redis.Client
}

// NewAnswerCache creates a new AnswerCache.
func NewAnswerCache(rdb *redis.Client) *AnswerCache {
	return &AnswerCache{rdb: rdb}
}

// Put records the latest value for one question of a session.
func (c *AnswerCache) Put(ctx context.Context, sessionID, questionID uuid.UUID, value string) error {
	return c.rdb.HSet(ctx, config.CacheKey.SessionAnswersKey(sessionID), questionID.String(), value).Err()
}

// Snapshot returns all cached answers of a session, keyed by question id.
func (c *AnswerCache) Snapshot(ctx context.Context, sessionID uuid.UUID) (map[string]string, error) {
	return c.rdb.HGetAll(ctx, config.CacheKey.SessionAnswersKey(sessionID)).Result()
}

// Clear drops the snapshot once a session is submitted.
func (c *AnswerCache) Clear(ctx context.Context, sessionID uuid.UUID) error {
	return c.rdb.Del(ctx, config.CacheKey.SessionAnswersKey(sessionID)).Err()
}
