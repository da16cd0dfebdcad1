package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wiradata/cbt-backend/internal/config"
	"github.com/wiradata/cbt-backend/internal/model"
)

// PresenceEntry is one online user as stamped by the activity middleware.
type PresenceEntry struct {
	UserID       int        `json:"user_id"`
	Name         string     `json:"name"`
	Role         model.Role `json:"role"`
	IP           string     `json:"ip"`
	LastActivity time.Time  `json:"last_activity"`
}

// PresenceRepository tracks who is currently online in Redis. Entries
// expire on their own; a user drops off the list after the TTL without
// any request.
type PresenceRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewPresenceRepository creates a new PresenceRepository.
func NewPresenceRepository(rdb *redis.Client, ttl time.Duration) *PresenceRepository {
	return &PresenceRepository{rdb: rdb, ttl: ttl}
}

// Touch refreshes a user's presence entry.
func (r *PresenceRepository) Touch(ctx context.Context, entry PresenceEntry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, config.CacheKey.UserOnlineKey(entry.UserID), raw, r.ttl).Err()
}

// ListOnline scans for all live presence entries.
func (r *PresenceRepository) ListOnline(ctx context.Context) ([]PresenceEntry, error) {
	var entries []PresenceEntry

	iter := r.rdb.Scan(ctx, 0, config.CacheKey.UserOnlinePattern(), 100).Iterator()
	for iter.Next(ctx) {
		raw, err := r.rdb.Get(ctx, iter.Val()).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Expired between SCAN and GET
			}
			return nil, err
		}

		var entry PresenceEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue // Skip malformed entries rather than failing the list
		}
		entries = append(entries, entry)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
