package config

import (
	"fmt"

	"github.com/google/uuid"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserLoginKey returns the cache key registering a user's active login (JTI).
func (r *CacheKeyStruct) UserLoginKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// UserOnlineKey returns the cache key for a user's online-presence entry.
func (r *CacheKeyStruct) UserOnlineKey(userID int) string {
	return fmt.Sprintf("online:%d", userID)
}

// UserOnlinePattern is the SCAN pattern matching all presence entries.
func (r *CacheKeyStruct) UserOnlinePattern() string {
	return "online:*"
}

// SessionAnswersKey returns the cache key for a session's saved-answer snapshot.
func (r *CacheKeyStruct) SessionAnswersKey(sessionID uuid.UUID) string {
	return fmt.Sprintf("session:%s:answers", sessionID)
}

var CacheKey = NewCacheKeyStruct()
