package auth

import (
	"context"

	"ride-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// DestroyUserSessions removes every session tracked for the user, then the
// user_sessions:<user_id> set itself. It returns how many sessions were dropped.
func DestroyUserSessions(ctx context.Context, rdb *redis.Client, userID string) (int, error) {
	if userID == "" {
		return 0, nil
	}
	key := middleware.UserSessionsPrefix + userID
	sessionIDs, err := rdb.SMembers(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(sessionIDs)+1)
	for _, sid := range sessionIDs {
		keys = append(keys, middleware.SessionRedisPrefix+sid)
	}
	keys = append(keys, key)
	if err := rdb.Del(ctx, keys...).Err(); err != nil {
		return 0, err
	}
	return len(sessionIDs), nil
}
