package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	UserKeyPrefix          = "user:%s"
	CommunityKeyPrefix     = "community:%s"
	CommunitySlugKeyPrefix = "community:slug:%s"
	EngineCatalogKey       = "engines:catalog"
	MemberCountKeyPrefix   = "community:%s:member_count"
)

const (
	UserTTL          = 5 * time.Minute
	CommunityTTL     = 10 * time.Minute
	EngineCatalogTTL = 30 * time.Minute
	MemberCountTTL   = 1 * time.Minute
)

func UserKey(userID uuid.UUID) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

func CommunityKey(communityID uuid.UUID) string {
	return fmt.Sprintf(CommunityKeyPrefix, communityID)
}

func CommunitySlugKey(slug string) string {
	return fmt.Sprintf(CommunitySlugKeyPrefix, slug)
}

func MemberCountKey(communityID uuid.UUID) string {
	return fmt.Sprintf(MemberCountKeyPrefix, communityID)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, userID uuid.UUID) {
	Invalidate(ctx, UserKey(userID))
}

func InvalidateCommunity(ctx context.Context, communityID uuid.UUID, slug string) {
	Invalidate(ctx, CommunityKey(communityID))
	Invalidate(ctx, CommunitySlugKey(slug))
	Invalidate(ctx, MemberCountKey(communityID))
}

func InvalidateEngineCatalog(ctx context.Context) {
	Invalidate(ctx, EngineCatalogKey)
}

// GetJSON fetches and unmarshals a cached value into dest. It returns false
// when the cache is unavailable, the key is absent, or the payload is stale
// garbage, so callers always have a database fallback.
func GetJSON(ctx context.Context, key string, dest interface{}) bool {
	if client == nil {
		return false
	}
	raw, err := client.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		Invalidate(ctx, key)
		return false
	}
	return true
}

// Aside implements the cache-aside pattern: return the cached value if
// present, otherwise run fetch (which fills dest) and store the result.
// Fetch errors propagate; cache errors never do.
func Aside(ctx context.Context, key string, dest interface{}, ttl time.Duration, fetch func() error) error {
	if GetJSON(ctx, key, dest) {
		return nil
	}
	if err := fetch(); err != nil {
		return err
	}
	SetJSON(ctx, key, dest, ttl)
	return nil
}

// SetJSON marshals and stores a value with the given TTL. Failures are
// swallowed; the cache is best effort.
func SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if client == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	client.Set(ctx, key, raw, ttl)
}
