package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	red "github.com/redis/go-redis/v9"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
	"github.com/cevi/onlinemat-sub000/internal/repository"
)

const defaultProfilePrefix = "authz:profile"

// ProfileCache stores user profile snapshots for low-latency authorization
// decisions. Entries expire on their own and are additionally evicted
// whenever a membership-change event is observed.
type ProfileCache struct {
	client *red.Client
	prefix string
}

// NewProfileCache constructs the profile cache helper.
func NewProfileCache(client *red.Client, keyPrefix string) *ProfileCache {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultProfilePrefix
	}

	return &ProfileCache{client: client, prefix: prefix}
}

type cachedProfile struct {
	ID          string                       `json:"id"`
	GlobalStaff bool                         `json:"global_staff"`
	TenantRoles map[string]domain.TenantRole `json:"tenant_roles,omitempty"`
}

// GetProfile fetches the cached snapshot, or repository.ErrNotFound on a miss.
func (c *ProfileCache) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	key := c.key(userID)
	if key == "" {
		return nil, fmt.Errorf("user id is required")
	}

	result, err := c.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, red.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("redis get profile: %w", err)
	}

	var cached cachedProfile
	if err := json.Unmarshal([]byte(result), &cached); err != nil {
		return nil, fmt.Errorf("decode cached profile: %w", err)
	}

	return &domain.UserProfile{
		ID:          cached.ID,
		GlobalStaff: cached.GlobalStaff,
		TenantRoles: cached.TenantRoles,
	}, nil
}

// SetProfile stores the snapshot with a TTL.
func (c *ProfileCache) SetProfile(ctx context.Context, profile domain.UserProfile, ttl time.Duration) error {
	key := c.key(profile.ID)
	if key == "" {
		return fmt.Errorf("user id is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive")
	}

	payload, err := json.Marshal(cachedProfile{
		ID:          profile.ID,
		GlobalStaff: profile.GlobalStaff,
		TenantRoles: profile.TenantRoles,
	})
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	if err := c.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set profile: %w", err)
	}

	return nil
}

// DeleteProfile evicts the snapshot.
func (c *ProfileCache) DeleteProfile(ctx context.Context, userID string) error {
	key := c.key(userID)
	if key == "" {
		return fmt.Errorf("user id is required")
	}

	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete profile: %w", err)
	}

	return nil
}

func (c *ProfileCache) key(userID string) string {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ""
	}
	return fmt.Sprintf("%s:%s", c.prefix, userID)
}
