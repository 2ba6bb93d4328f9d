package port

import (
	"context"
	"time"

	"github.com/cevi/onlinemat-sub000/internal/core/domain"
)

// ProfileCache stores user profile snapshots for low-latency decisions. A
// cache miss is signalled with repository.ErrNotFound; the caller then falls
// back to the durable membership store.
type ProfileCache interface {
	GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error)
	SetProfile(ctx context.Context, profile domain.UserProfile, ttl time.Duration) error
	DeleteProfile(ctx context.Context, userID string) error
}
